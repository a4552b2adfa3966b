package cache

import (
	"strings"

	"github.com/ekaya-inc/nlsql/pkg/models"
)

// Key returns the cache key for a profile: <type>_<host>_<database>.
// Characters outside [A-Za-z0-9._-] become '_' so the key is safe as a file
// name and object key. Credentials are never part of the key.
func Key(profile *models.ConnectionProfile) string {
	raw := string(profile.Kind) + "_" + profile.Host + "_" + profile.Database
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, raw)
}

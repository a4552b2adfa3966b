package datasource

import (
	"context"
	"errors"
	"fmt"

	"github.com/ekaya-inc/nlsql/pkg/models"
)

// ErrUnsupportedKind is returned when no adapter is registered for a profile's kind.
var ErrUnsupportedKind = errors.New("no adapter registered for database type")

// SessionOpener opens sessions for connection profiles.
type SessionOpener interface {
	// OpenSession checks out a connection for the profile. Callers must Close it.
	OpenSession(ctx context.Context, profile *models.ConnectionProfile) (Session, error)

	// ListTypes returns info for all registered adapter types.
	ListTypes() []DatasourceAdapterInfo
}

type registryFactory struct {
	connMgr *ConnectionManager
}

// NewDatasourceAdapterFactory returns a SessionOpener backed by the global registry.
func NewDatasourceAdapterFactory(connMgr *ConnectionManager) SessionOpener {
	return &registryFactory{
		connMgr: connMgr,
	}
}

func (f *registryFactory) OpenSession(ctx context.Context, profile *models.ConnectionProfile) (Session, error) {
	if profile == nil {
		return nil, fmt.Errorf("connection profile is required")
	}
	factory := GetFactory(profile.Kind)
	if factory == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, profile.Kind)
	}
	return factory(ctx, profile, f.connMgr)
}

func (f *registryFactory) ListTypes() []DatasourceAdapterInfo {
	return RegisteredAdapters()
}

// Ensure registryFactory implements SessionOpener at compile time.
var _ SessionOpener = (*registryFactory)(nil)

package datasource

import (
	"context"
	"sort"
	"sync"

	"github.com/ekaya-inc/nlsql/pkg/models"
)

// DatasourceAdapterInfo describes a registered adapter.
type DatasourceAdapterInfo struct {
	Type        models.DatabaseKind `json:"type"`         // "mysql", "postgres", "sqlite"
	DisplayName string              `json:"display_name"` // "MySQL", "PostgreSQL", "SQLite"
	Description string              `json:"description"`
}

// SessionFactoryFunc opens a session against the profile, reusing pools held by connMgr.
type SessionFactoryFunc func(ctx context.Context, profile *models.ConnectionProfile, connMgr *ConnectionManager) (Session, error)

// DatasourceAdapterRegistration contains info + factory for creating sessions.
type DatasourceAdapterRegistration struct {
	Info    DatasourceAdapterInfo
	Factory SessionFactoryFunc
}

var (
	registryMu sync.RWMutex
	registry   = make(map[models.DatabaseKind]DatasourceAdapterRegistration)
)

// Register is called by each adapter's init() function.
// Thread-safe for concurrent init() calls.
func Register(reg DatasourceAdapterRegistration) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[reg.Info.Type] = reg
}

// RegisteredAdapters returns info for all registered adapters, sorted by type.
func RegisteredAdapters() []DatasourceAdapterInfo {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]DatasourceAdapterInfo, 0, len(registry))
	for _, reg := range registry {
		result = append(result, reg.Info)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Type < result[j].Type })
	return result
}

// GetFactory returns the session factory for a kind.
// Returns nil if the kind is not registered.
func GetFactory(kind models.DatabaseKind) SessionFactoryFunc {
	registryMu.RLock()
	defer registryMu.RUnlock()

	if reg, ok := registry[kind]; ok {
		return reg.Factory
	}
	return nil
}

// IsRegistered checks if an adapter kind is available.
func IsRegistered(kind models.DatabaseKind) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[kind]
	return ok
}

package sqlite

import (
	"context"

	"github.com/ekaya-inc/nlsql/pkg/adapters/datasource"
	"github.com/ekaya-inc/nlsql/pkg/models"
)

func init() {
	datasource.Register(datasource.DatasourceAdapterRegistration{
		Info: datasource.DatasourceAdapterInfo{
			Type:        models.DatabaseKindSQLite,
			DisplayName: "SQLite",
			Description: "Open a local SQLite 3 database file",
		},
		Factory: func(ctx context.Context, profile *models.ConnectionProfile, connMgr *datasource.ConnectionManager) (datasource.Session, error) {
			return NewSession(ctx, profile, connMgr)
		},
	})
}

package postgres

import (
	"context"

	"github.com/ekaya-inc/nlsql/pkg/adapters/datasource"
	"github.com/ekaya-inc/nlsql/pkg/models"
)

func init() {
	datasource.Register(datasource.DatasourceAdapterRegistration{
		Info: datasource.DatasourceAdapterInfo{
			Type:        models.DatabaseKindPostgres,
			DisplayName: "PostgreSQL",
			Description: "Connect to PostgreSQL 12+, Aurora PostgreSQL, Supabase",
		},
		Factory: func(ctx context.Context, profile *models.ConnectionProfile, connMgr *datasource.ConnectionManager) (datasource.Session, error) {
			return NewSession(ctx, profile, connMgr)
		},
	})
}

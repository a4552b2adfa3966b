package mysql

import (
	"context"

	"github.com/ekaya-inc/nlsql/pkg/adapters/datasource"
	"github.com/ekaya-inc/nlsql/pkg/models"
)

func init() {
	datasource.Register(datasource.DatasourceAdapterRegistration{
		Info: datasource.DatasourceAdapterInfo{
			Type:        models.DatabaseKindMySQL,
			DisplayName: "MySQL",
			Description: "Connect to MySQL 5.7+, MariaDB, Aurora MySQL",
		},
		Factory: func(ctx context.Context, profile *models.ConnectionProfile, connMgr *datasource.ConnectionManager) (datasource.Session, error) {
			return NewSession(ctx, profile, connMgr)
		},
	})
}

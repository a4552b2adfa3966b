package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/nlsql/pkg/adapters/datasource"
	"github.com/ekaya-inc/nlsql/pkg/apperrors"
	"github.com/ekaya-inc/nlsql/pkg/logging"
	"github.com/ekaya-inc/nlsql/pkg/models"
)

// DatasourceService defines the interface for datasource operations.
type DatasourceService interface {
	// TestConnection tests connectivity to the database behind a profile.
	TestConnection(ctx context.Context, profile *models.ConnectionProfile) error

	// ListTypes returns the registered database types.
	ListTypes() []datasource.DatasourceAdapterInfo
}

type datasourceService struct {
	opener datasource.SessionOpener
	logger *zap.Logger
}

// NewDatasourceService creates a new datasource service.
func NewDatasourceService(opener datasource.SessionOpener, logger *zap.Logger) DatasourceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &datasourceService{
		opener: opener,
		logger: logger.Named("datasource"),
	}
}

func (s *datasourceService) TestConnection(ctx context.Context, profile *models.ConnectionProfile) error {
	if profile == nil {
		return fmt.Errorf("%w: connection profile is required", apperrors.ErrInvalidRequest)
	}

	session, err := s.opener.OpenSession(ctx, profile)
	if err != nil {
		s.logger.Warn("Connection failed",
			zap.String("type", string(profile.Kind)),
			zap.String("error", logging.SanitizeError(err)))
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer session.Close()

	if err := session.TestConnection(ctx); err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}

	s.logger.Info("Connection test successful", zap.String("type", string(profile.Kind)))
	return nil
}

func (s *datasourceService) ListTypes() []datasource.DatasourceAdapterInfo {
	return s.opener.ListTypes()
}

// Ensure datasourceService implements DatasourceService at compile time.
var _ DatasourceService = (*datasourceService)(nil)

package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/nlsql/pkg/adapters/datasource"
	"github.com/ekaya-inc/nlsql/pkg/apperrors"
	"github.com/ekaya-inc/nlsql/pkg/models"
)

type pingSession struct {
	datasource.Session
	pingErr error
	closed  bool
}

func (s *pingSession) TestConnection(ctx context.Context) error { return s.pingErr }
func (s *pingSession) Close() error {
	s.closed = true
	return nil
}

type mockOpener struct {
	session *pingSession
	openErr error
}

func (m *mockOpener) OpenSession(ctx context.Context, profile *models.ConnectionProfile) (datasource.Session, error) {
	if m.openErr != nil {
		return nil, m.openErr
	}
	return m.session, nil
}

func (m *mockOpener) ListTypes() []datasource.DatasourceAdapterInfo {
	return []datasource.DatasourceAdapterInfo{{Type: models.DatabaseKindSQLite, DisplayName: "SQLite"}}
}

func TestDatasourceService_TestConnection(t *testing.T) {
	session := &pingSession{}
	svc := NewDatasourceService(&mockOpener{session: session}, nil)

	require.NoError(t, svc.TestConnection(context.Background(), profile()))
	assert.True(t, session.closed, "session released")
}

func TestDatasourceService_TestConnection_Failures(t *testing.T) {
	svc := NewDatasourceService(&mockOpener{openErr: errors.New("dial tcp: refused")}, nil)
	err := svc.TestConnection(context.Background(), profile())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect")

	session := &pingSession{pingErr: errors.New("password authentication failed")}
	svc = NewDatasourceService(&mockOpener{session: session}, nil)
	err = svc.TestConnection(context.Background(), profile())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection test failed")
	assert.True(t, session.closed)

	err = svc.TestConnection(context.Background(), nil)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidRequest))
}

func TestDatasourceService_ListTypes(t *testing.T) {
	svc := NewDatasourceService(&mockOpener{}, nil)
	types := svc.ListTypes()
	require.Len(t, types, 1)
	assert.Equal(t, models.DatabaseKindSQLite, types[0].Type)
}

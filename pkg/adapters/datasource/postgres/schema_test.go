//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/nlsql/pkg/testhelpers"
)

func setupSession(t *testing.T) *Session {
	t.Helper()

	testDB := testhelpers.GetTestDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	session, err := NewSession(ctx, testDB.Profile, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session
}

func TestSession_TestConnection(t *testing.T) {
	session := setupSession(t)
	assert.NoError(t, session.TestConnection(context.Background()))
}

func TestSession_GetTables(t *testing.T) {
	session := setupSession(t)

	tables, err := session.GetTables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "users"}, tables)
}

func TestSession_GetColumns(t *testing.T) {
	session := setupSession(t)

	columns, err := session.GetColumns(context.Background(), "orders")
	require.NoError(t, err)
	require.Len(t, columns, 3)

	assert.Equal(t, "id", columns[0].Name)
	assert.Equal(t, "integer", columns[0].Type)
	assert.False(t, columns[0].Nullable)
	assert.Equal(t, "total", columns[2].Name)
	require.NotNil(t, columns[2].Default)
}

func TestSession_GetForeignKeys(t *testing.T) {
	session := setupSession(t)

	fks, err := session.GetForeignKeys(context.Background(), "orders")
	require.NoError(t, err)
	require.Len(t, fks, 1)
	assert.Equal(t, "user_id", fks[0].Column)
	assert.Equal(t, "users", fks[0].ReferencedTable)
	assert.Equal(t, "id", fks[0].ReferencedColumn)

	none, err := session.GetForeignKeys(context.Background(), "users")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSession_SampleRows(t *testing.T) {
	session := setupSession(t)

	columns, rows, err := session.SampleRows(context.Background(), "orders", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "user_id", "total"}, columns)
	assert.Len(t, rows, 2)
}

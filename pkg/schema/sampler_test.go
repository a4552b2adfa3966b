package schema

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/nlsql/pkg/apperrors"
	"github.com/ekaya-inc/nlsql/pkg/models"
)

func TestSampler_Bounds(t *testing.T) {
	sess := &fakeSession{rows: map[string][][]any{}, rowCols: map[string][]string{}}
	for i := 0; i < 12; i++ {
		name := fmt.Sprintf("t%02d", i)
		sess.tables = append(sess.tables, name)
		sess.rowCols[name] = []string{"id"}
		for r := 0; r < 7; r++ {
			sess.rows[name] = append(sess.rows[name], []any{int32(r)})
		}
	}

	data, diag, err := NewSampler(0, 0, nil).Sample(context.Background(), sess, nil)
	require.NoError(t, err)
	assert.True(t, diag.Empty())

	assert.Len(t, data, models.DefaultSampleTables)
	assert.Equal(t, models.DefaultSampleRows, sess.sampleLimit)
	for _, sample := range data {
		assert.LessOrEqual(t, len(sample.Rows), models.DefaultSampleRows)
	}
	_, ok := data["t10"]
	assert.False(t, ok, "only the first tables in catalog order are sampled")
	assert.Equal(t, int64(0), data["t00"].Rows[0]["id"])
}

func TestSampler_UsesGivenTables(t *testing.T) {
	sess := shopSession()
	sess.rowCols = map[string][]string{"orders": {"id", "user_id"}}
	sess.rows = map[string][][]any{"orders": {{int64(1), nil}}}

	data, _, err := NewSampler(10, 5, nil).Sample(context.Background(), sess, []string{"orders"})
	require.NoError(t, err)
	assert.Equal(t, 0, sess.listCalls)
	assert.Equal(t, []string{"orders"}, sess.sampleCalls)
	require.Contains(t, data, "orders")
	assert.Equal(t, []string{"id", "user_id"}, data["orders"].Columns)
	assert.Nil(t, data["orders"].Rows[0]["user_id"])
}

func TestSampler_SkipsFailingTable(t *testing.T) {
	sess := shopSession()
	sess.rowCols = map[string][]string{"users": {"id"}}
	sess.rows = map[string][][]any{"users": {{int64(1)}}}
	sess.sampleErrs = map[string]error{"orders": errors.New("lock timeout")}

	data, diag, err := NewSampler(10, 5, nil).Sample(context.Background(), sess, nil)
	require.NoError(t, err)
	assert.Contains(t, data, "users")
	assert.NotContains(t, data, "orders")
	assert.Equal(t, []string{"orders"}, diag.SkippedSampleTables)
}

func TestSampler_ListFailure(t *testing.T) {
	sess := &fakeSession{tablesErr: errors.New("gone")}

	_, _, err := NewSampler(10, 5, nil).Sample(context.Background(), sess, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrSchemaExtraction))
}

func TestCoerceValue(t *testing.T) {
	uuidBytes := [16]byte{0x55, 0x0e, 0x84, 0x00, 0xe2, 0x9b, 0x41, 0xd4, 0xa7, 0x16, 0x44, 0x66, 0x55, 0x44, 0x00, 0x00}

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"string", "abc", "abc"},
		{"bool", true, true},
		{"int32", int32(7), int64(7)},
		{"uint8", uint8(3), int64(3)},
		{"float32", float32(1.5), float64(1.5)},
		{"date only", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "2024-03-01"},
		{"timestamp", time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC), "2024-03-01T12:30:00Z"},
		{"utf8 bytes", []byte("hello"), "hello"},
		{"binary bytes", []byte{0xff, 0x00}, `\xff00`},
		{"uuid", uuidBytes, "550e8400-e29b-41d4-a716-446655440000"},
		{"json object", map[string]any{"a": 1}, `{"a":1}`},
		{"numeric", pgtype.Numeric{Int: big.NewInt(1999), Exp: -2, Valid: true}, 19.99},
		{"null numeric", pgtype.Numeric{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CoerceValue(tt.in))
		})
	}
}

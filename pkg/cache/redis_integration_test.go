//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/nlsql/pkg/config"
	"github.com/ekaya-inc/nlsql/pkg/testhelpers"
)

func TestRedisStore_Integration(t *testing.T) {
	addr := testhelpers.GetRedisAddr(t)

	store, err := NewRedisStore(context.Background(), config.RedisConfig{
		Addr:      addr,
		KeyPrefix: "nlsql:test:" + time.Now().Format("150405.000") + ":",
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	exerciseStore(t, store)
}

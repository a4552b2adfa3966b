package datasource

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ekaya-inc/nlsql/pkg/models"
)

type fakePool struct {
	kind    models.DatabaseKind
	pingErr error
	closed  atomic.Bool
}

func (p *fakePool) Ping(ctx context.Context) error { return p.pingErr }

func (p *fakePool) Close() error {
	p.closed.Store(true)
	return nil
}

func (p *fakePool) GetType() models.DatabaseKind { return p.kind }

func countingFactory(pool *fakePool, calls *atomic.Int32) PoolFactory {
	return func(ctx context.Context, cfg ConnectionManagerConfig) (PoolConnector, error) {
		calls.Add(1)
		return pool, nil
	}
}

func TestConnectionManager_GetOrCreatePool_Reuse(t *testing.T) {
	cm := NewConnectionManager(ConnectionManagerConfig{}, zaptest.NewLogger(t))
	defer cm.Close()

	ctx := context.Background()
	pool := &fakePool{kind: models.DatabaseKindMySQL}
	var calls atomic.Int32

	p1, err := cm.GetOrCreatePool(ctx, "mysql|db|3306|shop|app", countingFactory(pool, &calls))
	require.NoError(t, err)
	p2, err := cm.GetOrCreatePool(ctx, "mysql|db|3306|shop|app", countingFactory(pool, &calls))
	require.NoError(t, err)

	assert.Equal(t, fmt.Sprintf("%p", p1), fmt.Sprintf("%p", p2), "should reuse same pool instance")
	assert.Equal(t, int32(1), calls.Load())

	stats := cm.GetStats()
	assert.Equal(t, 1, stats.TotalPools)
	assert.Equal(t, 1, stats.PoolsByType[models.DatabaseKindMySQL])
}

func TestConnectionManager_GetOrCreatePool_RecreatesUnhealthy(t *testing.T) {
	cm := NewConnectionManager(ConnectionManagerConfig{}, zaptest.NewLogger(t))
	defer cm.Close()
	cm.retryCfg.MaxRetries = 0

	ctx := context.Background()
	sick := &fakePool{kind: models.DatabaseKindPostgres}
	var calls atomic.Int32

	_, err := cm.GetOrCreatePool(ctx, "k", countingFactory(sick, &calls))
	require.NoError(t, err)

	sick.pingErr = errors.New("connection reset by peer")
	healthy := &fakePool{kind: models.DatabaseKindPostgres}
	got, err := cm.GetOrCreatePool(ctx, "k", countingFactory(healthy, &calls))
	require.NoError(t, err)

	assert.Same(t, healthy, got)
	assert.True(t, sick.closed.Load(), "unhealthy pool should be closed")
	assert.Equal(t, int32(2), calls.Load())
}

func TestConnectionManager_CreateFailureNotRetriedWhenPermanent(t *testing.T) {
	cm := NewConnectionManager(ConnectionManagerConfig{}, zaptest.NewLogger(t))
	defer cm.Close()

	var calls atomic.Int32
	_, err := cm.GetOrCreatePool(context.Background(), "k", func(ctx context.Context, cfg ConnectionManagerConfig) (PoolConnector, error) {
		calls.Add(1)
		return nil, errors.New("access denied for user 'app'")
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create pool")
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 0, cm.GetStats().TotalPools)
}

func TestConnectionManager_MaxPools(t *testing.T) {
	cm := NewConnectionManager(ConnectionManagerConfig{MaxPools: 2}, zaptest.NewLogger(t))
	defer cm.Close()

	ctx := context.Background()
	var calls atomic.Int32
	for i := 0; i < 2; i++ {
		_, err := cm.GetOrCreatePool(ctx, fmt.Sprintf("k%d", i), countingFactory(&fakePool{kind: models.DatabaseKindSQLite}, &calls))
		require.NoError(t, err)
	}

	_, err := cm.GetOrCreatePool(ctx, "k3", countingFactory(&fakePool{}, &calls))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum connection pools reached")
}

func TestConnectionManager_PerformCleanup(t *testing.T) {
	cm := NewConnectionManager(ConnectionManagerConfig{TTLMinutes: 1}, zaptest.NewLogger(t))
	defer cm.Close()

	pool := &fakePool{kind: models.DatabaseKindMySQL}
	var calls atomic.Int32
	_, err := cm.GetOrCreatePool(context.Background(), "k", countingFactory(pool, &calls))
	require.NoError(t, err)

	cm.performCleanup(time.Now().Add(30 * time.Second))
	assert.Equal(t, 1, cm.GetStats().TotalPools, "pool within TTL should survive")

	cm.performCleanup(time.Now().Add(2 * time.Minute))
	assert.Equal(t, 0, cm.GetStats().TotalPools)
	assert.True(t, pool.closed.Load())
}

func TestConnectionManager_CloseIdempotent(t *testing.T) {
	cm := NewConnectionManager(ConnectionManagerConfig{}, zaptest.NewLogger(t))

	pool := &fakePool{kind: models.DatabaseKindMySQL}
	var calls atomic.Int32
	_, err := cm.GetOrCreatePool(context.Background(), "k", countingFactory(pool, &calls))
	require.NoError(t, err)

	require.NoError(t, cm.Close())
	require.NoError(t, cm.Close())
	assert.True(t, pool.closed.Load())

	_, err = cm.GetOrCreatePool(context.Background(), "k2", countingFactory(pool, &calls))
	assert.Error(t, err, "closed manager should refuse new pools")
}

func TestConnectionManager_ConcurrentSameKey(t *testing.T) {
	cm := NewConnectionManager(ConnectionManagerConfig{}, zaptest.NewLogger(t))
	defer cm.Close()

	pool := &fakePool{kind: models.DatabaseKindPostgres}
	var calls atomic.Int32

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cm.GetOrCreatePool(context.Background(), "shared", countingFactory(pool, &calls))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load(), "pool should be created once")
}

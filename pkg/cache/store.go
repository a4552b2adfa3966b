package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/nlsql/pkg/apperrors"
	"github.com/ekaya-inc/nlsql/pkg/config"
)

// KVStore is the byte-level store behind the schema cache.
type KVStore interface {
	// Get returns the value for key, or an error wrapping apperrors.ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key. A zero ttl keeps the value until deleted.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the store's resources.
	Close() error
}

var errStoreClosed = errors.New("kv store is closed")

func notFound(key string) error {
	return fmt.Errorf("key %q: %w", key, apperrors.ErrNotFound)
}

// NewStore builds the store selected by cfg.Type.
func NewStore(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger) (KVStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("kvstore")

	switch cfg.Type {
	case config.CacheTypeMemory:
		return NewMemoryStore(), nil
	case "", config.CacheTypeFile:
		dir, err := cfg.CacheDir()
		if err != nil {
			return nil, err
		}
		return NewFileStore(dir)
	case config.CacheTypeRedis:
		return NewRedisStore(ctx, cfg.Redis)
	case config.CacheTypeDynamoDB:
		return NewDynamoDBStore(ctx, cfg.DynamoDB)
	case config.CacheTypeS3:
		return NewObjectStore(ctx, cfg.S3, logger)
	default:
		return nil, fmt.Errorf("%w: unknown cache type %q", apperrors.ErrConfig, cfg.Type)
	}
}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/nlsql/pkg/adapters/datasource"
	"github.com/ekaya-inc/nlsql/pkg/apperrors"
	"github.com/ekaya-inc/nlsql/pkg/logging"
	"github.com/ekaya-inc/nlsql/pkg/models"
	"github.com/ekaya-inc/nlsql/pkg/observability"
	"github.com/ekaya-inc/nlsql/pkg/schema"
)

// SchemaCache returns a database's normalized schema (and optionally sample
// rows), extracting it on a miss and persisting it in a KVStore.
//
// No locking is done: two concurrent misses for the same key both extract
// and the last write wins.
type SchemaCache struct {
	store     KVStore
	opener    datasource.SessionOpener
	extractor *schema.Extractor
	sampler   *schema.Sampler
	ttl       time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

// NewSchemaCache wires a cache. A nil logger is replaced with a no-op logger.
func NewSchemaCache(
	store KVStore,
	opener datasource.SessionOpener,
	extractor *schema.Extractor,
	sampler *schema.Sampler,
	ttl time.Duration,
	logger *zap.Logger,
) *SchemaCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchemaCache{
		store:     store,
		opener:    opener,
		extractor: extractor,
		sampler:   sampler,
		ttl:       ttl,
		now:       time.Now,
		logger:    logger.Named("schema_cache"),
	}
}

// Get returns the schema entry for profile.
//
// A stored entry is returned unless forceRefresh is set or samples are
// requested and the entry has none; in the latter case only sampling runs and
// the entry is re-persisted. Otherwise the schema is extracted (and sampled)
// and the result persisted with Fresh set. Extraction failures leave the
// store untouched.
func (c *SchemaCache) Get(ctx context.Context, profile *models.ConnectionProfile, forceRefresh, includeSamples bool) (*models.SchemaCacheEntry, schema.Diagnostics, error) {
	var diag schema.Diagnostics
	if profile == nil {
		return nil, diag, fmt.Errorf("%w: connection profile is required", apperrors.ErrInvalidRequest)
	}
	key := Key(profile)

	if forceRefresh {
		observability.ObserveCacheLookup(observability.CacheForced)
	} else {
		if entry := c.load(ctx, key, &diag); entry != nil {
			return c.serveCached(ctx, profile, entry, includeSamples, diag)
		}
		observability.ObserveCacheLookup(observability.CacheMiss)
	}

	entry, ediag, err := c.extract(ctx, profile, key, includeSamples)
	diag.Merge(ediag)
	if err != nil {
		return nil, diag, err
	}
	if entry.Schema != nil && !entry.Schema.IsEmpty() {
		c.save(ctx, entry)
	}
	return entry, diag, nil
}

func (c *SchemaCache) serveCached(ctx context.Context, profile *models.ConnectionProfile, entry *models.SchemaCacheEntry, includeSamples bool, diag schema.Diagnostics) (*models.SchemaCacheEntry, schema.Diagnostics, error) {
	if !includeSamples || entry.HasSamples() {
		observability.ObserveCacheLookup(observability.CacheHit)
		c.logger.Debug("schema cache hit", zap.String("key", entry.Key))
		return entry, diag, nil
	}

	observability.ObserveCacheLookup(observability.CacheResample)
	samples, sdiag, err := c.resample(ctx, profile, entry.Schema)
	diag.Merge(sdiag)
	if err != nil {
		// Samples are optional context; serve the cached schema without them.
		c.logger.Warn("sampling cached schema failed",
			zap.String("key", entry.Key),
			zap.String("error", logging.SanitizeError(err)),
		)
		diag.SampleListingSkipped = true
		return entry, diag, nil
	}
	entry.Samples = samples
	c.save(ctx, entry)
	return entry, diag, nil
}

// Invalidate removes the stored entry for profile.
func (c *SchemaCache) Invalidate(ctx context.Context, profile *models.ConnectionProfile) error {
	if profile == nil {
		return fmt.Errorf("%w: connection profile is required", apperrors.ErrInvalidRequest)
	}
	key := Key(profile)
	if err := c.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to invalidate schema cache %s: %w", key, err)
	}
	c.logger.Info("schema cache invalidated", zap.String("key", key))
	return nil
}

// load returns nil on a miss. Unreadable or corrupted entries count as misses.
func (c *SchemaCache) load(ctx context.Context, key string, diag *schema.Diagnostics) *models.SchemaCacheEntry {
	data, err := c.store.Get(ctx, key)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil
	}
	if err != nil {
		c.logger.Warn("schema cache read failed, treating as miss",
			zap.String("key", key),
			zap.Error(err),
		)
		return nil
	}

	var entry models.SchemaCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil || entry.Schema == nil {
		c.logger.Warn("corrupted schema cache entry, treating as miss",
			zap.String("key", key),
			zap.Int("bytes", len(data)),
		)
		diag.CorruptedCacheReads++
		observability.IncrementSkipped(observability.StageCorruptedCache, 1)
		return nil
	}
	entry.Key = key
	entry.Fresh = false
	return &entry
}

func (c *SchemaCache) save(ctx context.Context, entry *models.SchemaCacheEntry) {
	data, err := json.Marshal(entry)
	if err != nil {
		c.logger.Error("failed to encode schema cache entry", zap.String("key", entry.Key), zap.Error(err))
		observability.ObserveCacheLookup(observability.CacheWriteError)
		return
	}
	if err := c.store.Set(ctx, entry.Key, data, c.ttl); err != nil {
		c.logger.Warn("failed to persist schema cache entry",
			zap.String("key", entry.Key),
			zap.Error(err),
		)
		observability.ObserveCacheLookup(observability.CacheWriteError)
	}
}

// extract opens a session, reads the schema and optional samples, and
// releases the session before returning.
func (c *SchemaCache) extract(ctx context.Context, profile *models.ConnectionProfile, key string, includeSamples bool) (*models.SchemaCacheEntry, schema.Diagnostics, error) {
	var diag schema.Diagnostics

	sess, err := c.opener.OpenSession(ctx, profile)
	if errors.Is(err, datasource.ErrUnsupportedKind) {
		c.logger.Warn("no adapter registered for database type", zap.String("type", string(profile.Kind)))
		empty, _, _ := c.extractor.Extract(ctx, nil)
		return c.newEntry(key, profile.Kind, empty, nil), diag, nil
	}
	if err != nil {
		return nil, diag, schema.NewExtractionError("connect", err)
	}
	defer sess.Close()

	normalized, ediag, err := c.extractor.Extract(ctx, sess)
	diag.Merge(ediag)
	if err != nil {
		return nil, diag, err
	}

	var samples models.SampleData
	if includeSamples {
		var sdiag schema.Diagnostics
		samples, sdiag, err = c.sampler.Sample(ctx, sess, normalized.TableNames())
		diag.Merge(sdiag)
		if err != nil {
			c.logger.Warn("sampling failed, continuing without samples",
				zap.String("key", key),
				zap.String("error", logging.SanitizeError(err)),
			)
			diag.SampleListingSkipped = true
			samples = nil
		}
	}

	c.logger.Info("schema extracted",
		zap.String("key", key),
		zap.Int("tables", len(normalized.Tables)),
		zap.Int("sampled_tables", len(samples)),
	)
	return c.newEntry(key, profile.Kind, normalized, samples), diag, nil
}

func (c *SchemaCache) resample(ctx context.Context, profile *models.ConnectionProfile, cached *models.NormalizedSchema) (models.SampleData, schema.Diagnostics, error) {
	sess, err := c.opener.OpenSession(ctx, profile)
	if err != nil {
		return nil, schema.Diagnostics{}, schema.NewExtractionError("connect", err)
	}
	defer sess.Close()
	return c.sampler.Sample(ctx, sess, cached.TableNames())
}

func (c *SchemaCache) newEntry(key string, kind models.DatabaseKind, s *models.NormalizedSchema, samples models.SampleData) *models.SchemaCacheEntry {
	return &models.SchemaCacheEntry{
		Key:         key,
		Kind:        kind,
		Schema:      s,
		Samples:     samples,
		ExtractedAt: c.now().UTC(),
		Fresh:       true,
	}
}

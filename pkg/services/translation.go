package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/nlsql/pkg/apperrors"
	"github.com/ekaya-inc/nlsql/pkg/llm"
	"github.com/ekaya-inc/nlsql/pkg/models"
	"github.com/ekaya-inc/nlsql/pkg/observability"
	"github.com/ekaya-inc/nlsql/pkg/prompts"
	"github.com/ekaya-inc/nlsql/pkg/schema"
)

// DefaultTemperature is used when a request leaves Temperature unset.
const DefaultTemperature = 0.2

// SchemaSource supplies cached or freshly extracted schema for a profile.
type SchemaSource interface {
	Get(ctx context.Context, profile *models.ConnectionProfile, forceRefresh, includeSamples bool) (*models.SchemaCacheEntry, schema.Diagnostics, error)
	Invalidate(ctx context.Context, profile *models.ConnectionProfile) error
}

// SQLDispatcher sends a prompt to a provider and returns the SQL reply.
type SQLDispatcher interface {
	Dispatch(ctx context.Context, cfg *models.ProviderConfig, prompt string, temperature float64) (string, error)
}

// TranslateRequest is one natural-language question to translate.
type TranslateRequest struct {
	Question string
	Profile  *models.ConnectionProfile
	// Provider overrides the service's default provider when set.
	Provider *models.ProviderConfig
	// Temperature defaults to DefaultTemperature when nil.
	Temperature    *float64
	History        []models.HistoryTurn
	IncludeSamples bool
	ForceRefresh   bool
}

// TranslateResult is the SQL produced for a question plus what went into it.
type TranslateResult struct {
	SQL         string              `json:"sql"`
	Prompt      string              `json:"prompt"`
	Provider    models.ProviderName `json:"provider"`
	Model       string              `json:"model"`
	CacheHit    bool                `json:"cache_hit"`
	Diagnostics schema.Diagnostics  `json:"diagnostics"`
}

// TranslationOptions holds service-wide defaults.
type TranslationOptions struct {
	DefaultProvider *models.ProviderConfig
	Prompt          prompts.Options
}

// TranslationService turns questions into SQL.
type TranslationService interface {
	// Translate validates the request, loads schema, builds the prompt and
	// dispatches it. Nothing is retried.
	Translate(ctx context.Context, req TranslateRequest) (*TranslateResult, error)

	// RefreshSchema drops the cached schema for profile and extracts it again.
	RefreshSchema(ctx context.Context, profile *models.ConnectionProfile) (*models.SchemaCacheEntry, schema.Diagnostics, error)
}

type translationService struct {
	schemas    SchemaSource
	dispatcher SQLDispatcher
	opts       TranslationOptions
	logger     *zap.Logger
}

// NewTranslationService creates a translation service with dependencies.
func NewTranslationService(schemas SchemaSource, dispatcher SQLDispatcher, opts TranslationOptions, logger *zap.Logger) TranslationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &translationService{
		schemas:    schemas,
		dispatcher: dispatcher,
		opts:       opts,
		logger:     logger.Named("translation"),
	}
}

func (s *translationService) Translate(ctx context.Context, req TranslateRequest) (*TranslateResult, error) {
	if strings.TrimSpace(req.Question) == "" {
		return nil, fmt.Errorf("%w: question is required", apperrors.ErrInvalidRequest)
	}
	if req.Profile == nil {
		return nil, fmt.Errorf("%w: connection profile is required", apperrors.ErrInvalidRequest)
	}

	temperature := DefaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	if temperature < 0 || temperature > 1 {
		return nil, fmt.Errorf("%w: temperature %.2f outside 0.0-1.0", apperrors.ErrInvalidRequest, temperature)
	}

	provider := req.Provider
	if provider == nil {
		provider = s.opts.DefaultProvider
	}
	var providerName models.ProviderName
	if provider != nil {
		providerName = provider.Provider
	}
	// The credential is checked before any schema or network work.
	if !provider.IsConfigured() {
		observability.ObserveTranslation(string(providerName), string(llm.ErrorTypeConfig))
		return nil, &llm.Error{
			Type:     llm.ErrorTypeConfig,
			State:    llm.StateUnconfigured,
			Provider: providerName,
			Message:  "no API key configured",
		}
	}

	entry, diag, err := s.schemas.Get(ctx, req.Profile, req.ForceRefresh, req.IncludeSamples)
	if err != nil {
		observability.ObserveTranslation(string(providerName), "schema_error")
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}

	in := prompts.PromptInput{
		Question: req.Question,
		Dialect:  req.Profile.Kind,
		Schema:   entry.Schema,
		History:  req.History,
		Options:  s.opts.Prompt,
	}
	if req.IncludeSamples {
		in.Samples = entry.Samples
	}
	prompt, stats := prompts.BuildTranslationPrompt(in)

	diag.InvalidHistoryTurns += stats.SkippedHistoryTurns
	observability.IncrementSkipped(observability.StageHistoryTurn, stats.SkippedHistoryTurns)

	if _, ok := llm.RequestIDFrom(ctx); !ok {
		ctx = llm.WithRequestID(ctx, uuid.New())
	}
	requestID, _ := llm.RequestIDFrom(ctx)

	s.logger.Debug("Translating question",
		zap.String("request_id", requestID.String()),
		zap.String("provider", string(providerName)),
		zap.String("db_type", string(req.Profile.Kind)),
		zap.Bool("cache_hit", !entry.Fresh),
		zap.Int("tables", stats.Tables),
		zap.Int("sample_rows", stats.SampleRows),
		zap.Int("history_turns", stats.HistoryTurns))

	start := time.Now()
	sql, err := s.dispatcher.Dispatch(ctx, provider, prompt, temperature)
	if err != nil {
		observability.ObserveTranslation(string(providerName), string(llm.GetErrorType(err)))
		return nil, fmt.Errorf("translation failed: %w", err)
	}
	observability.ObserveTranslation(string(providerName), "success")

	if !diag.Empty() {
		s.logger.Info("Translation completed with skipped items",
			zap.String("request_id", requestID.String()),
			zap.Strings("skipped_tables", diag.SkippedTables),
			zap.Strings("skipped_sample_tables", diag.SkippedSampleTables),
			zap.Int("dropped_foreign_keys", diag.DroppedForeignKeys),
			zap.Int("invalid_history_turns", diag.InvalidHistoryTurns))
	}
	s.logger.Debug("Translation complete",
		zap.String("request_id", requestID.String()),
		zap.Duration("elapsed", time.Since(start)))

	return &TranslateResult{
		SQL:         sql,
		Prompt:      prompt,
		Provider:    providerName,
		Model:       provider.EffectiveModel(),
		CacheHit:    !entry.Fresh,
		Diagnostics: diag,
	}, nil
}

func (s *translationService) RefreshSchema(ctx context.Context, profile *models.ConnectionProfile) (*models.SchemaCacheEntry, schema.Diagnostics, error) {
	if profile == nil {
		return nil, schema.Diagnostics{}, fmt.Errorf("%w: connection profile is required", apperrors.ErrInvalidRequest)
	}

	if err := s.schemas.Invalidate(ctx, profile); err != nil {
		// The forced extraction below overwrites the entry anyway.
		s.logger.Warn("Failed to invalidate cached schema",
			zap.String("db_type", string(profile.Kind)),
			zap.Error(err))
	}

	entry, diag, err := s.schemas.Get(ctx, profile, true, false)
	if err != nil {
		return nil, diag, fmt.Errorf("failed to refresh schema: %w", err)
	}

	s.logger.Info("Schema refreshed",
		zap.String("db_type", string(profile.Kind)),
		zap.Int("tables", len(entry.Schema.Tables)))
	return entry, diag, nil
}

// Ensure translationService implements TranslationService at compile time.
var _ TranslationService = (*translationService)(nil)

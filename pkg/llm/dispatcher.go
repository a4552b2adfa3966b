package llm

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/nlsql/pkg/logging"
	"github.com/ekaya-inc/nlsql/pkg/models"
	"github.com/ekaya-inc/nlsql/pkg/observability"
)

// ProbePrompt is sent before every real prompt to check the backend.
const ProbePrompt = "Return ONLY the word 'success'"

const probeReply = "success"

// Dispatcher validates a provider, sends the prompt, and turns the reply
// into a single SQL string.
type Dispatcher struct {
	httpClient *http.Client
	newBackend BackendFactory
	logger     *zap.Logger
}

// NewDispatcher creates a dispatcher whose backends share httpClient.
func NewDispatcher(httpClient *http.Client, logger *zap.Logger) *Dispatcher {
	return NewDispatcherWithFactory(NewBackend, httpClient, logger)
}

// NewDispatcherWithFactory creates a dispatcher with a custom backend factory.
func NewDispatcherWithFactory(factory BackendFactory, httpClient *http.Client, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if factory == nil {
		factory = NewBackend
	}
	return &Dispatcher{
		httpClient: httpClient,
		newBackend: factory,
		logger:     logger.Named("dispatcher"),
	}
}

// Dispatch sends prompt to the provider in cfg and returns the SQL from its
// reply. A missing credential fails before any network traffic, and a failed
// probe means the prompt is never sent. Returned errors are *Error carrying
// the state the dispatch failed in.
func (d *Dispatcher) Dispatch(ctx context.Context, cfg *models.ProviderConfig, prompt string, temperature float64) (string, error) {
	var provider models.ProviderName
	if cfg != nil {
		provider = cfg.Provider
	}

	if !cfg.IsConfigured() {
		return "", d.fail(&Error{
			Type:     ErrorTypeConfig,
			State:    StateUnconfigured,
			Provider: provider,
			Message:  "no API key configured",
		})
	}

	backend, err := d.newBackend(cfg, d.httpClient, d.logger)
	if err != nil {
		return "", d.fail(classify(err, StateUnconfigured, provider, ErrorTypeConfig))
	}

	logger := d.logger.With(
		zap.String("provider", string(provider)),
		zap.String("model", cfg.EffectiveModel()),
	)

	logger.Debug("Validating provider")
	if err := d.probe(ctx, backend, provider); err != nil {
		return "", d.fail(err)
	}

	logger.Debug("Dispatching prompt", zap.Int("prompt_length", len(prompt)))
	start := time.Now()
	raw, err := backend.Complete(ctx, prompt, temperature)
	observability.ObserveProviderRequest(string(provider), "completion", time.Since(start))
	if err != nil {
		return "", d.fail(classify(err, StateDispatching, provider, ErrorTypeConnectivity))
	}

	sql := StripCodeFence(raw)
	if sql == "" {
		return "", d.fail(&Error{
			Type:     ErrorTypeParse,
			State:    StateParsingResponse,
			Provider: provider,
			Message:  "reply contained no SQL",
			Raw:      raw,
		})
	}

	logger.Debug("Dispatch complete",
		zap.String("state", string(StateDone)),
		zap.Duration("elapsed", time.Since(start)))
	return sql, nil
}

// probe fails with a connectivity error for anything but a reply containing
// the expected word. Unsupported and configuration errors keep their type.
func (d *Dispatcher) probe(ctx context.Context, backend Backend, provider models.ProviderName) *Error {
	start := time.Now()
	reply, err := backend.Complete(ctx, ProbePrompt, 0)
	observability.ObserveProviderRequest(string(provider), "probe", time.Since(start))

	if err != nil {
		llmErr := classify(err, StateValidating, provider, ErrorTypeConnectivity)
		if llmErr.Type == ErrorTypeParse {
			llmErr.Type = ErrorTypeConnectivity
		}
		return llmErr
	}
	if !strings.Contains(strings.ToLower(reply), probeReply) {
		return &Error{
			Type:     ErrorTypeConnectivity,
			State:    StateValidating,
			Provider: provider,
			Message:  "connectivity probe returned an unexpected reply",
			Raw:      reply,
		}
	}
	return nil
}

func (d *Dispatcher) fail(err *Error) *Error {
	d.logger.Warn("Provider dispatch failed",
		zap.String("provider", string(err.Provider)),
		zap.String("state", string(err.State)),
		zap.String("error_type", string(err.Type)),
		zap.Int("status_code", err.StatusCode),
		zap.String("error", logging.SanitizeError(err)))
	return err
}

// classify copies err into an *Error tagged with state. Errors that are not
// already classified get fallback.
func classify(err error, state State, provider models.ProviderName, fallback ErrorType) *Error {
	if existing, ok := AsError(err); ok {
		classified := *existing
		classified.State = state
		if classified.Provider == "" {
			classified.Provider = provider
		}
		return &classified
	}
	return &Error{
		Type:     fallback,
		State:    state,
		Provider: provider,
		Message:  "provider call failed",
		Cause:    err,
	}
}

package llm

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/nlsql/pkg/models"
)

// Backend sends one prompt to one provider and returns the reply text as-is.
type Backend interface {
	Name() models.ProviderName
	Complete(ctx context.Context, prompt string, temperature float64) (string, error)
}

// BackendFactory builds the backend for a provider config.
type BackendFactory func(cfg *models.ProviderConfig, httpClient *http.Client, logger *zap.Logger) (Backend, error)

// NewBackend selects the backend for cfg.Provider. Unknown providers are a
// configuration error.
func NewBackend(cfg *models.ProviderConfig, httpClient *http.Client, logger *zap.Logger) (Backend, error) {
	if cfg == nil {
		return nil, NewError(ErrorTypeConfig, "", "no provider configured", nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	switch cfg.Provider {
	case models.ProviderOpenAI:
		return NewOpenAIBackend(cfg, httpClient), nil
	case models.ProviderAnthropic:
		return NewAnthropicBackend(cfg, httpClient), nil
	case models.ProviderGemini:
		return NewGeminiBackend(cfg, httpClient, logger), nil
	case models.ProviderGrok:
		return &GrokBackend{}, nil
	default:
		return nil, NewError(ErrorTypeConfig, cfg.Provider, fmt.Sprintf("unknown provider %q", cfg.Provider), nil)
	}
}

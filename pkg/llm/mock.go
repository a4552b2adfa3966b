package llm

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/nlsql/pkg/models"
)

// MockBackend is a configurable Backend for tests.
// Set the function fields to control behavior in tests.
type MockBackend struct {
	// CompleteFunc is called for the real prompt.
	// If nil, returns "SELECT 1" and nil error.
	CompleteFunc func(ctx context.Context, prompt string, temperature float64) (string, error)

	// ProbeFunc is called for the connectivity probe.
	// If nil, returns "success" and nil error.
	ProbeFunc func(ctx context.Context) (string, error)

	// Provider is returned by Name. Defaults to openai.
	Provider models.ProviderName

	// Call tracking for verification
	ProbeCalls    int
	CompleteCalls int
	LastPrompt    string
}

// NewMockBackend creates a new mock with sensible defaults.
func NewMockBackend() *MockBackend {
	return &MockBackend{Provider: models.ProviderOpenAI}
}

// Name implements Backend.
func (m *MockBackend) Name() models.ProviderName {
	if m.Provider == "" {
		return models.ProviderOpenAI
	}
	return m.Provider
}

// Complete implements Backend.
func (m *MockBackend) Complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	if strings.HasPrefix(prompt, ProbePrompt) {
		m.ProbeCalls++
		if m.ProbeFunc != nil {
			return m.ProbeFunc(ctx)
		}
		return probeReply, nil
	}

	m.CompleteCalls++
	m.LastPrompt = prompt
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt, temperature)
	}
	return "SELECT 1", nil
}

// Factory returns a BackendFactory that always yields m.
func (m *MockBackend) Factory() BackendFactory {
	return func(*models.ProviderConfig, *http.Client, *zap.Logger) (Backend, error) {
		return m, nil
	}
}

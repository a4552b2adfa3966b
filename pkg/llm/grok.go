package llm

import (
	"context"

	"github.com/ekaya-inc/nlsql/pkg/models"
)

// GrokBackend is a placeholder: the provider name is accepted in
// configuration but every call fails as unsupported.
type GrokBackend struct{}

func (b *GrokBackend) Name() models.ProviderName {
	return models.ProviderGrok
}

func (b *GrokBackend) Complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	return "", NewError(ErrorTypeUnsupported, models.ProviderGrok, "grok backend is not implemented", nil)
}

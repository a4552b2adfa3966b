package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/ekaya-inc/nlsql/pkg/models"
)

const anthropicMaxTokens = 1024

// AnthropicBackend talks to the messages API.
type AnthropicBackend struct {
	client *anthropic.Client
	model  string
}

func NewAnthropicBackend(cfg *models.ProviderConfig, httpClient *http.Client) *AnthropicBackend {
	var opts []anthropic.ClientOption
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
	}
	if httpClient != nil {
		opts = append(opts, anthropic.WithHTTPClient(httpClient))
	}

	return &AnthropicBackend{
		client: anthropic.NewClient(cfg.APIKey, opts...),
		model:  cfg.EffectiveModel(),
	}
}

func (b *AnthropicBackend) Name() models.ProviderName {
	return models.ProviderAnthropic
}

func (b *AnthropicBackend) Complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	temp := float32(temperature)
	resp, err := b.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(b.model),
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropic.Message{
			{Role: anthropic.RoleUser, Content: []anthropic.MessageContent{
				{Type: "text", Text: &prompt},
			}},
		},
		Temperature: &temp,
	})
	if err != nil {
		llmErr := NewError(ErrorTypeConnectivity, models.ProviderAnthropic, "create message failed", err)
		var reqErr *anthropic.RequestError
		if errors.As(err, &reqErr) {
			llmErr.StatusCode = reqErr.StatusCode
		}
		return "", llmErr
	}

	var text strings.Builder
	found := false
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != nil {
			text.WriteString(*block.Text)
			found = true
		}
	}
	if !found {
		raw, _ := json.Marshal(resp)
		return "", shapeError(models.ProviderAnthropic, "response has no text content", string(raw))
	}
	return text.String(), nil
}

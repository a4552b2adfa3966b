package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"github.com/ekaya-inc/nlsql/pkg/models"
)

// OpenAIBackend talks to the chat completions API.
type OpenAIBackend struct {
	client *openai.Client
	model  string
}

func NewOpenAIBackend(cfg *models.ProviderConfig, httpClient *http.Client) *OpenAIBackend {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	if httpClient != nil {
		config.HTTPClient = httpClient
	}

	return &OpenAIBackend{
		client: openai.NewClientWithConfig(config),
		model:  cfg.EffectiveModel(),
	}
}

func (b *OpenAIBackend) Name() models.ProviderName {
	return models.ProviderOpenAI
}

func (b *OpenAIBackend) Complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: b.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: float32(temperature),
	})
	if err != nil {
		return "", openAIError(err)
	}

	if len(resp.Choices) == 0 {
		raw, _ := json.Marshal(resp)
		return "", shapeError(models.ProviderOpenAI, "response has no choices", string(raw))
	}
	return resp.Choices[0].Message.Content, nil
}

func openAIError(err error) error {
	llmErr := NewError(ErrorTypeConnectivity, models.ProviderOpenAI, "chat completion failed", err)

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		llmErr.StatusCode = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		llmErr.StatusCode = reqErr.HTTPStatusCode
	}
	return llmErr
}

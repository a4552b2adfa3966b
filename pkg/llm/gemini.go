package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/nlsql/pkg/logging"
	"github.com/ekaya-inc/nlsql/pkg/models"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	geminiAPIKeyHeader   = "x-goog-api-key"
	maxResponseBytes     = 1 << 20
)

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiGenerationConfig struct {
	Temperature float64 `json:"temperature"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// GeminiBackend calls the generateContent REST endpoint with a single
// user content.
type GeminiBackend struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
	logger     *zap.Logger
}

func NewGeminiBackend(cfg *models.ProviderConfig, httpClient *http.Client, logger *zap.Logger) *GeminiBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	return &GeminiBackend{
		httpClient: httpClient,
		apiKey:     cfg.APIKey,
		model:      cfg.EffectiveModel(),
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger.Named("gemini"),
	}
}

func (b *GeminiBackend) Name() models.ProviderName {
	return models.ProviderGemini
}

func (b *GeminiBackend) endpoint() string {
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent", b.baseURL, url.PathEscape(b.model))
}

func (b *GeminiBackend) Complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	body, err := json.Marshal(geminiRequest{
		Contents:         []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenerationConfig{Temperature: temperature},
	})
	if err != nil {
		return "", NewError(ErrorTypeUnknown, models.ProviderGemini, "failed to encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint(), bytes.NewReader(body))
	if err != nil {
		return "", NewError(ErrorTypeConfig, models.ProviderGemini, "invalid endpoint", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// Header rather than ?key= so the key never shows up in url.Error text.
	req.Header.Set(geminiAPIKeyHeader, b.apiKey)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", NewError(ErrorTypeConnectivity, models.ProviderGemini, "request failed", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", NewError(ErrorTypeConnectivity, models.ProviderGemini, "failed to read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b.logger.Debug("Non-success response",
			zap.Int("status", resp.StatusCode),
			zap.String("body", logging.TruncateString(logging.SanitizeText(string(payload)), 200)))
		return "", statusError(models.ProviderGemini, resp.StatusCode, string(payload))
	}

	var decoded geminiResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return "", shapeError(models.ProviderGemini, "response is not JSON", string(payload))
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", shapeError(models.ProviderGemini, "response has no candidates", string(payload))
	}
	return decoded.Candidates[0].Content.Parts[0].Text, nil
}

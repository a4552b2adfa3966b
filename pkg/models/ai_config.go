package models

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ProviderName identifies an AI backend. The set is closed.
type ProviderName string

const (
	ProviderGemini    ProviderName = "gemini"
	ProviderOpenAI    ProviderName = "openai"
	ProviderAnthropic ProviderName = "anthropic"
	ProviderGrok      ProviderName = "grok"
)

// AllProviders lists every known provider.
var AllProviders = []ProviderName{ProviderGemini, ProviderOpenAI, ProviderAnthropic, ProviderGrok}

var defaultModels = map[ProviderName]string{
	ProviderGemini:    "gemini-2.0-flash",
	ProviderOpenAI:    "gpt-4",
	ProviderAnthropic: "claude-3-opus",
	ProviderGrok:      "grok-1",
}

// ParseProviderName rejects anything outside the known provider set.
func ParseProviderName(s string) (ProviderName, error) {
	p := ProviderName(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := defaultModels[p]; !ok {
		return "", fmt.Errorf("unknown AI provider: %q (supported: gemini, openai, anthropic, grok)", s)
	}
	return p, nil
}

// DefaultModel returns the model used when a provider config leaves it blank.
func DefaultModel(p ProviderName) string {
	return defaultModels[p]
}

// UnmarshalText implements encoding.TextUnmarshaler (used for env values).
func (p *ProviderName) UnmarshalText(text []byte) error {
	parsed, err := ParseProviderName(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// SetValue implements cleanenv.Setter so env overrides are validated too.
func (p *ProviderName) SetValue(s string) error {
	return p.UnmarshalText([]byte(s))
}

// UnmarshalYAML rejects unknown providers while the config file is decoded.
func (p *ProviderName) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	return p.UnmarshalText([]byte(raw))
}

// ProviderConfig holds the credentials for one AI backend.
type ProviderConfig struct {
	Provider ProviderName `json:"name"`
	APIKey   string       `json:"api_key"`
	Model    string       `json:"model"`
	BaseURL  string       `json:"base_url,omitempty"` // Optional override (proxies, tests)
}

// IsConfigured is true when a credential is present.
func (c *ProviderConfig) IsConfigured() bool {
	return c != nil && strings.TrimSpace(c.APIKey) != ""
}

// EffectiveModel returns Model, falling back to the provider default.
func (c *ProviderConfig) EffectiveModel() string {
	if c.Model != "" {
		return c.Model
	}
	return DefaultModel(c.Provider)
}

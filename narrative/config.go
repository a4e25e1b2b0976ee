package narrative

import (
	"fmt"
	"strings"
	"time"
)

// Supported providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

// Config selects and parameterizes the text-generation service. Empty
// fields take the provider's defaults.
type Config struct {
	Provider    string        `mapstructure:"provider"`
	Endpoint    string        `mapstructure:"endpoint"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// DefaultTimeout bounds a single generation request.
const DefaultTimeout = 60 * time.Second

var providerDefaults = map[string]struct {
	endpoint string
	model    string
}{
	ProviderOpenAI: {"https://openrouter.ai/api/v1", "openrouter/free"},
	ProviderGemini: {"https://generativelanguage.googleapis.com/v1beta/models", "gemini-1.5-flash"},
	ProviderOllama: {"http://localhost:11434", "llama3"},
}

func (c Config) withDefaults() (Config, error) {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == "" {
		c.Provider = ProviderOpenAI
	}

	defaults, ok := providerDefaults[c.Provider]
	if !ok {
		return c, fmt.Errorf("unknown narrative provider %q (supported: openai, gemini, ollama)", c.Provider)
	}
	if c.Endpoint == "" {
		c.Endpoint = defaults.endpoint
	}
	c.Endpoint = strings.TrimRight(c.Endpoint, "/")
	if c.Model == "" {
		c.Model = defaults.model
	}
	if c.Temperature == 0 {
		c.Temperature = 0.3
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c, nil
}

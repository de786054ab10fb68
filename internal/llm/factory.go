package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/nyaya/internal/model"
	"go.uber.org/zap"
)

// defaultOllamaURL is Ollama's OpenAI-compatible endpoint
const defaultOllamaURL = "http://localhost:11434/v1"

// NewProvider creates a new LLM provider based on configuration.
// An empty provider name disables the LLM and returns nil.
func NewProvider(config Config, logger *zap.Logger) (Provider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch strings.ToLower(config.Provider) {
	case "openai":
		p, err := NewOpenAIProvider(config)
		if err != nil {
			return nil, err
		}
		p.logger = logger
		return p, nil

	case "ollama":
		if config.BaseURL == "" {
			config.BaseURL = defaultOllamaURL
		}
		if config.Model == "" {
			config.Model = "llama3.1"
		}
		p := newCompatibleProvider("ollama", config)
		p.logger = logger
		return p, nil

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, ollama)", config.Provider)
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(modelConfig model.LLMConfig) Config {
	return Config{
		Provider:       modelConfig.Provider,
		Model:          modelConfig.Model,
		APIKey:         modelConfig.APIKey,
		BaseURL:        modelConfig.BaseURL,
		Timeout:        modelConfig.Timeout,
		StrictEvidence: modelConfig.StrictEvidence,
		MaxTokens:      modelConfig.MaxTokens,
	}
}

package provider

import (
	"fmt"
	"strings"

	"github.com/mpetrov/draftgate/internal/model"
)

// NewGenerator creates a generation provider from configuration.
func NewGenerator(config Config) (Generator, error) {
	switch strings.ToLower(config.Generator) {
	case "openai":
		return NewOpenAIGenerator(config)

	case "static":
		return &Static{}, nil

	default:
		return nil, fmt.Errorf("unknown generator: %s (supported: openai, static)", config.Generator)
	}
}

// NewResearcher creates a research provider from configuration.
func NewResearcher(config Config) (Researcher, error) {
	switch strings.ToLower(config.Researcher) {
	case "http":
		return NewHTTPResearcher(config)

	case "static":
		return &Static{}, nil

	default:
		return nil, fmt.Errorf("unknown researcher: %s (supported: http, static)", config.Researcher)
	}
}

// ConfigFromModel converts model.ProviderConfig to provider.Config.
func ConfigFromModel(mc model.ProviderConfig) Config {
	return Config{
		Generator:    mc.Generator,
		Researcher:   mc.Researcher,
		Model:        mc.Model,
		APIKey:       mc.APIKey,
		BaseURL:      mc.BaseURL,
		SearchURL:    mc.SearchURL,
		SearchAPIKey: mc.SearchAPIKey,
		Timeout:      mc.Timeout(),
		Retries:      mc.Retries,
		MaxTokens:    mc.MaxTokens,
	}
}

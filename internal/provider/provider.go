package provider

import (
	"context"
	"time"
)

// Generator is the text-generation collaborator capability.
type Generator interface {
	// Name returns the provider name
	Name() string

	// Generate produces section text for the given request
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// Researcher is the web-research collaborator capability.
type Researcher interface {
	// Name returns the provider name
	Name() string

	// Search runs one research query. An empty result list is a valid,
	// non-error response.
	Search(ctx context.Context, req SearchRequest) ([]SearchResult, error)
}

// GenerateRequest carries the instructions, context, and constraints
// for one generation call.
type GenerateRequest struct {
	Instructions string   // What to write (section prompt plus correction context)
	Context      string   // Research findings available to the generator
	Constraints  []string // Style/length/citation rules
	MaxTokens    int
}

// GenerateResponse is the generation collaborator's reply.
type GenerateResponse struct {
	Text       string
	Model      string
	TokensUsed int
}

// SearchRequest is one query to the research collaborator.
type SearchRequest struct {
	Query          string
	Limit          int
	IncludeDomains []string
	ExcludeDomains []string
}

// SearchResult is one finding returned by the research collaborator.
type SearchResult struct {
	Title         string `json:"title"`
	URL           string `json:"url"`
	Publisher     string `json:"publisher,omitempty"`
	PublishedDate string `json:"published_date,omitempty"`
	Content       string `json:"content,omitempty"`
}

// Config holds provider construction settings.
type Config struct {
	// Generator name: "openai", "static"
	Generator string

	// Researcher name: "http", "static"
	Researcher string

	// Model name (generator-specific)
	Model string

	// APIKey for the generation backend
	APIKey string

	// BaseURL for custom generation endpoints
	BaseURL string

	// SearchURL is the research backend endpoint
	SearchURL string

	// SearchAPIKey authenticates research requests
	SearchAPIKey string

	// Timeout per collaborator call
	Timeout time.Duration

	// Retries is the attempt budget per call (including the first)
	Retries int

	// MaxTokens for generation
	MaxTokens int
}

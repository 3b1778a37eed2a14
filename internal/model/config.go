package model

import (
	"fmt"
	"time"
)

// Config is the full runtime configuration.
// Hierarchy (highest to lowest priority): CLI flags, DRAFTGATE_* env
// vars, ~/.draftgate/config.yaml, DefaultConfig.
type Config struct {
	Provider    ProviderConfig    `yaml:"provider" json:"provider"`
	Research    ResearchConfig    `yaml:"research" json:"research"`
	Verify      VerifyConfig      `yaml:"verify" json:"verify"`
	Revision    RevisionConfig    `yaml:"revision" json:"revision"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" json:"concurrency"`
	Output      OutputConfig      `yaml:"output" json:"output"`
}

// ProviderConfig configures the generation and research collaborators.
type ProviderConfig struct {
	Generator string `yaml:"generator" json:"generator"` // "openai", "static"
	Model     string `yaml:"model" json:"model"`
	APIKey    string `yaml:"api_key,omitempty" json:"-"`
	BaseURL   string `yaml:"base_url,omitempty" json:"base_url,omitempty"`

	Researcher     string `yaml:"researcher" json:"researcher"` // "http", "static"
	SearchURL      string `yaml:"search_url,omitempty" json:"search_url,omitempty"`
	SearchAPIKey   string `yaml:"search_api_key,omitempty" json:"-"`
	TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds"`
	Retries        int    `yaml:"retries" json:"retries"` // Attempts per collaborator call
	MaxTokens      int    `yaml:"max_tokens" json:"max_tokens"`
}

// Timeout returns the per-call timeout as a duration.
func (p ProviderConfig) Timeout() time.Duration {
	if p.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// ResearchConfig configures the research aggregator.
type ResearchConfig struct {
	ResultLimit     int      `yaml:"result_limit" json:"result_limit"` // Max results per query
	IncludeDomains  []string `yaml:"include_domains,omitempty" json:"include_domains,omitempty"`
	ExcludeDomains  []string `yaml:"exclude_domains,omitempty" json:"exclude_domains,omitempty"`
	EnrichTop       int      `yaml:"enrich_top" json:"enrich_top"` // Sources to enrich with page text (0 disables)
	MaxSnippetBytes int      `yaml:"max_snippet_bytes" json:"max_snippet_bytes"`
	CacheTTLMinutes int      `yaml:"cache_ttl_minutes" json:"cache_ttl_minutes"`
	CacheDir        string   `yaml:"cache_dir,omitempty" json:"cache_dir,omitempty"`
	UserAgent       string   `yaml:"user_agent" json:"user_agent"`
	RequestsPerSec  float64  `yaml:"requests_per_sec" json:"requests_per_sec"` // Per-host enrichment fetch rate
}

// VerifyConfig configures the claim verifier.
type VerifyConfig struct {
	AcceptThreshold float64 `yaml:"accept_threshold" json:"accept_threshold"`
}

// RevisionConfig bounds the rewrite loop.
type RevisionConfig struct {
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts"`
}

// ConcurrencyConfig sizes the section worker pool.
type ConcurrencyConfig struct {
	SectionWorkers int `yaml:"section_workers" json:"section_workers"`
}

// OutputConfig controls run artifacts.
type OutputConfig struct {
	Dir     string `yaml:"dir" json:"dir"` // Run directory root
	Verbose bool   `yaml:"verbose" json:"verbose"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			Generator:      "openai",
			Model:          "gpt-4o-mini",
			Researcher:     "http",
			TimeoutSeconds: 60,
			Retries:        3,
			MaxTokens:      1500,
		},
		Research: ResearchConfig{
			ResultLimit:     5,
			EnrichTop:       0,
			MaxSnippetBytes: 4000,
			CacheTTLMinutes: 60,
			UserAgent:       "Draftgate/0.1 (+https://github.com/mpetrov/draftgate)",
			RequestsPerSec:  1,
		},
		Verify: VerifyConfig{
			AcceptThreshold: 0.8,
		},
		Revision: RevisionConfig{
			MaxAttempts: 3,
		},
		Concurrency: ConcurrencyConfig{
			SectionWorkers: 4,
		},
		Output: OutputConfig{
			Dir: "./draftgate-runs",
		},
	}
}

// Validate checks configuration values before the run starts.
func (c *Config) Validate() error {
	if c.Verify.AcceptThreshold < 0 || c.Verify.AcceptThreshold > 1 {
		return &ConfigError{Field: "verify.accept_threshold", Detail: fmt.Sprintf("must be in [0,1], got %v", c.Verify.AcceptThreshold)}
	}
	if c.Revision.MaxAttempts < 1 {
		return &ConfigError{Field: "revision.max_attempts", Detail: "must be at least 1"}
	}
	if c.Provider.Retries < 1 {
		return &ConfigError{Field: "provider.retries", Detail: "must be at least 1"}
	}
	if c.Concurrency.SectionWorkers < 1 {
		return &ConfigError{Field: "concurrency.section_workers", Detail: "must be at least 1"}
	}
	if c.Research.ResultLimit < 1 {
		return &ConfigError{Field: "research.result_limit", Detail: "must be at least 1"}
	}
	return nil
}

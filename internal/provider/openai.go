package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIGenerator implements the Generator interface for OpenAI models
type OpenAIGenerator struct {
	client *openai.Client
	config Config
}

// NewOpenAIGenerator creates a new OpenAI generation provider
func NewOpenAIGenerator(config Config) (*OpenAIGenerator, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the provider name
func (p *OpenAIGenerator) Name() string {
	return "openai"
}

// Generate produces section text using the Chat Completions API.
// Rate limits, timeouts, server errors, and empty responses are
// retried with backoff; exhaustion surfaces a ProviderError.
func (p *OpenAIGenerator) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	model := p.config.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = 1500
	}

	timeout := p.config.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	var out *GenerateResponse
	err := withRetry(ctx, p.Name(), "generate", p.config.Retries, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		chatReq := openai.ChatCompletionRequest{
			Model: model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: buildSystemPrompt(req.Constraints),
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: buildUserPrompt(req),
				},
			},
			MaxTokens:   maxTokens,
			Temperature: 0.3, // Lower temperature for more focused, factual output
		}

		resp, err := p.client.CreateChatCompletion(callCtx, chatReq)
		if err != nil {
			return classifyOpenAIError(err)
		}
		if len(resp.Choices) == 0 {
			return Transient(fmt.Errorf("empty response from OpenAI"))
		}

		text := strings.TrimSpace(resp.Choices[0].Message.Content)
		if text == "" {
			return Transient(fmt.Errorf("blank generation from OpenAI"))
		}

		out = &GenerateResponse{
			Text:       text,
			Model:      model,
			TokensUsed: resp.Usage.TotalTokens,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// classifyOpenAIError marks retryable API failures as transient.
func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500 {
			return Transient(err)
		}
		return err
	}
	// Transport-level failures (timeouts, resets) are retryable
	return Transient(err)
}

func buildSystemPrompt(constraints []string) string {
	var b strings.Builder
	b.WriteString("You draft investment memo sections. Cite every factual figure with a [src:KEY] marker referencing the provided sources. Do not invent sources.")
	for _, c := range constraints {
		b.WriteString("\n- ")
		b.WriteString(c)
	}
	return b.String()
}

func buildUserPrompt(req GenerateRequest) string {
	var b strings.Builder
	b.WriteString(req.Instructions)
	if req.Context != "" {
		b.WriteString("\n\nAvailable sources:\n")
		b.WriteString(req.Context)
	}
	return b.String()
}

package provider

import (
	"context"
	"strings"
	"sync"
)

// Static implements both collaborator capabilities deterministically,
// for tests and dry runs. Generation replies come from GenerateFunc or
// a fixed queue; search replies come from a query->results map matched
// by substring.
type Static struct {
	mu sync.Mutex

	// GenerateFunc, when set, handles every generation call.
	GenerateFunc func(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)

	// Texts is a queue of canned generations consumed in order when
	// GenerateFunc is nil. The last entry repeats once the queue drains.
	Texts []string

	// Results maps query substrings to canned findings. Queries that
	// match nothing get an empty result list.
	Results map[string][]SearchResult

	generateCalls int
	searchCalls   int
}

// Name returns the provider name
func (p *Static) Name() string {
	return "static"
}

// Generate returns the next canned generation.
func (p *Static) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if p.GenerateFunc != nil {
		p.mu.Lock()
		p.generateCalls++
		p.mu.Unlock()
		return p.GenerateFunc(ctx, req)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.generateCalls++

	if len(p.Texts) == 0 {
		return &GenerateResponse{Text: "No content.", Model: "static"}, nil
	}
	idx := p.generateCalls - 1
	if idx >= len(p.Texts) {
		idx = len(p.Texts) - 1
	}
	return &GenerateResponse{Text: p.Texts[idx], Model: "static"}, nil
}

// Search returns canned findings for queries matching a configured
// substring, and an explicit empty list otherwise.
func (p *Static) Search(ctx context.Context, req SearchRequest) ([]SearchResult, error) {
	p.mu.Lock()
	p.searchCalls++
	p.mu.Unlock()

	for key, results := range p.Results {
		if strings.Contains(strings.ToLower(req.Query), strings.ToLower(key)) {
			if req.Limit > 0 && len(results) > req.Limit {
				return results[:req.Limit], nil
			}
			return results, nil
		}
	}
	return []SearchResult{}, nil
}

// GenerateCalls reports how many generation calls were made.
func (p *Static) GenerateCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generateCalls
}

// SearchCalls reports how many search calls were made.
func (p *Static) SearchCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.searchCalls
}

package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mpetrov/draftgate/internal/cache"
	"github.com/mpetrov/draftgate/internal/cite"
	"github.com/mpetrov/draftgate/internal/extract"
	"github.com/mpetrov/draftgate/internal/model"
	"github.com/mpetrov/draftgate/internal/provider"
	"github.com/mpetrov/draftgate/internal/research"
	"github.com/mpetrov/draftgate/internal/revise"
	"github.com/mpetrov/draftgate/internal/verify"
	"github.com/mpetrov/draftgate/internal/worker"
)

// Pipeline is the top-level orchestrator: it owns the run state, fans
// sections out onto the worker pool, and is the only component that
// advances a section's top-level status.
type Pipeline struct {
	config     *model.Config
	aggregator *research.Aggregator
	ledger     *cite.Ledger
	controller *revise.Controller
	store      *Store

	mu     sync.Mutex
	state  *RunState
	drafts map[string]*model.Draft
}

// New creates a pipeline with the given collaborators.
func New(cfg *model.Config, gen provider.Generator, researcher provider.Researcher) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ttl := time.Duration(cfg.Research.CacheTTLMinutes) * time.Minute
	var queryCache cache.Cache
	if cfg.Research.CacheDir != "" {
		queryCache = cache.NewLayeredCache(ttl, cfg.Research.CacheDir, ttl)
	} else {
		queryCache = cache.NewMemoryCache(ttl, 10*time.Minute)
	}

	p := &Pipeline{
		config:     cfg,
		aggregator: research.NewAggregator(researcher, queryCache, cfg.Research),
		ledger:     cite.NewLedger(),
		drafts:     make(map[string]*model.Draft),
	}

	p.controller = revise.NewController(
		gen,
		cite.NewNormalizer(p.ledger),
		extract.NewExtractor(),
		verify.NewVerifier(cfg.Verify.AcceptThreshold),
		p.ledger,
		cfg.Revision.MaxAttempts,
		cfg.Provider.MaxTokens,
		p.appendAudit,
		p.setSectionStatus,
	)

	return p, nil
}

// Summary is the run-level result surfaced to the caller.
type Summary struct {
	RunID          string
	RunDir         string
	DocumentPath   string
	Sections       []SectionState
	NeedsAttention []string
}

// Run executes a full document run. Only SchemaError and ConfigError
// fail the run; provider failures and exhausted sections are reported
// in the summary and assembly completes with whatever mix of passed and
// exhausted sections exists.
func (p *Pipeline) Run(ctx context.Context, outline *model.Outline, outlinePath string) (*Summary, error) {
	if err := outline.Validate(); err != nil {
		return nil, err
	}

	state := NewRunState(outline, outlinePath)
	store, err := NewStore(filepath.Join(p.config.Output.Dir, state.RunID))
	if err != nil {
		return nil, err
	}
	p.store = store
	p.state = state

	if err := p.transition(StageInitialized); err != nil {
		return nil, err
	}

	return p.execute(ctx, outline, outline.Sections)
}

// Resume continues an archived run from its checkpoint. Sections that
// already passed keep their drafts; every other section re-enters the
// revision loop.
func (p *Pipeline) Resume(ctx context.Context, runDir string) (*Summary, error) {
	state, err := LoadState(runDir)
	if err != nil {
		return nil, err
	}

	outline, err := model.LoadOutline(state.OutlinePath)
	if err != nil {
		return nil, err
	}

	store, err := NewStore(runDir)
	if err != nil {
		return nil, err
	}
	p.store = store
	p.state = state
	state.Archived = false

	if err := p.ledger.Restore(state.Citations); err != nil {
		return nil, err
	}

	var pending []model.SectionDef
	for _, def := range outline.Sections {
		sec, ok := state.Sections[def.Name]
		if !ok {
			return nil, &model.SchemaError{Stage: "checkpoint", Detail: fmt.Sprintf("section %q missing from checkpoint", def.Name)}
		}
		if sec.Status == model.StatusPassed {
			var draft model.Draft
			if err := store.LoadArtifact(def.Name, "draft", &draft); err != nil {
				return nil, &model.SchemaError{Stage: "checkpoint", Detail: fmt.Sprintf("passed section %q has no draft artifact: %v", def.Name, err)}
			}
			p.drafts[def.Name] = &draft
			continue
		}
		sec.Status = model.StatusPending
		sec.Error = ""
		pending = append(pending, def)
	}

	return p.execute(ctx, outline, pending)
}

// execute runs the per-section fan-out, then assembly.
func (p *Pipeline) execute(ctx context.Context, outline *model.Outline, sections []model.SectionDef) (*Summary, error) {
	if err := p.transition(StagePerSection); err != nil {
		return nil, err
	}

	pool := worker.NewPool(ctx, p.config.Concurrency.SectionWorkers)
	pool.Start()
	for _, def := range sections {
		pool.Submit(&sectionJob{pipeline: p, section: def})
	}
	results := pool.Wait()

	if err := ctx.Err(); err != nil {
		// Leave the checkpoint as is: a cancelled run stays resumable.
		return nil, err
	}

	// Schema and config errors escalate to run failure; everything else
	// stays section-local.
	for _, r := range results {
		err := r.GetError()
		if err == nil {
			continue
		}
		if model.IsSchemaError(err) || model.IsConfigError(err) {
			p.failRun()
			return nil, err
		}
	}

	if err := p.transition(StageAssembling); err != nil {
		return nil, err
	}

	doc := p.assemble(outline)
	docPath, err := p.store.WriteDocument(doc)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.state.Archived = true
	p.mu.Unlock()
	if err := p.transition(StageFinalized); err != nil {
		return nil, err
	}

	return p.summary(docPath), nil
}

// sectionJob runs one section's sub-state-machine on the pool.
type sectionJob struct {
	pipeline *Pipeline
	section  model.SectionDef
}

type sectionResult struct {
	section string
	err     error
}

func (r *sectionResult) GetError() error { return r.err }

func (j *sectionJob) Execute(ctx context.Context) worker.Result {
	err := j.pipeline.runSection(ctx, j.section)
	return &sectionResult{section: j.section.Name, err: err}
}

// runSection drives one section: research, then the bounded revision
// loop, persisting artifacts along the way.
func (p *Pipeline) runSection(ctx context.Context, def model.SectionDef) error {
	record, err := p.loadOrGatherResearch(ctx, def)
	if err != nil {
		p.markSectionError(def.Name, err)
		return err
	}

	draft, err := p.controller.ProcessSection(ctx, def, record)
	if err != nil {
		p.markSectionError(def.Name, err)
		return err
	}

	if err := p.store.SaveArtifact(def.Name, "draft", draft); err != nil {
		return err
	}
	if draft.Report != nil {
		if err := p.store.SaveArtifact(def.Name, "claims", draft.Report); err != nil {
			return err
		}
	}

	p.mu.Lock()
	p.drafts[def.Name] = draft
	sec := p.state.Sections[def.Name]
	sec.Attempts = draft.Attempt
	if draft.Report != nil {
		sec.Score = draft.Report.Score
		sec.Flagged = draft.Report.FlaggedCount
	}
	p.mu.Unlock()

	return nil
}

// loadOrGatherResearch reuses a checkpointed research record when one
// exists, so a resumed run reads back exactly what was written.
func (p *Pipeline) loadOrGatherResearch(ctx context.Context, def model.SectionDef) (*model.ResearchRecord, error) {
	var record model.ResearchRecord
	if err := p.store.LoadArtifact(def.Name, "research", &record); err == nil {
		return &record, nil
	} else if model.IsSchemaError(err) {
		return nil, err
	}

	fresh, err := p.aggregator.Gather(ctx, def)
	if err != nil {
		return nil, err
	}
	if err := p.store.SaveArtifact(def.Name, "research", fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

// setSectionStatus is the single writer for section status fields. It
// checkpoints after every transition.
func (p *Pipeline) setSectionStatus(section string, status model.SectionStatus, attempt int) {
	p.mu.Lock()
	if sec, ok := p.state.Sections[section]; ok {
		sec.Status = status
		sec.Attempts = attempt
	}
	p.checkpointLocked()
	p.mu.Unlock()

	if p.config.Output.Verbose {
		fmt.Fprintf(os.Stderr, "  [%s] %s (attempt %d)\n", section, status, attempt)
	}
}

func (p *Pipeline) markSectionError(section string, err error) {
	p.mu.Lock()
	if sec, ok := p.state.Sections[section]; ok {
		sec.Status = model.StatusFailed
		sec.Error = err.Error()
	}
	p.state.Audit = append(p.state.Audit, model.AuditEntry{
		Time:    time.Now().UTC(),
		Section: section,
		Stage:   "error",
		Message: err.Error(),
	})
	p.checkpointLocked()
	p.mu.Unlock()
}

func (p *Pipeline) appendAudit(entry model.AuditEntry) {
	entry.Time = time.Now().UTC()
	p.mu.Lock()
	p.state.Audit = append(p.state.Audit, entry)
	p.mu.Unlock()

	if p.config.Output.Verbose && entry.Message != "" {
		fmt.Fprintf(os.Stderr, "  [%s] %s: %s\n", entry.Section, entry.Stage, entry.Message)
	}
}

// transition advances the run stage and checkpoints.
func (p *Pipeline) transition(stage RunStage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.Stage = stage
	return p.checkpointLocked()
}

func (p *Pipeline) failRun() {
	p.mu.Lock()
	p.state.Stage = StageFailed
	_ = p.checkpointLocked()
	p.mu.Unlock()
}

// checkpointLocked persists the run state; callers hold p.mu. The
// citation snapshot rides along so a resumed run can restore the
// ledger.
func (p *Pipeline) checkpointLocked() error {
	p.state.Citations = p.ledger.Citations()
	p.state.UpdatedAt = time.Now().UTC()
	return p.store.SaveState(p.state)
}

func (p *Pipeline) summary(docPath string) *Summary {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := &Summary{
		RunID:          p.state.RunID,
		RunDir:         p.store.Dir(),
		DocumentPath:   docPath,
		NeedsAttention: p.state.NeedsAttention(),
	}
	for _, name := range p.state.SectionOrder {
		s.Sections = append(s.Sections, *p.state.Sections[name])
	}
	return s
}

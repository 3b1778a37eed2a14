package pipeline

import (
	"fmt"
	"time"

	"github.com/mpetrov/draftgate/internal/model"
)

// RunStage is the orchestrator's top-level state
type RunStage string

const (
	StageInitialized RunStage = "initialized"
	StagePerSection  RunStage = "per_section_processing"
	StageAssembling  RunStage = "assembling"
	StageFinalized   RunStage = "finalized"
	StageFailed      RunStage = "failed"
)

// SectionState is the orchestrator's view of one section. Only the
// orchestrator writes these fields.
type SectionState struct {
	Name     string              `json:"name"`
	Status   model.SectionStatus `json:"status"`
	Attempts int                 `json:"attempts"`
	Score    float64             `json:"score"`
	Flagged  int                 `json:"flagged"`
	Error    string              `json:"error,omitempty"`
}

// RunState is the process-scoped pipeline state, checkpointed after
// every stage transition and archived (not destroyed) at completion so
// a failed run can resume.
type RunState struct {
	RunID        string                   `json:"run_id"`
	Title        string                   `json:"title"`
	OutlinePath  string                   `json:"outline_path"`
	CreatedAt    time.Time                `json:"created_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
	Stage        RunStage                 `json:"stage"`
	SectionOrder []string                 `json:"section_order"`
	Sections     map[string]*SectionState `json:"sections"`
	Citations    []model.Citation         `json:"citations"`
	Audit        []model.AuditEntry       `json:"audit"`
	Archived     bool                     `json:"archived"`
}

// NewRunState creates the initial state for a document run.
func NewRunState(outline *model.Outline, outlinePath string) *RunState {
	now := time.Now().UTC()
	state := &RunState{
		RunID:       fmt.Sprintf("run-%s", now.Format("20060102-150405")),
		Title:       outline.Title,
		OutlinePath: outlinePath,
		CreatedAt:   now,
		UpdatedAt:   now,
		Stage:       StageInitialized,
		Sections:    make(map[string]*SectionState, len(outline.Sections)),
	}
	for _, s := range outline.Sections {
		state.SectionOrder = append(state.SectionOrder, s.Name)
		state.Sections[s.Name] = &SectionState{Name: s.Name, Status: model.StatusPending}
	}
	return state
}

// AllTerminal reports whether every section reached a terminal status,
// the gate for entering assembly.
func (s *RunState) AllTerminal() bool {
	for _, sec := range s.Sections {
		if !sec.Status.Terminal() {
			return false
		}
	}
	return true
}

// NeedsAttention lists sections requiring manual review, in document
// order.
func (s *RunState) NeedsAttention() []string {
	var out []string
	for _, name := range s.SectionOrder {
		if sec := s.Sections[name]; sec != nil && sec.Status != model.StatusPassed {
			out = append(out, name)
		}
	}
	return out
}

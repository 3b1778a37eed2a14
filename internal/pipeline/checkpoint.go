package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mpetrov/draftgate/internal/model"
)

const stateFile = "state.json"

// Store persists run checkpoints and per-section artifacts under the
// run directory. Writes are atomic (temp file + rename) so a crashed
// run never leaves a half-written checkpoint, and a resumed run reads
// back exactly what was written.
type Store struct {
	dir string
}

// NewStore creates a checkpoint store rooted at dir.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create run dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the run directory.
func (s *Store) Dir() string { return s.dir }

// SaveState checkpoints the run state.
func (s *Store) SaveState(state *RunState) error {
	return s.writeJSON(filepath.Join(s.dir, stateFile), state)
}

// LoadState reads a checkpointed run state back.
func LoadState(dir string) (*RunState, error) {
	data, err := os.ReadFile(filepath.Join(dir, stateFile))
	if err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}

	var state RunState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, &model.SchemaError{Stage: "checkpoint", Detail: fmt.Sprintf("malformed state.json: %v", err)}
	}
	if state.RunID == "" || state.Sections == nil {
		return nil, &model.SchemaError{Stage: "checkpoint", Detail: "state.json is missing run id or sections"}
	}
	return &state, nil
}

// SaveArtifact persists one per-section artifact (research record,
// draft, claim report) as JSON.
func (s *Store) SaveArtifact(section, name string, v interface{}) error {
	dir := filepath.Join(s.dir, "sections", section)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create section dir: %w", err)
	}
	return s.writeJSON(filepath.Join(dir, name+".json"), v)
}

// LoadArtifact reads a per-section artifact back into out. Missing
// artifacts return os.ErrNotExist.
func (s *Store) LoadArtifact(section, name string, out interface{}) error {
	data, err := os.ReadFile(filepath.Join(s.dir, "sections", section, name+".json"))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &model.SchemaError{Stage: "checkpoint", Detail: fmt.Sprintf("malformed artifact %s/%s: %v", section, name, err)}
	}
	return nil
}

// WriteDocument writes the assembled document.
func (s *Store) WriteDocument(content string) (string, error) {
	path := filepath.Join(s.dir, "document.md")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("write document: %w", err)
	}
	return path, nil
}

func (s *Store) writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("commit checkpoint: %w", err)
	}
	return nil
}

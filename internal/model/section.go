package model

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SectionDef is the immutable definition of one document section,
// loaded once from the outline and read-only to the pipeline.
type SectionDef struct {
	Name             string   `yaml:"name" json:"name"`
	Title            string   `yaml:"title" json:"title"`
	MinWords         int      `yaml:"min_words" json:"min_words"`
	MaxWords         int      `yaml:"max_words" json:"max_words"`
	GuidingQuestions []string `yaml:"guiding_questions" json:"guiding_questions"`
	StyleNotes       []string `yaml:"style_notes,omitempty" json:"style_notes,omitempty"`
}

// Outline is the full document definition.
type Outline struct {
	Title    string       `yaml:"title" json:"title"`
	Subject  string       `yaml:"subject" json:"subject"`
	Sections []SectionDef `yaml:"sections" json:"sections"`
}

// LoadOutline reads and validates an outline file. Any structural
// problem is a ConfigError so the run fails before collaborator calls
// are made.
func LoadOutline(path string) (*Outline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Field: "outline", Detail: fmt.Sprintf("read %s: %v", path, err)}
	}

	var outline Outline
	if err := yaml.Unmarshal(data, &outline); err != nil {
		return nil, &ConfigError{Field: "outline", Detail: fmt.Sprintf("parse %s: %v", path, err)}
	}

	if err := outline.Validate(); err != nil {
		return nil, err
	}
	return &outline, nil
}

// Validate checks the outline for structural errors.
func (o *Outline) Validate() error {
	if o.Title == "" {
		return &ConfigError{Field: "outline.title", Detail: "document title is required"}
	}
	if len(o.Sections) == 0 {
		return &ConfigError{Field: "outline.sections", Detail: "at least one section is required"}
	}

	seen := make(map[string]bool)
	for i, s := range o.Sections {
		if s.Name == "" {
			return &ConfigError{Field: "outline.sections", Detail: fmt.Sprintf("section %d has no name", i)}
		}
		if seen[s.Name] {
			return &ConfigError{Field: "outline.sections", Detail: fmt.Sprintf("duplicate section name %q", s.Name)}
		}
		seen[s.Name] = true
		if s.MinWords < 0 || (s.MaxWords > 0 && s.MaxWords < s.MinWords) {
			return &ConfigError{Field: "outline.sections", Detail: fmt.Sprintf("section %q has invalid length bounds", s.Name)}
		}
		if len(s.GuidingQuestions) == 0 {
			return &ConfigError{Field: "outline.sections", Detail: fmt.Sprintf("section %q has no guiding questions", s.Name)}
		}
	}
	return nil
}

package wizard

import (
	_ "embed"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

var catalog = mustLoadCatalog(catalogYAML)

// Step describes one field-collection screen: the field it edits, what the
// dashboard shows for it and which widget edits its value.
type Step struct {
	Field       Field      `yaml:"field" json:"field"`
	Title       string     `yaml:"title" json:"title"`
	Description string     `yaml:"description" json:"description"`
	Icon        string     `yaml:"icon" json:"icon"`
	Widget      WidgetKind `yaml:"widget" json:"widget"`
	Options     []string   `yaml:"options,omitempty" json:"options,omitempty"`
	Min         float64    `yaml:"min,omitempty" json:"min,omitempty"`
	Max         float64    `yaml:"max,omitempty" json:"max,omitempty"`
	Integer     bool       `yaml:"integer,omitempty" json:"integer,omitempty"`
	Unit        string     `yaml:"unit,omitempty" json:"unit,omitempty"`
}

func (s Step) clone() Step {
	s.Options = slices.Clone(s.Options)
	return s
}

// AllSteps returns the full field catalog in presentation order. Callers get
// their own copy.
func AllSteps() []Step {
	steps := make([]Step, len(catalog))
	for i, step := range catalog {
		steps[i] = step.clone()
	}
	return steps
}

func StepFor(field Field) (Step, bool) {
	for _, step := range catalog {
		if step.Field == field {
			return step.clone(), true
		}
	}
	return Step{}, false
}

func loadCatalog(data []byte) ([]Step, error) {
	var doc struct {
		Steps []Step `yaml:"steps"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(doc.Steps) == 0 {
		return nil, fmt.Errorf("catalog has no steps")
	}

	seen := make(map[Field]struct{}, len(doc.Steps))
	for i, step := range doc.Steps {
		if step.Field == "" {
			return nil, fmt.Errorf("catalog step %d: field is required", i)
		}
		if _, dup := seen[step.Field]; dup {
			return nil, fmt.Errorf("catalog step %d: duplicate field %q", i, step.Field)
		}
		seen[step.Field] = struct{}{}

		if !step.Widget.valid() {
			return nil, fmt.Errorf("catalog step %q: unknown widget %q", step.Field, step.Widget)
		}
		if step.Widget == WidgetSingleSelect && len(step.Options) == 0 {
			return nil, fmt.Errorf("catalog step %q: single-select needs options", step.Field)
		}
		if step.Max > 0 && step.Min > step.Max {
			return nil, fmt.Errorf("catalog step %q: min %v exceeds max %v", step.Field, step.Min, step.Max)
		}
	}
	return doc.Steps, nil
}

func mustLoadCatalog(data []byte) []Step {
	steps, err := loadCatalog(data)
	if err != nil {
		panic("wizard: " + err.Error())
	}
	return steps
}

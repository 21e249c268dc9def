package workflowdef

import (
	"fmt"
	"sort"
	"strings"

	"flowstate/internal/services"
)

// Definition declares a versioned workflow graph of stages and transitions.
// Definitions are immutable once a session references them; the catalog hands
// out deep copies so callers cannot mutate shared state.
type Definition struct {
	ID          string       `yaml:"id"`
	Name        string       `yaml:"name"`
	Description string       `yaml:"description,omitempty"`
	Version     int          `yaml:"version"`
	Stages      []Stage      `yaml:"stages"`
	Transitions []Transition `yaml:"transitions,omitempty"`
}

// Stage is a named step within a workflow. Order is a hint used only for
// default first-stage selection; sequencing is governed by transitions.
type Stage struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description,omitempty"`
	Order        int      `yaml:"order"`
	Checklist    []string `yaml:"checklist,omitempty"`
	Deliverables []string `yaml:"deliverables,omitempty"`
}

// Transition is a directed, conditional edge between two stages. Condition
// names an opaque predicate resolved at evaluation time; an empty condition
// always matches.
type Transition struct {
	From      string `yaml:"from"`
	To        string `yaml:"to"`
	Condition string `yaml:"condition,omitempty"`
}

// Clone returns a deep copy of the definition.
func (d Definition) Clone() Definition {
	clone := d
	if len(d.Stages) > 0 {
		clone.Stages = make([]Stage, len(d.Stages))
		for i, stage := range d.Stages {
			clone.Stages[i] = stage.clone()
		}
	}
	if len(d.Transitions) > 0 {
		clone.Transitions = make([]Transition, len(d.Transitions))
		copy(clone.Transitions, d.Transitions)
	}
	return clone
}

func (s Stage) clone() Stage {
	clone := s
	if len(s.Checklist) > 0 {
		clone.Checklist = append([]string{}, s.Checklist...)
	}
	if len(s.Deliverables) > 0 {
		clone.Deliverables = append([]string{}, s.Deliverables...)
	}
	return clone
}

// Validate ensures the definition is self-consistent.
func (d Definition) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("workflow: id is required")
	}
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("workflow %s: name is required", d.ID)
	}
	seen := make(map[string]struct{}, len(d.Stages))
	for idx, stage := range d.Stages {
		if strings.TrimSpace(stage.ID) == "" {
			return fmt.Errorf("workflow %s stage[%d]: id is required", d.ID, idx)
		}
		if _, exists := seen[stage.ID]; exists {
			return fmt.Errorf("workflow %s: duplicate stage id %s", d.ID, stage.ID)
		}
		seen[stage.ID] = struct{}{}
	}
	edges := make(map[string]struct{}, len(d.Transitions))
	for idx, tr := range d.Transitions {
		if _, ok := seen[tr.From]; !ok {
			return fmt.Errorf("workflow %s transition[%d]: unknown from_stage %s", d.ID, idx, tr.From)
		}
		if _, ok := seen[tr.To]; !ok {
			return fmt.Errorf("workflow %s transition[%d]: unknown to_stage %s", d.ID, idx, tr.To)
		}
		key := tr.From + "\x00" + tr.To + "\x00" + tr.Condition
		if _, dup := edges[key]; dup {
			return fmt.Errorf("workflow %s: duplicate transition %s -> %s (%s)", d.ID, tr.From, tr.To, tr.Condition)
		}
		edges[key] = struct{}{}
	}
	return nil
}

// StageByID returns the stage with the given id.
func (d Definition) StageByID(stageID string) (Stage, bool) {
	for _, stage := range d.Stages {
		if stage.ID == stageID {
			return stage, true
		}
	}
	return Stage{}, false
}

// HasStage reports whether the workflow declares the given stage id.
func (d Definition) HasStage(stageID string) bool {
	_, ok := d.StageByID(stageID)
	return ok
}

// StageIDs returns the declared stage ids in declaration order.
func (d Definition) StageIDs() []string {
	ids := make([]string, 0, len(d.Stages))
	for _, stage := range d.Stages {
		ids = append(ids, stage.ID)
	}
	return ids
}

// FirstStage returns the stage with the lowest order value. Declaration order
// breaks ties. The second return is false for workflows with no stages.
func (d Definition) FirstStage() (Stage, bool) {
	if len(d.Stages) == 0 {
		return Stage{}, false
	}
	first := d.Stages[0]
	for _, stage := range d.Stages[1:] {
		if stage.Order < first.Order {
			first = stage
		}
	}
	return first, true
}

// TransitionsFrom returns the outgoing transitions of a stage in declaration
// order, which is the tie-break when several conditions hold.
func (d Definition) TransitionsFrom(stageID string) []Transition {
	var out []Transition
	for _, tr := range d.Transitions {
		if tr.From == stageID {
			out = append(out, tr)
		}
	}
	return out
}

// MissingStages returns the declared stage ids absent from the completed set,
// sorted for stable error messages.
func (d Definition) MissingStages(completed []string) []string {
	done := make(map[string]struct{}, len(completed))
	for _, id := range completed {
		done[id] = struct{}{}
	}
	var missing []string
	for _, stage := range d.Stages {
		if _, ok := done[stage.ID]; !ok {
			missing = append(missing, stage.ID)
		}
	}
	sort.Strings(missing)
	return missing
}

// NotFoundError builds the lookup failure for an unknown workflow id.
func NotFoundError(workflowID string) error {
	return services.Wrap(services.ErrNotFound, "workflow", "lookup", fmt.Sprintf("unknown workflow %q", workflowID), nil)
}

package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"flowstate/internal/config"
	"flowstate/internal/workflowdef"
)

// SeedWorkflow writes a workflow definition YAML document into the config's
// workflows directory so catalog loading picks it up.
func SeedWorkflow(t testing.TB, cfg *config.Config, filename, document string) {
	t.Helper()

	if err := os.MkdirAll(cfg.Paths.WorkflowsDir, 0o755); err != nil {
		t.Fatalf("mkdir workflows dir: %v", err)
	}
	target := filepath.Join(cfg.Paths.WorkflowsDir, filename)
	if err := os.WriteFile(target, []byte(document), 0o644); err != nil {
		t.Fatalf("write workflow %s: %v", filename, err)
	}
}

// ThreeStageYAML is the catalog document form of ThreeStageDefinition.
const ThreeStageYAML = `id: feature-delivery
name: Feature Delivery
version: 1
stages:
  - id: design
    name: Design
    order: 1
  - id: implement
    name: Implement
    order: 2
  - id: review
    name: Review
    order: 3
transitions:
  - from: design
    to: implement
  - from: implement
    to: review
`

// BranchingYAML declares a workflow whose triage stage forks on the
// "needs_rework" context key.
const BranchingYAML = `id: bugfix
name: Bugfix
version: 2
stages:
  - id: triage
    name: Triage
    order: 1
  - id: rework
    name: Rework
    order: 2
  - id: verify
    name: Verify
    order: 3
transitions:
  - from: triage
    to: rework
    condition: needs_rework
  - from: triage
    to: verify
  - from: rework
    to: verify
`

// ThreeStageDefinition returns a linear design -> implement -> review
// workflow used across engine and progress tests.
func ThreeStageDefinition() *workflowdef.Definition {
	return &workflowdef.Definition{
		ID:      "feature-delivery",
		Name:    "Feature Delivery",
		Version: 1,
		Stages: []workflowdef.Stage{
			{ID: "design", Name: "Design", Order: 1},
			{ID: "implement", Name: "Implement", Order: 2},
			{ID: "review", Name: "Review", Order: 3},
		},
		Transitions: []workflowdef.Transition{
			{From: "design", To: "implement"},
			{From: "implement", To: "review"},
		},
	}
}

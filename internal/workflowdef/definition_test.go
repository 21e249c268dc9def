package workflowdef_test

import (
	"strings"
	"testing"

	"flowstate/internal/workflowdef"
)

func sampleDefinition() workflowdef.Definition {
	return workflowdef.Definition{
		ID:      "feature",
		Name:    "Feature Delivery",
		Version: 1,
		Stages: []workflowdef.Stage{
			{ID: "design", Name: "Design", Order: 1, Checklist: []string{"write proposal"}},
			{ID: "build", Name: "Build", Order: 2},
			{ID: "review", Name: "Review", Order: 3},
		},
		Transitions: []workflowdef.Transition{
			{From: "design", To: "build"},
			{From: "build", To: "review"},
		},
	}
}

func TestValidateAcceptsWellFormed(t *testing.T) {
	if err := sampleDefinition().Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func TestValidateRejectsDuplicateStage(t *testing.T) {
	def := sampleDefinition()
	def.Stages = append(def.Stages, workflowdef.Stage{ID: "design", Name: "Again", Order: 9})
	err := def.Validate()
	if err == nil || !strings.Contains(err.Error(), "duplicate stage id design") {
		t.Fatalf("expected duplicate stage error, got %v", err)
	}
}

func TestValidateRejectsUnknownTransitionEndpoint(t *testing.T) {
	def := sampleDefinition()
	def.Transitions = append(def.Transitions, workflowdef.Transition{From: "review", To: "ship"})
	err := def.Validate()
	if err == nil || !strings.Contains(err.Error(), "unknown to_stage ship") {
		t.Fatalf("expected unknown stage error, got %v", err)
	}
}

func TestFirstStagePrefersLowestOrder(t *testing.T) {
	def := sampleDefinition()
	def.Stages[0].Order = 5
	first, ok := def.FirstStage()
	if !ok || first.ID != "build" {
		t.Fatalf("expected build as first stage, got %v %v", first.ID, ok)
	}

	// Declaration order breaks ties.
	def.Stages[0].Order = 2
	first, _ = def.FirstStage()
	if first.ID != "design" {
		t.Fatalf("expected declaration-order tie break on design, got %s", first.ID)
	}
}

func TestTransitionsFromPreservesDeclarationOrder(t *testing.T) {
	def := sampleDefinition()
	def.Transitions = []workflowdef.Transition{
		{From: "design", To: "review", Condition: "skip_build"},
		{From: "design", To: "build"},
	}
	out := def.TransitionsFrom("design")
	if len(out) != 2 || out[0].To != "review" || out[1].To != "build" {
		t.Fatalf("unexpected transition order: %+v", out)
	}
}

func TestMissingStagesSorted(t *testing.T) {
	def := sampleDefinition()
	missing := def.MissingStages([]string{"build"})
	if len(missing) != 2 || missing[0] != "design" || missing[1] != "review" {
		t.Fatalf("unexpected missing stages: %v", missing)
	}
	if got := def.MissingStages([]string{"design", "build", "review"}); len(got) != 0 {
		t.Fatalf("expected full coverage, got %v", got)
	}
}

func TestCloneIsDeep(t *testing.T) {
	def := sampleDefinition()
	clone := def.Clone()
	clone.Stages[0].Checklist[0] = "changed"
	if def.Stages[0].Checklist[0] != "write proposal" {
		t.Fatal("expected clone to be independent of original")
	}
}

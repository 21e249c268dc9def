// Package progress computes stage-coverage completion percentages for
// workflow sessions.
package progress

import (
	"errors"
	"math"
	"sort"

	"flowstate/internal/session"
	"flowstate/internal/workflowdef"
)

// Percent returns the completion percentage for completed out of total
// stages, rounded to two decimal places. A non-positive total yields 0.
func Percent(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(completed)/float64(total)*100*100) / 100
}

// ForSession computes the percentage of definition stages the session has
// completed. Completed ids that no longer exist in the definition are
// ignored so the result stays within [0, 100].
func ForSession(sess *session.Session, def *workflowdef.Definition) (float64, error) {
	if sess == nil {
		return 0, errors.New("session is nil")
	}
	if def == nil {
		return 0, errors.New("definition is nil")
	}
	return Percent(len(Covered(sess, def)), len(def.Stages)), nil
}

// Covered returns the definition stage ids the session has completed, in
// definition order.
func Covered(sess *session.Session, def *workflowdef.Definition) []string {
	covered := make([]string, 0, len(sess.CompletedStages))
	for _, stage := range def.Stages {
		if sess.HasCompleted(stage.ID) {
			covered = append(covered, stage.ID)
		}
	}
	return covered
}

// MissingStages returns the sorted definition stage ids the session has not
// completed yet.
func MissingStages(sess *session.Session, def *workflowdef.Definition) []string {
	var missing []string
	for _, stage := range def.Stages {
		if !sess.HasCompleted(stage.ID) {
			missing = append(missing, stage.ID)
		}
	}
	sort.Strings(missing)
	return missing
}

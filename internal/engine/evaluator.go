package engine

import (
	"context"
	"strings"
)

// ConditionEvaluator decides whether a transition condition holds for a
// session. Implementations may consult external systems; the default reads
// the session's own context map.
type ConditionEvaluator interface {
	Evaluate(ctx context.Context, condition string, sessionContext map[string]string) (bool, error)
}

// ContextEvaluator resolves conditions against the session context. An empty
// condition and the literal "always" hold unconditionally, "never" never
// holds, and anything else names a context key whose value is read as a
// boolean. Missing keys evaluate to false.
type ContextEvaluator struct{}

func (ContextEvaluator) Evaluate(_ context.Context, condition string, sessionContext map[string]string) (bool, error) {
	condition = strings.TrimSpace(condition)
	switch condition {
	case "", "always":
		return true, nil
	case "never":
		return false, nil
	}
	value, ok := sessionContext[condition]
	if !ok {
		return false, nil
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "yes", "1":
		return true, nil
	default:
		return false, nil
	}
}

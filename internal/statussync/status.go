package statussync

import (
	"fmt"

	"flowstate/internal/services"
	"flowstate/internal/session"
)

// ExternalStatus is the status vocabulary of the external tracking system.
type ExternalStatus string

const (
	ExternalPending    ExternalStatus = "PENDING"
	ExternalInProgress ExternalStatus = "IN_PROGRESS"
	ExternalOnHold     ExternalStatus = "ON_HOLD"
	ExternalCompleted  ExternalStatus = "COMPLETED"
	ExternalFailed     ExternalStatus = "FAILED"
	ExternalCanceled   ExternalStatus = "CANCELED"
)

// MapStatus translates an internal session status into the external
// vocabulary. Unknown statuses are an error rather than a silent default.
func MapStatus(status session.Status) (ExternalStatus, error) {
	switch status {
	case session.StatusPending:
		return ExternalPending, nil
	case session.StatusActive:
		return ExternalInProgress, nil
	case session.StatusPaused:
		return ExternalOnHold, nil
	case session.StatusCompleted:
		return ExternalCompleted, nil
	case session.StatusFailed:
		return ExternalFailed, nil
	default:
		return "", services.Wrap(services.ErrValidation, "statussync", "map-status",
			fmt.Sprintf("unmapped session status %q", status), nil)
	}
}

// MapExternal translates an external status back into the internal
// vocabulary. CANCELED folds into failed; the distinction is not
// representable internally and is intentionally lost.
func MapExternal(status ExternalStatus) (session.Status, error) {
	switch status {
	case ExternalPending:
		return session.StatusPending, nil
	case ExternalInProgress:
		return session.StatusActive, nil
	case ExternalOnHold:
		return session.StatusPaused, nil
	case ExternalCompleted:
		return session.StatusCompleted, nil
	case ExternalFailed, ExternalCanceled:
		return session.StatusFailed, nil
	default:
		return "", services.Wrap(services.ErrValidation, "statussync", "map-external",
			fmt.Sprintf("unknown external status %q", status), nil)
	}
}

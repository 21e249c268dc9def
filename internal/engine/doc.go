// Package engine owns the session state machine: lifecycle transitions,
// stage movement, transition condition evaluation, and the change hooks
// that drive outbound status sync.
package engine

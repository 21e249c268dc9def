// Package api defines transport-friendly views of sessions, workflows, and
// stage trails, plus the uniform result envelope used by CLI JSON output.
package api

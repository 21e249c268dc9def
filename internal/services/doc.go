// Package services defines shared utilities consumed by the session engine
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp session IDs, stage identifiers, and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that classify failures
//     into the taxonomy the CLI surfaces (validation, conflict, not_found,
//     external_sync).
//
// Use these helpers when wiring new engine operations so operational
// behaviour (error handling, observability) stays uniform.
package services

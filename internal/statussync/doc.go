// Package statussync keeps the external status-tracking system loosely in
// step with local sessions: full-snapshot pushes from a background
// dispatcher, and guarded inbound application of external status changes.
// The local database is the source of truth; sync failure never blocks a
// session mutation.
package statussync

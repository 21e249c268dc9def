// Package session persists workflow sessions and their stage trail in a
// SQLite database guarded by a cross-process file lock.
package session

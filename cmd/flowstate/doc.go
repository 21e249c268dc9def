// Package main hosts the flowstate CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into workflow
// catalog lookups, session lifecycle operations against the SQLite store, and
// status-system sync exchanges. It centralizes configuration resolution,
// structured logging setup, and engine wiring so subcommands can focus on
// user experience instead of plumbing.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
// The session engine owns all state transitions; commands only translate
// arguments and render results.
package main

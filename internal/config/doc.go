// Package config loads, normalizes, and validates the TOML configuration
// that drives the CLI, session store, and status-sync layer.
//
// Resolution order: explicit --config flag, ~/.config/flowstate/config.toml,
// then ./flowstate.toml. Missing files fall back to defaults so read-only
// commands work out of the box. All path fields are tilde-expanded and made
// absolute during load.
package config

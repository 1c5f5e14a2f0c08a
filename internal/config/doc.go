// Package config loads and validates the TOML configuration for the dubbing
// pipeline. Defaults match the embedded sample_config.toml; Load layers a
// user file over them, expands ~ paths, and rejects out-of-range values.
package config

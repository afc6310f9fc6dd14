// Package config loads, normalizes, and validates matchreel configuration data.
//
// Values are layered in a fixed order: repository defaults, the TOML file,
// an optional dotenv file, and finally the process environment (MUX_TOKEN_ID,
// MUX_TOKEN_SECRET, DATABASE_URL and friends). Paths are expanded, including
// tilde shortcuts, before validation runs.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config

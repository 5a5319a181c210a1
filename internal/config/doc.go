// Package config loads, normalizes, and validates simwatch configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SIMWATCH_API_TOKEN. The Config type centralizes every knob the CLI needs:
// the backend API endpoint, polling cadence and ceilings, the default country
// filter, history database location, notification settings, and log output.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config

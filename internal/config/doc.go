// Package config handles application configuration loading and validation.
//
// Values start from built-in defaults, are overridden by an optional YAML
// file and then by environment variables. Validate fails fast on values the
// service cannot run with.
package config

// Package config loads and validates the client configuration.
//
// Configuration is YAML with ${VAR} environment variable expansion.
// Load reads the raw file, LoadWithDefaults fills unset fields, and
// LoadAndValidate additionally rejects invalid values.
package config

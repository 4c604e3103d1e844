// Package config loads and validates client configuration from YAML
// files.
package config

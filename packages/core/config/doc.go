// Package config handles configuration loading and management for dotrun.
//
// It provides functionality for:
//   - Loading configuration from .dotrun.yaml or dotrun.yaml files
//   - Default configuration values (go test -json ./...)
//   - Merging command line overrides over file values
package config

// Package config provides functionality for loading and validating the operation map configuration.
//
// Settings are read from an optional YAML file and OPMAP_* environment variables, validated with
// struct tags and made available to the registry, the dispatcher, the simulated engine and the
// diagnostics API.
package config

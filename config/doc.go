// Package config handles application configuration loading and validation.
//
// Configuration is loaded from a yaml file and validated using struct tags.
// All values are fixed at process start; nothing is reloaded at runtime.
package config

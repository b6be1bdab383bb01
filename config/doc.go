// Package config handles application configuration loading and validation.
//
// Configuration is loaded from config.yml and validated using struct tags.
// Several data sheet sources may be listed and selected by name.
package config

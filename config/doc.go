// Package config loads parley's runtime configuration: YAML over defaults,
// then environment overrides for the deployment-facing knobs (model
// provider, Ollama endpoint, AWS region, listen address).
package config

// Package config resolves credentials and endpoints for the backend adapters.
//
// A [Configuration] is an immutable value: [Configuration.Merge] layers the
// discrete overrides a caller passes on top of it and returns a fresh copy.
// Resolution order for the API key is explicit key, then the provider's
// environment variable ([EnvVar]). For the base URL it is BaseURL, then a
// BaseURLs entry keyed by model, then one keyed by provider, then
// [DefaultBaseURL].
//
// Configurations can also be read from YAML or JSONC files with [LoadFile],
// and .env files can be loaded into the environment with [LoadDotEnv].
package config

package config

import (
	"maps"
	"os"
	"strings"
)

// envKeys maps a provider to the environment variable holding its API key.
// Names follow the conventions most SDKs and tools already use.
var envKeys = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"gemini":    "GOOGLE_API_KEY",
	"xai":       "XAI_API_KEY",
	"groq":      "GROQ_API_KEY",
	"custom":    "OPENAI_API_KEY", // custom endpoints usually reuse the OpenAI key name
}

// defaultBaseURLs maps a provider to the endpoint used when no override resolves.
var defaultBaseURLs = map[string]string{
	"openai":    "https://api.openai.com/v1",
	"groq":      "https://api.groq.com/openai/v1",
	"xai":       "https://api.x.ai/v1",
	"anthropic": "https://api.anthropic.com",
	"gemini":    "https://generativelanguage.googleapis.com",
	"custom":    "https://api.openai.com/v1", // placeholder; callers are expected to override it
}

const fallbackProvider = "openai"

// Configuration holds credential and endpoint overrides for a client.
//
// It is a value type: every merge produces a new Configuration with its own
// maps, so a single value can be shared freely between clients. Empty strings
// mean "not set".
type Configuration struct {
	// APIKey is the explicit key. When empty the provider's environment
	// variable is used.
	APIKey string `yaml:"api_key,omitempty" json:"api_key,omitempty"`

	// BaseURL overrides the endpoint for this client and always wins over BaseURLs.
	BaseURL string `yaml:"base_url,omitempty" json:"base_url,omitempty"`

	// BaseURLs maps a provider name or a model name to an endpoint. An exact
	// model match wins over a provider match.
	BaseURLs map[string]string `yaml:"base_urls,omitempty" json:"base_urls,omitempty"`

	// Provider forces the backend (openai, anthropic, gemini, groq, xai, custom).
	// When empty it is inferred from the model name.
	Provider string `yaml:"provider,omitempty" json:"provider,omitempty"`

	// Extra carries provider-specific options forwarded to the connection
	// handle (timeout, headers, organization, ...).
	Extra map[string]any `yaml:"extra,omitempty" json:"extra,omitempty"`
}

// Overrides are the discrete values a caller can pass next to (or instead of)
// a Configuration. Non-empty fields replace the corresponding Configuration field.
type Overrides struct {
	APIKey   string
	BaseURL  string
	BaseURLs map[string]string
	Provider string
}

// Clone returns a deep copy of the maps so the result shares no state with c.
func (c Configuration) Clone() Configuration {
	cloned := c
	cloned.BaseURLs = maps.Clone(c.BaseURLs)
	cloned.Extra = maps.Clone(c.Extra)
	return cloned
}

// Merge returns a new Configuration where each non-empty override replaces the
// matching field and BaseURLs are unioned, with override entries winning on key
// collision. The receiver is left untouched.
func (c Configuration) Merge(overrides Overrides) Configuration {
	merged := c.Clone()

	if overrides.APIKey != "" {
		merged.APIKey = overrides.APIKey
	}
	if overrides.BaseURL != "" {
		merged.BaseURL = overrides.BaseURL
	}
	if overrides.Provider != "" {
		merged.Provider = overrides.Provider
	}

	if len(overrides.BaseURLs) > 0 {
		if merged.BaseURLs == nil {
			merged.BaseURLs = make(map[string]string, len(overrides.BaseURLs))
		}
		maps.Copy(merged.BaseURLs, overrides.BaseURLs)
	}

	return merged
}

// ResolveAPIKey returns the explicit key when set, otherwise the value of the
// provider's environment variable. It returns "" when nothing is found: a
// missing key only becomes an error when the backend rejects the request.
func (c Configuration) ResolveAPIKey(provider string) string {
	if c.APIKey != "" {
		return c.APIKey
	}
	return os.Getenv(EnvVar(provider))
}

// ResolveBaseURL applies the override precedence: BaseURL, then an exact model
// entry in BaseURLs, then a provider entry. It returns "" when no override
// applies; callers then fall back to [DefaultBaseURL].
func (c Configuration) ResolveBaseURL(provider, model string) string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	if model != "" {
		if url, ok := c.BaseURLs[model]; ok {
			return url
		}
	}
	if url, ok := c.BaseURLs[provider]; ok {
		return url
	}
	return ""
}

// Endpoint resolves the base URL for provider/model, falling back to the
// provider default, with any trailing slash removed.
func (c Configuration) Endpoint(provider, model string) string {
	url := c.ResolveBaseURL(provider, model)
	if url == "" {
		url = DefaultBaseURL(provider)
	}
	return strings.TrimRight(url, "/")
}

// EnvVar returns the environment variable name holding provider's API key.
// Unknown providers use the OpenAI variable.
func EnvVar(provider string) string {
	if name, ok := envKeys[provider]; ok {
		return name
	}
	return envKeys[fallbackProvider]
}

// DefaultBaseURL returns the built-in endpoint for provider. Unknown providers
// use the OpenAI endpoint.
func DefaultBaseURL(provider string) string {
	if url, ok := defaultBaseURLs[provider]; ok {
		return url
	}
	return defaultBaseURLs[fallbackProvider]
}

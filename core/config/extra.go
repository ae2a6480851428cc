package config

import (
	"fmt"
	"strconv"
	"time"
)

// Keys of Configuration.Extra understood by the adapters.
const (
	ExtraTimeout          = "timeout"           // duration string ("30s") or seconds
	ExtraHeaders          = "headers"           // map of additional request headers
	ExtraOrganization     = "organization"      // OpenAI-compatible backends
	ExtraProject          = "project"           // OpenAI-compatible backends
	ExtraAnthropicVersion = "anthropic_version" // Anthropic API version header
	ExtraAPIVersion       = "api_version"       // Gemini path version, default v1beta
)

// ExtraString returns Extra[key] when it is a non-empty string.
func (c Configuration) ExtraString(key string) string {
	if value, ok := c.Extra[key].(string); ok {
		return value
	}
	return ""
}

// Timeout returns the per-request transport timeout from Extra, or zero when
// none is configured. Strings are parsed with time.ParseDuration, falling back
// to a plain number of seconds; numbers are seconds.
func (c Configuration) Timeout() (time.Duration, error) {
	raw, ok := c.Extra[ExtraTimeout]
	if !ok || raw == nil {
		return 0, nil
	}

	switch value := raw.(type) {
	case time.Duration:
		return value, nil
	case int:
		return time.Duration(value) * time.Second, nil
	case int64:
		return time.Duration(value) * time.Second, nil
	case float64:
		return time.Duration(value * float64(time.Second)), nil
	case string:
		if duration, err := time.ParseDuration(value); err == nil {
			return duration, nil
		}
		seconds, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s %q: %w", ExtraTimeout, value, err)
		}
		return time.Duration(seconds * float64(time.Second)), nil
	default:
		return 0, fmt.Errorf("invalid %s of type %T", ExtraTimeout, raw)
	}
}

// Headers returns the additional request headers from Extra. Both
// map[string]string and decoded map[string]any values are accepted; non-string
// values are formatted with %v.
func (c Configuration) Headers() map[string]string {
	switch value := c.Extra[ExtraHeaders].(type) {
	case map[string]string:
		headers := make(map[string]string, len(value))
		for key, header := range value {
			headers[key] = header
		}
		return headers
	case map[string]any:
		headers := make(map[string]string, len(value))
		for key, header := range value {
			headers[key] = fmt.Sprintf("%v", header)
		}
		return headers
	default:
		return nil
	}
}

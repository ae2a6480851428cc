package registry

import (
	"regexp"
	"strings"
)

// Provider identifiers.
const (
	OpenAI    = "openai"
	Anthropic = "anthropic"
	Gemini    = "gemini"
	Groq      = "groq"
	XAI       = "xai"
	Custom    = "custom"
)

// DefaultProvider is returned when no inference rule matches.
const DefaultProvider = OpenAI

// Family groups providers that share a wire protocol and therefore an adapter.
type Family int

const (
	FamilyOpenAICompatible Family = iota
	FamilyAnthropic
	FamilyGemini
)

func (f Family) String() string {
	switch f {
	case FamilyAnthropic:
		return "anthropic"
	case FamilyGemini:
		return "gemini"
	default:
		return "openai-compatible"
	}
}

type inferenceRule struct {
	pattern  *regexp.Regexp
	provider string
}

// rules are evaluated in order against the lower-cased, trimmed model name.
// The first match wins.
var rules = []inferenceRule{
	{regexp.MustCompile(`^gpt-`), OpenAI},
	{regexp.MustCompile(`^o1-`), OpenAI},
	{regexp.MustCompile(`^o3-`), OpenAI},
	{regexp.MustCompile(`^claude-`), Anthropic},
	{regexp.MustCompile(`^gemini-`), Gemini},
	{regexp.MustCompile(`^grok-`), XAI},
	{regexp.MustCompile(`^grok\b`), XAI},
}

// groqModelPrefixes are open-weight families typically served by Groq. They are
// advisory: inference never routes them to Groq on its own.
var groqModelPrefixes = []string{"llama-", "mixtral-", "whisper-"}

var known = map[string]struct{}{
	OpenAI: {}, Anthropic: {}, Gemini: {}, Groq: {}, XAI: {}, Custom: {},
}

// InferProvider resolves the provider for model. A non-blank explicit value is
// returned lower-cased and trimmed without further checks; otherwise the model
// name is matched against the inference rules, defaulting to [DefaultProvider].
func InferProvider(model, explicit string) string {
	if provider := strings.ToLower(strings.TrimSpace(explicit)); provider != "" {
		return provider
	}

	normalized := strings.ToLower(strings.TrimSpace(model))
	for _, rule := range rules {
		if rule.pattern.MatchString(normalized) {
			return rule.provider
		}
	}
	return DefaultProvider
}

// IsLikelyGroqModel reports whether model belongs to a family usually served by
// Groq. Callers use it to suggest setting the provider explicitly.
func IsLikelyGroqModel(model string) bool {
	normalized := strings.ToLower(strings.TrimSpace(model))
	for _, prefix := range groqModelPrefixes {
		if strings.HasPrefix(normalized, prefix) {
			return true
		}
	}
	return false
}

// FamilyOf maps a provider to the adapter family that serves it. Anything that
// is neither Anthropic nor Gemini, unknown names included, speaks the
// OpenAI-compatible protocol.
func FamilyOf(provider string) Family {
	switch strings.ToLower(provider) {
	case Anthropic:
		return FamilyAnthropic
	case Gemini:
		return FamilyGemini
	default:
		return FamilyOpenAICompatible
	}
}

// Known reports whether provider is one of the built-in identifiers.
func Known(provider string) bool {
	_, ok := known[strings.ToLower(provider)]
	return ok
}

// Providers lists the built-in identifiers in a stable order.
func Providers() []string {
	return []string{OpenAI, Anthropic, Gemini, Groq, XAI, Custom}
}

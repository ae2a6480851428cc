// Package registry maps model names to provider identifiers and providers to
// adapter families.
//
// Inference is a fixed, ordered list of prefix rules: gpt-, o1-, o3- map to
// OpenAI, claude- to Anthropic, gemini- to Gemini and grok to xAI. Anything
// else falls back to OpenAI, so models served by Groq or a self-hosted proxy
// need an explicit provider.
package registry

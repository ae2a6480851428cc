// Package openai is the adapter for every backend that speaks the OpenAI chat
// completions protocol: OpenAI, Groq, xAI and custom or self-hosted endpoints.
//
// Requests go through the official github.com/openai/openai-go/v3 client,
// created on the first call and reused afterwards with SDK retries disabled.
// Options are forwarded verbatim as top-level request fields. Builds tagged
// noopenaisdk leave the SDK out; calls then fail with *ai.DependencyError.
package openai

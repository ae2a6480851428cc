// Package ai defines the shared, provider-agnostic types and interfaces used
// across all backend adapters (OpenAI-compatible, Anthropic, Gemini). Each
// adapter's conversion layer maps these types to its own wire format, keeping
// callers decoupled from provider-specific details.
//
// The two central interfaces are [LLM] for single request/response calls and
// [StreamLLM] for streamed responses. Input flows through [Message] (built with
// [BuildMessages]) plus an [Options] passthrough bag; output is returned as
// [Response], or as [StreamChunk] values pulled from a [ChunkStream].
//
// Errors are classified with sentinels usable through errors.Is:
// [ErrInvalidArgument], [ErrDependencyMissing] and [ErrUnsupportedOperation].
// Remote failures are never wrapped into these categories.
package ai

package ai

import (
	"context"
)

// LLM is the core interface that every backend adapter must satisfy. An adapter
// is bound to one model and one resolved provider for its whole lifetime.
// Use [StreamLLM] in addition when the backend supports streaming.
type LLM interface {
	// Provider returns the provider identifier the adapter was built for
	// (e.g. "openai", "groq", "anthropic"). It never changes.
	Provider() string

	// Model returns the model name sent to the backend.
	Model() string

	// Invoke sends the already-built message list and returns the completed
	// response. Remote failures are returned unchanged.
	Invoke(ctx context.Context, messages []Message, options Options) (*Response, error)
}

// StreamLLM is an optional interface for adapters that can stream. Callers
// detect streaming support via type assertion: adapter.(StreamLLM). Adapters
// that do not implement it must be reported with [UnsupportedOperationError].
type StreamLLM interface {
	LLM

	// InvokeStream sends the message list and returns a ChunkStream yielding
	// content deltas as they arrive. Pre-stream errors (auth, bad request,
	// network) are returned directly; mid-stream errors are yielded through
	// the iterator.
	InvokeStream(ctx context.Context, messages []Message, options Options) (*ChunkStream, error)
}

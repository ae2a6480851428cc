package client

import (
	"context"

	"github.com/leofalp/llmblanket/providers/ai"
)

// Call is one fully built request as it travels through the middleware chain.
// Messages already include the system and user prompts.
type Call struct {
	Provider string
	Model    string
	Messages []ai.Message
	Options  ai.Options
}

// InvokeFunc sends a call and returns the completed response. It is the base
// unit threaded through the invoke middleware chain.
type InvokeFunc func(ctx context.Context, call Call) (*ai.Response, error)

// StreamFunc sends a call and returns a lazy chunk stream. It is the base unit
// threaded through the stream middleware chain.
type StreamFunc func(ctx context.Context, call Call) (*ai.ChunkStream, error)

// Middleware wraps the next InvokeFunc. Middlewares are applied
// outermost-first: the first one registered runs first on the way in.
type Middleware func(next InvokeFunc) InvokeFunc

// StreamMiddleware is the streaming counterpart of Middleware. It may wrap the
// returned ChunkStream to observe the chunk sequence.
type StreamMiddleware func(next StreamFunc) StreamFunc

// MiddlewareConfig pairs an invoke middleware with its optional streaming
// counterpart. Either field may be nil, in which case that chain skips the entry.
type MiddlewareConfig struct {
	Invoke Middleware
	Stream StreamMiddleware
}

// buildInvokeChain wraps a direct adapter call with the configured middlewares.
func buildInvokeChain(adapter ai.LLM, middlewares []MiddlewareConfig) InvokeFunc {
	var chain InvokeFunc = func(ctx context.Context, call Call) (*ai.Response, error) {
		return adapter.Invoke(ctx, call.Messages, call.Options)
	}

	for i := len(middlewares) - 1; i >= 0; i-- {
		if middlewares[i].Invoke != nil {
			chain = middlewares[i].Invoke(chain)
		}
	}

	return chain
}

// buildStreamChain wraps a native stream call with the configured middlewares.
// Adapters that cannot stream fail with *ai.UnsupportedOperationError; there
// is no fallback to Invoke.
func buildStreamChain(adapter ai.LLM, middlewares []MiddlewareConfig) StreamFunc {
	var chain StreamFunc = func(ctx context.Context, call Call) (*ai.ChunkStream, error) {
		streamer, ok := adapter.(ai.StreamLLM)
		if !ok {
			return nil, &ai.UnsupportedOperationError{Provider: adapter.Provider(), Operation: "stream"}
		}
		return streamer.InvokeStream(ctx, call.Messages, call.Options)
	}

	for i := len(middlewares) - 1; i >= 0; i-- {
		if middlewares[i].Stream != nil {
			chain = middlewares[i].Stream(chain)
		}
	}

	return chain
}

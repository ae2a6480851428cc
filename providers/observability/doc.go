// Package observability defines the tracing and structured logging interfaces
// used by the client and the backend adapters.
//
// The client attaches a [Provider] and the active [Span] to the request
// context with [ContextWithObserver] and [ContextWithSpan]; adapters and HTTP
// helpers retrieve them with [ObserverFromContext] and [SpanFromContext] and
// stay silent when none is present. Attribute keys live in semconv.go.
//
// Apart from warnings about response bodies that fail to close, nothing is
// emitted unless the caller installs an observer.
package observability

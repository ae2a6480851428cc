// Package middleware provides opt-in middleware for [client.Client]. Each
// middleware is built by a New* function returning a [client.MiddlewareConfig]
// ready to be passed to [client.WithMiddleware].
//
// # Available Middleware
//
//   - [NewLoggingMiddleware]: writes structured log/slog entries before and after
//     every call, with three verbosity levels (Minimal, Standard, Verbose).
//
// # Usage
//
//	c := client.New("gpt-4o-mini",
//	    client.WithMiddleware(
//	        middleware.NewLoggingMiddleware(slog.Default(), middleware.LogLevelStandard),
//	    ),
//	)
//
// Middlewares execute outermost-first: the first entry passed to
// WithMiddleware runs first on the way in and last on the way out.
package middleware

// Package client is the single entry point of llmblanket: it turns a model name
// and optional overrides into a ready-to-use [Client] bound to one backend.
//
// [New] merges the supplied configuration with the discrete options (which
// always win), infers the provider from the model name unless one is forced,
// and picks the adapter for the provider's family. The client then exposes
// [Client.Invoke] and [Client.InvokeStream], which assemble the message list
// from a [Request] and return the unified response shapes of package ai.
//
//	c := client.New("claude-3-5-sonnet-20241022")
//	resp, err := c.Invoke(ctx, client.Request{System: "Be brief.", User: "Hello"})
//
// Calls can be wrapped with middleware (see the middleware subpackage) and
// traced by passing an observability provider with [WithObserver].
package client

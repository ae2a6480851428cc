// Package utils holds the HTTP plumbing shared by the raw-HTTP adapters:
// [DoPostSync] for JSON round-trips, [DoPostStream] together with
// [SSEScanner] for Server-Sent Events, and [CloseWithLog] for deferred body
// closes.
package utils

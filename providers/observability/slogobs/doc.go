// Package slogobs provides an observability.Provider backed by log/slog.
//
// Spans are rendered as DEBUG records, full request and response payloads as
// TRACE records ([LevelTrace]). Output is either a compact single line or
// JSON; see [New], [WithFormat], [WithLevel], [WithOutput] and [WithLogger].
package slogobs

// Package parse turns the free-form text of a unified response into typed Go
// values. Models often wrap JSON in code fences, emit single quotes or
// trailing commas, stop mid-object, or echo a schema envelope instead of
// data; [As] recovers from each of these before giving up.
//
// [ResponseAs] parses a response's content and [ToolArguments] decodes the
// arguments of a requested tool call.
package parse

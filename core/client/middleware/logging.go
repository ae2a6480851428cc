package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/leofalp/llmblanket/core/client"
	"github.com/leofalp/llmblanket/internal/utils"
	"github.com/leofalp/llmblanket/providers/ai"
)

// LogLevel controls how much detail the logging middleware emits per call.
type LogLevel int

const (
	// LogLevelMinimal logs the provider, model, duration and token counts.
	LogLevelMinimal LogLevel = iota

	// LogLevelStandard adds the message count and finish reason.
	LogLevelStandard

	// LogLevelVerbose adds the first message and the response content, each
	// truncated to 500 characters.
	//
	// WARNING: do not use in production. Prompts and completions may contain
	// secrets or personal data.
	LogLevelVerbose
)

// truncateLen is the maximum content length included in verbose log output.
const truncateLen = 500

// NewLoggingMiddleware returns a MiddlewareConfig that logs every call before
// and after it reaches the backend. For streams the completion entry is
// written once the iterator stops, whether drained, broken out of, or failed.
//
// logger must not be nil; use slog.Default() when in doubt.
func NewLoggingMiddleware(logger *slog.Logger, level LogLevel) client.MiddlewareConfig {
	return client.MiddlewareConfig{
		Invoke: buildInvokeLogging(logger, level),
		Stream: buildStreamLogging(logger, level),
	}
}

func buildInvokeLogging(logger *slog.Logger, level LogLevel) client.Middleware {
	return func(next client.InvokeFunc) client.InvokeFunc {
		return func(ctx context.Context, call client.Call) (*ai.Response, error) {
			logger.InfoContext(ctx, "llm invoke", buildCallAttrs(call, level)...)

			start := time.Now()
			response, err := next(ctx, call)
			elapsed := time.Since(start)

			if err != nil {
				logger.ErrorContext(ctx, "llm invoke failed",
					slog.String("provider", call.Provider),
					slog.String("model", call.Model),
					slog.Duration("duration", elapsed),
					slog.String("error", err.Error()),
				)
				return nil, err
			}

			logger.InfoContext(ctx, "llm invoke completed", buildResponseAttrs(call, response, elapsed, level)...)
			return response, nil
		}
	}
}

func buildStreamLogging(logger *slog.Logger, level LogLevel) client.StreamMiddleware {
	return func(next client.StreamFunc) client.StreamFunc {
		return func(ctx context.Context, call client.Call) (*ai.ChunkStream, error) {
			logger.InfoContext(ctx, "llm stream", buildCallAttrs(call, level)...)

			start := time.Now()
			stream, err := next(ctx, call)
			if err != nil {
				logger.ErrorContext(ctx, "llm stream failed",
					slog.String("provider", call.Provider),
					slog.String("model", call.Model),
					slog.Duration("duration", time.Since(start)),
					slog.String("error", err.Error()),
				)
				return nil, err
			}

			return wrapStreamWithLogging(ctx, stream, logger, call, level, start), nil
		}
	}
}

// wrapStreamWithLogging returns a stream whose iterator writes a completion
// entry when it stops, or an error entry on a mid-stream failure.
func wrapStreamWithLogging(
	ctx context.Context,
	stream *ai.ChunkStream,
	logger *slog.Logger,
	call client.Call,
	level LogLevel,
	start time.Time,
) *ai.ChunkStream {
	iteratorFunc := func(yield func(ai.StreamChunk, error) bool) {
		var finishReason string
		chunks := 0

		for chunk, err := range stream.Iter() {
			if err != nil {
				logger.ErrorContext(ctx, "llm stream failed",
					slog.String("provider", call.Provider),
					slog.String("model", call.Model),
					slog.Duration("duration", time.Since(start)),
					slog.Int("chunks", chunks),
					slog.String("error", err.Error()),
				)
				yield(chunk, err)
				return
			}

			chunks++
			if chunk.FinishReason != "" {
				finishReason = chunk.FinishReason
			}
			if !yield(chunk, nil) {
				break
			}
		}

		attrs := []any{
			slog.String("provider", call.Provider),
			slog.String("model", call.Model),
			slog.Duration("duration", time.Since(start)),
			slog.Int("chunks", chunks),
		}
		if level >= LogLevelStandard && finishReason != "" {
			attrs = append(attrs, slog.String("finish_reason", finishReason))
		}

		logger.InfoContext(ctx, "llm stream completed", attrs...)
	}

	return ai.NewChunkStream(iteratorFunc, stream)
}

// buildCallAttrs returns slog attributes for an outgoing call.
func buildCallAttrs(call client.Call, level LogLevel) []any {
	attrs := []any{
		slog.String("provider", call.Provider),
		slog.String("model", call.Model),
	}

	if level >= LogLevelStandard {
		attrs = append(attrs, slog.Int("message_count", len(call.Messages)))
	}

	if level >= LogLevelVerbose && len(call.Messages) > 0 {
		first := call.Messages[0]
		attrs = append(attrs,
			slog.String("first_message_role", string(first.Role)),
			slog.String("first_message_content", utils.TruncateString(first.Text(), truncateLen)),
		)
	}

	return attrs
}

// buildResponseAttrs returns slog attributes for a completed response.
func buildResponseAttrs(call client.Call, response *ai.Response, elapsed time.Duration, level LogLevel) []any {
	attrs := []any{
		slog.String("provider", call.Provider),
		slog.String("model", response.Model),
		slog.Duration("duration", elapsed),
	}

	if response.Usage != nil {
		attrs = append(attrs,
			slog.Int("prompt_tokens", response.Usage.PromptTokens),
			slog.Int("completion_tokens", response.Usage.CompletionTokens),
			slog.Int("total_tokens", response.Usage.TotalTokens),
		)
	}

	if level >= LogLevelStandard && response.FinishReason != "" {
		attrs = append(attrs, slog.String("finish_reason", response.FinishReason))
	}

	if level >= LogLevelVerbose && response.Content != "" {
		attrs = append(attrs,
			slog.String("response_content", utils.TruncateString(response.Content, truncateLen)),
		)
	}

	return attrs
}

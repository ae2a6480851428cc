package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/leofalp/llmblanket/internal/utils"
	"github.com/leofalp/llmblanket/providers/ai"
	"github.com/leofalp/llmblanket/providers/observability"
)

// terminalFinishReason is reported on the chunk that follows a completed stream.
const terminalFinishReason = "stop"

// InvokeStream calls streamGenerateContent with alt=sse. Every event yields
// one chunk carrying that event's text (possibly empty) and no finish reason;
// a terminal {"", "stop"} chunk follows the last event.
func (p *GeminiProvider) InvokeStream(ctx context.Context, messages []ai.Message, options ai.Options) (*ai.ChunkStream, error) {
	handle, err := p.client()
	if err != nil {
		return nil, err
	}

	streamURL := handle.modelURL + ":streamGenerateContent?alt=sse"
	payload := buildPayload(messages, options)

	if observer := observability.ObserverFromContext(ctx); observer != nil {
		observer.Trace(ctx, "Gemini provider preparing streaming request",
			observability.String(observability.AttrLLMProvider, providerName),
			observability.String(observability.AttrLLMEndpoint, streamURL),
			observability.String(observability.AttrLLMModel, p.model),
			observability.Bool(observability.AttrLLMStream, true),
			observability.Int(observability.AttrRequestMessagesCount, len(messages)),
		)
	}

	httpResponse, err := utils.DoPostStream(ctx, handle.client, streamURL, "", payload, handle.headers...)
	if err != nil {
		return nil, err
	}

	sseScanner := utils.NewSSEScanner(httpResponse.Body)

	var stream *ai.ChunkStream
	iteratorFunc := func(yield func(ai.StreamChunk, error) bool) {
		completed := func() bool {
			defer utils.CloseWithLog(stream)

			for {
				if ctx.Err() != nil {
					yield(ai.StreamChunk{}, ctx.Err())
					return false
				}

				data, sseErr := sseScanner.Next()
				if sseErr == io.EOF {
					return true
				}
				if sseErr != nil {
					yield(ai.StreamChunk{}, fmt.Errorf("SSE read error: %w", sseErr))
					return false
				}

				var event generateContentResponse
				if parseErr := json.Unmarshal([]byte(data), &event); parseErr != nil {
					yield(ai.StreamChunk{}, fmt.Errorf("failed to parse Gemini streaming chunk: %w", parseErr))
					return false
				}

				if !yield(ai.StreamChunk{Content: responseText(&event)}, nil) {
					return false
				}
			}
		}()

		if completed {
			yield(ai.StreamChunk{FinishReason: terminalFinishReason}, nil)
		}
	}

	stream = ai.NewChunkStream(iteratorFunc, httpResponse.Body)
	return stream, nil
}

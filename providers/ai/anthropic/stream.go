package anthropic

import (
	"context"
	"fmt"
	"io"

	"github.com/leofalp/llmblanket/internal/utils"
	"github.com/leofalp/llmblanket/providers/ai"
	"github.com/leofalp/llmblanket/providers/observability"
)

// terminalFinishReason is reported on the chunk that follows a completed stream.
const terminalFinishReason = "end_turn"

// InvokeStream sends a streaming Messages request. Every text delta is
// yielded as a chunk with an empty finish reason; once the event stream ends
// one terminal chunk {"", "end_turn"} follows.
//
// Pre-stream errors (bad options, non-2xx status, network failure) are
// returned directly. Mid-stream "error" events and SSE failures are yielded
// through the iterator, and no terminal chunk is sent after them.
func (p *AnthropicProvider) InvokeStream(ctx context.Context, messages []ai.Message, options ai.Options) (*ai.ChunkStream, error) {
	payload, err := buildPayload(p.model, messages, options)
	if err != nil {
		return nil, err
	}
	payload["stream"] = true

	handle, err := p.client()
	if err != nil {
		return nil, err
	}

	if observer := observability.ObserverFromContext(ctx); observer != nil {
		observer.Trace(ctx, "Anthropic provider preparing streaming request",
			observability.String(observability.AttrLLMProvider, providerName),
			observability.String(observability.AttrLLMEndpoint, handle.url),
			observability.String(observability.AttrLLMModel, p.model),
			observability.Bool(observability.AttrLLMStream, true),
			observability.Int(observability.AttrRequestMessagesCount, len(messages)),
		)
	}

	httpResponse, err := utils.DoPostStream(ctx, handle.client, handle.url, "", payload, handle.headers...)
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

				event, parseErr := unmarshalStreamEvent(data)
				if parseErr != nil {
					yield(ai.StreamChunk{}, fmt.Errorf("failed to parse stream event: %w", parseErr))
					return false
				}

				switch event.Type {
				case "content_block_delta":
					if event.Delta == nil || event.Delta.Type != "text_delta" || event.Delta.Text == "" {
						continue
					}
					if !yield(ai.StreamChunk{Content: event.Delta.Text}, nil) {
						return false
					}

				case "message_stop":
					return true

				case "error":
					errMsg := "unknown stream error"
					if event.Error != nil {
						errMsg = event.Error.Message
					}
					yield(ai.StreamChunk{}, fmt.Errorf("anthropic stream error: %s", errMsg))
					return false

				default:
					// message_start, content_block_start/stop, message_delta, ping and
					// future event types carry no text.
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

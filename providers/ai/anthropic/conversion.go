package anthropic

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/leofalp/llmblanket/providers/ai"
)

// defaultMaxTokens is sent when the caller does not set max_tokens, which
// the Messages API requires on every request.
const defaultMaxTokens = 4096

// buildPayload assembles the request body. Options are merged over the fixed
// fields; the system prompt, when non-empty, is set last and wins.
func buildPayload(model string, messages []ai.Message, options ai.Options) (map[string]any, error) {
	working := options.Clone()
	working.Pop("stream")

	maxTokens, err := working.PopInt("max_tokens", defaultMaxTokens)
	if err != nil {
		return nil, err
	}
	if maxTokens <= 0 {
		return nil, fmt.Errorf("%w: max_tokens must be a positive integer, got %d", ai.ErrInvalidArgument, maxTokens)
	}

	system, rest := ai.SplitSystem(messages)

	payload := map[string]any{
		"model":      model,
		"max_tokens": maxTokens,
		"messages":   toAnthropicMessages(rest),
	}
	for key, value := range working {
		payload[key] = value
	}
	if system != "" {
		payload["system"] = system
	}
	return payload, nil
}

func toAnthropicMessages(messages []ai.Message) []anthropicMessage {
	out := make([]anthropicMessage, 0, len(messages))
	for _, message := range messages {
		out = append(out, anthropicMessage{Role: string(message.Role), Content: message.Value()})
	}
	return out
}

// anthropicToGeneric maps a decoded Messages response. Text blocks are
// concatenated in order; tool_use blocks become tool calls with the input
// re-encoded as the arguments string.
func anthropicToGeneric(resp anthropicResponse, requestModel string, raw []byte) *ai.Response {
	var content strings.Builder
	var toolCalls []ai.ToolCall

	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			content.WriteString(block.Text)
		case "tool_use":
			arguments := "{}"
			if len(block.Input) > 0 {
				arguments = string(block.Input)
			}
			toolCalls = append(toolCalls, ai.ToolCall{
				ID:       block.ID,
				Type:     "function",
				Function: ai.ToolCallFunction{Name: block.Name, Arguments: arguments},
			})
		}
	}

	response := &ai.Response{
		ID:           resp.ID,
		Model:        resp.Model,
		Content:      content.String(),
		FinishReason: resp.StopReason,
		ToolCalls:    toolCalls,
		Raw:          json.RawMessage(raw),
	}
	if response.Model == "" {
		response.Model = requestModel
	}
	if resp.Usage != nil {
		response.Usage = &ai.Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		}
	}
	return response
}

// unmarshalStreamEvent parses one SSE data payload. A payload without a type
// is rejected.
func unmarshalStreamEvent(payload string) (*anthropicStreamEvent, error) {
	var event anthropicStreamEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return nil, err
	}
	if event.Type == "" {
		return nil, fmt.Errorf("missing type field in stream event")
	}
	return &event, nil
}

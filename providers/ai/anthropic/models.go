package anthropic

import "encoding/json"

/*
	ANTHROPIC MESSAGES API - REQUEST TYPES
*/

// anthropicMessage is one conversation turn. Content is either a string or
// the caller's content blocks, forwarded untouched.
type anthropicMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content any    `json:"content"`
}

/*
	ANTHROPIC MESSAGES API - RESPONSE TYPES
*/

// anthropicResponse is the body returned by POST /v1/messages.
type anthropicResponse struct {
	ID           string                 `json:"id"`
	Type         string                 `json:"type"` // "message"
	Role         string                 `json:"role"`
	Content      []responseContentBlock `json:"content"`
	Model        string                 `json:"model"`
	StopReason   string                 `json:"stop_reason"`
	StopSequence string                 `json:"stop_sequence,omitempty"`
	Usage        *anthropicUsage        `json:"usage,omitempty"`
}

// responseContentBlock is one block of the response. Only text and tool_use
// blocks are mapped; other types are ignored.
type responseContentBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text,omitempty"`
	ID    string          `json:"id,omitempty"`    // tool_use
	Name  string          `json:"name,omitempty"`  // tool_use
	Input json.RawMessage `json:"input,omitempty"` // tool_use
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

/*
	ANTHROPIC SSE STREAMING - WIRE TYPES

	Event lifecycle:
	  message_start → content_block_start → content_block_delta → content_block_stop →
	  message_delta → message_stop
	The SSE scanner only reads data lines, so events are told apart by the
	"type" field of the payload.
*/

type anthropicStreamEvent struct {
	Type  string          `json:"type"`
	Index int             `json:"index,omitempty"`
	Delta *streamDelta    `json:"delta,omitempty"`
	Error *anthropicError `json:"error,omitempty"`
}

// streamDelta is the delta of a content_block_delta or message_delta event.
type streamDelta struct {
	Type       string `json:"type,omitempty"` // "text_delta", "input_json_delta", ...
	Text       string `json:"text,omitempty"`
	StopReason string `json:"stop_reason,omitempty"`
}

type anthropicError struct {
	Type    string `json:"type"` // e.g. "overloaded_error"
	Message string `json:"message"`
}

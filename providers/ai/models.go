package ai

import (
	"encoding/json"
	"fmt"
)

/*
	##### PROVIDER INPUT #####
*/

// MessageRole represents the role of a message; compatible with string
type MessageRole string

const (
	RoleSystem    MessageRole = "system"    // System instructions/configuration
	RoleUser      MessageRole = "user"      // End-user message
	RoleAssistant MessageRole = "assistant" // Previous llm response
)

// ContentBlock is one structured (non plain-text) content element, such as an
// image reference for vision models. Blocks are opaque to this package: they are
// forwarded to backends that accept them and stringified for those that do not.
type ContentBlock map[string]any

// Message represents a single message in a conversation.
// When Parts is non-empty the message content is the ordered block sequence
// and Content is ignored.
type Message struct {
	Role    MessageRole    `json:"role"`
	Content string         `json:"-"`
	Parts   []ContentBlock `json:"-"`
}

// NewMessage builds a plain-text message.
func NewMessage(role MessageRole, content string) Message {
	return Message{Role: role, Content: content}
}

// NewBlockMessage builds a message whose content is a sequence of content blocks.
func NewBlockMessage(role MessageRole, parts ...ContentBlock) Message {
	return Message{Role: role, Parts: parts}
}

// HasParts reports whether the message carries structured content blocks.
func (m Message) HasParts() bool {
	return len(m.Parts) > 0
}

// Value returns the message content in its wire shape: the plain string, or the
// block slice when the message carries structured content.
func (m Message) Value() any {
	if m.HasParts() {
		return m.Parts
	}
	return m.Content
}

// Text returns the content as plain text. Structured content is stringified as
// its JSON encoding.
func (m Message) Text() string {
	if !m.HasParts() {
		return m.Content
	}
	encoded, err := json.Marshal(m.Parts)
	if err != nil {
		return fmt.Sprint(m.Parts)
	}
	return string(encoded)
}

// MarshalJSON encodes the message in the OpenAI role/content shape.
func (m Message) MarshalJSON() ([]byte, error) {
	return json.Marshal(GenericMessage{Role: string(m.Role), Content: m.Value()})
}

// UnmarshalJSON accepts the loosely-typed role/content record where content is
// either a JSON string or an array of content blocks.
func (m *Message) UnmarshalJSON(data []byte) error {
	var raw struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	decoded := Message{Role: MessageRole(raw.Role)}
	if decoded.Role == "" {
		decoded.Role = RoleUser
	}

	if len(raw.Content) > 0 && string(raw.Content) != "null" {
		switch raw.Content[0] {
		case '"':
			if err := json.Unmarshal(raw.Content, &decoded.Content); err != nil {
				return fmt.Errorf("message content: %w", err)
			}
		case '[':
			if err := json.Unmarshal(raw.Content, &decoded.Parts); err != nil {
				return fmt.Errorf("message content blocks: %w", err)
			}
		default:
			decoded.Content = string(raw.Content)
		}
	}

	*m = decoded
	return nil
}

// MessageFromMap converts a loosely-typed role/content record into a Message.
// A missing role defaults to user; a missing content is empty. Content that is
// neither a string nor a list of objects is stringified.
func MessageFromMap(record map[string]any) Message {
	message := Message{Role: RoleUser}
	if role, ok := record["role"].(string); ok && role != "" {
		message.Role = MessageRole(role)
	}

	switch content := record["content"].(type) {
	case nil:
	case string:
		message.Content = content
	case []ContentBlock:
		message.Parts = content
	case []map[string]any:
		for _, block := range content {
			message.Parts = append(message.Parts, ContentBlock(block))
		}
	case []any:
		for _, item := range content {
			if block, ok := item.(map[string]any); ok {
				message.Parts = append(message.Parts, ContentBlock(block))
				continue
			}
			message.Parts = append(message.Parts, ContentBlock{"type": "text", "text": fmt.Sprint(item)})
		}
	default:
		message.Content = fmt.Sprint(content)
	}

	return message
}

/*
	##### PROVIDER OUTPUT #####
*/

// Usage reports the token accounting returned by the backend.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ToolCall represents a function/tool call request from the LLM. Tool calls are
// surfaced to the caller as-is and never executed here.
type ToolCall struct {
	ID       string           `json:"id,omitempty"`
	Type     string           `json:"type,omitempty"` // "function"
	Function ToolCallFunction `json:"function"`
}

type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON string
}

// Response is the provider-agnostic result of a non-streaming call.
// An empty FinishReason means the backend did not report one.
type Response struct {
	ID           string     `json:"id,omitempty"`
	Model        string     `json:"model"`
	Content      string     `json:"content"`
	Usage        *Usage     `json:"usage,omitempty"`
	FinishReason string     `json:"finish_reason,omitempty"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`

	// Raw holds the backend-specific payload for callers that need fields the
	// unified shape does not carry.
	Raw any `json:"-"`
}

// String returns the response content.
func (r *Response) String() string {
	if r == nil {
		return ""
	}
	return r.Content
}

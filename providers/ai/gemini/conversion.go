package gemini

import (
	"encoding/json"
	"strings"

	"github.com/leofalp/llmblanket/providers/ai"
)

// primingReply is the model turn inserted after a system entry so the
// instructions read as an acknowledged exchange.
const primingReply = "Understood."

// toContents converts messages into Gemini turns. Each system entry becomes a
// user turn with the system text followed by a model turn "Understood.";
// user stays user and every other role becomes model. Structured content is
// stringified.
func toContents(messages []ai.Message) []content {
	contents := make([]content, 0, len(messages)+1)
	for _, message := range messages {
		text := message.Text()
		if message.Role == ai.RoleSystem {
			contents = append(contents,
				content{Role: "user", Parts: []part{{Text: text}}},
				content{Role: "model", Parts: []part{{Text: primingReply}}},
			)
			continue
		}

		role := "model"
		if message.Role == ai.RoleUser {
			role = "user"
		}
		contents = append(contents, content{Role: role, Parts: []part{{Text: text}}})
	}
	return contents
}

// buildPayload assembles the request body. The config option, when set,
// becomes generationConfig; other options are copied in unchanged.
func buildPayload(messages []ai.Message, options ai.Options) map[string]any {
	working := options.Clone()
	working.Pop("stream")
	generationConfig, _ := working.Pop("config")

	payload := make(map[string]any, len(working)+2)
	for key, value := range working {
		payload[key] = value
	}
	payload["contents"] = toContents(messages)
	if generationConfig != nil {
		payload["generationConfig"] = generationConfig
	}
	return payload
}

// responseText returns the text of the first candidate: non-thought text
// parts when there are any, otherwise the text of every part.
func responseText(resp *generateContentResponse) string {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	parts := resp.Candidates[0].Content.Parts

	var aggregated strings.Builder
	for _, p := range parts {
		if !p.Thought {
			aggregated.WriteString(p.Text)
		}
	}
	if aggregated.Len() > 0 {
		return aggregated.String()
	}

	var all strings.Builder
	for _, p := range parts {
		all.WriteString(p.Text)
	}
	return all.String()
}

// geminiToGeneric maps a decoded response. Model is always the adapter's
// model; the finish reason is lower-cased ("STOP" → "stop").
func geminiToGeneric(resp *generateContentResponse, model string, raw []byte) *ai.Response {
	response := &ai.Response{
		ID:      resp.ResponseID,
		Model:   model,
		Content: responseText(resp),
		Raw:     json.RawMessage(raw),
	}
	if len(resp.Candidates) > 0 {
		response.FinishReason = strings.ToLower(resp.Candidates[0].FinishReason)
	}
	if resp.UsageMetadata != nil {
		response.Usage = &ai.Usage{
			PromptTokens:     resp.UsageMetadata.PromptTokenCount,
			CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      resp.UsageMetadata.TotalTokenCount,
		}
	}
	return response
}

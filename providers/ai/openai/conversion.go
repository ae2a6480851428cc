package openai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/leofalp/llmblanket/providers/ai"
)

// sdkModule is the module the connection handle is built on.
const sdkModule = "github.com/openai/openai-go/v3"

// rawShape is what the typed SDK response cannot tell us: whether usage was
// sent at all, and whether the first choice's content arrived as a list of
// blocks (some compatible servers do this).
type rawShape struct {
	hasUsage     bool
	blockContent []ai.ContentBlock
}

func inspectRaw(raw string) rawShape {
	var body struct {
		Usage   json.RawMessage `json:"usage"`
		Choices []struct {
			Message struct {
				Content json.RawMessage `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if raw == "" || json.Unmarshal([]byte(raw), &body) != nil {
		return rawShape{}
	}

	shape := rawShape{hasUsage: len(body.Usage) > 0 && string(body.Usage) != "null"}
	if len(body.Choices) > 0 {
		content := strings.TrimSpace(string(body.Choices[0].Message.Content))
		if strings.HasPrefix(content, "[") {
			var blocks []ai.ContentBlock
			if json.Unmarshal([]byte(content), &blocks) == nil {
				shape.blockContent = blocks
			}
		}
	}
	return shape
}

// coalesceBlocks joins the blocks with a space. Text blocks contribute their
// text; any other block is kept as its JSON encoding.
func coalesceBlocks(blocks []ai.ContentBlock) string {
	texts := make([]string, 0, len(blocks))
	for _, block := range blocks {
		if text, ok := block["text"].(string); ok {
			texts = append(texts, text)
			continue
		}
		encoded, err := json.Marshal(block)
		if err != nil {
			texts = append(texts, fmt.Sprint(block))
			continue
		}
		texts = append(texts, string(encoded))
	}
	return strings.Join(texts, " ")
}

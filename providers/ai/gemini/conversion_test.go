package gemini

import (
	"testing"

	"github.com/leofalp/llmblanket/providers/ai"
)

func TestToContents(t *testing.T) {
	messages := []ai.Message{
		ai.NewMessage(ai.RoleSystem, "Be brief."),
		ai.NewMessage(ai.RoleUser, "Hi"),
		ai.NewMessage(ai.RoleAssistant, "Hello"),
		ai.NewMessage("tool", "42"),
	}

	contents := toContents(messages)

	want := []struct {
		role string
		text string
	}{
		{"user", "Be brief."},
		{"model", "Understood."},
		{"user", "Hi"},
		{"model", "Hello"},
		{"model", "42"},
	}
	if len(contents) != len(want) {
		t.Fatalf("expected %d contents, got %d", len(want), len(contents))
	}
	for i, w := range want {
		if contents[i].Role != w.role || len(contents[i].Parts) != 1 || contents[i].Parts[0].Text != w.text {
			t.Errorf("content %d: expected %s/%q, got %+v", i, w.role, w.text, contents[i])
		}
	}
}

func TestToContents_StringifiesBlocks(t *testing.T) {
	message := ai.NewBlockMessage(ai.RoleUser, ai.ContentBlock{"type": "text", "text": "hi"})

	contents := toContents([]ai.Message{message})
	if len(contents) != 1 {
		t.Fatalf("expected 1 content, got %d", len(contents))
	}
	if got := contents[0].Parts[0].Text; got != `[{"text":"hi","type":"text"}]` {
		t.Errorf("unexpected stringified content %q", got)
	}
}

func TestBuildPayload(t *testing.T) {
	options := ai.Options{
		"config":         map[string]any{"temperature": 0.1},
		"stream":         true,
		"safetySettings": []any{"x"},
	}

	payload := buildPayload([]ai.Message{ai.NewMessage(ai.RoleUser, "Hi")}, options)

	if _, ok := payload["config"]; ok {
		t.Error("config must be renamed to generationConfig")
	}
	if _, ok := payload["stream"]; ok {
		t.Error("stream must not be forwarded")
	}
	if cfg, ok := payload["generationConfig"].(map[string]any); !ok || cfg["temperature"] != 0.1 {
		t.Errorf("unexpected generationConfig %v", payload["generationConfig"])
	}
	if _, ok := payload["safetySettings"]; !ok {
		t.Error("other options must be forwarded")
	}
	if _, ok := options["config"]; !ok {
		t.Error("caller options must not be mutated")
	}
}

func TestBuildPayload_NoConfig(t *testing.T) {
	payload := buildPayload([]ai.Message{ai.NewMessage(ai.RoleUser, "Hi")}, nil)
	if _, ok := payload["generationConfig"]; ok {
		t.Error("generationConfig must be omitted when config is not given")
	}
}

func TestResponseText(t *testing.T) {
	tests := []struct {
		name string
		resp generateContentResponse
		want string
	}{
		{
			name: "no candidates",
			resp: generateContentResponse{},
			want: "",
		},
		{
			name: "candidate without content",
			resp: generateContentResponse{Candidates: []candidate{{FinishReason: "SAFETY"}}},
			want: "",
		},
		{
			name: "skips thoughts",
			resp: generateContentResponse{Candidates: []candidate{{Content: &content{Parts: []part{
				{Text: "thinking...", Thought: true},
				{Text: "Hello "},
				{Text: "there"},
			}}}}},
			want: "Hello there",
		},
		{
			name: "only thoughts falls back to all parts",
			resp: generateContentResponse{Candidates: []candidate{{Content: &content{Parts: []part{
				{Text: "a", Thought: true},
				{Text: "b", Thought: true},
			}}}}},
			want: "ab",
		},
		{
			name: "first candidate only",
			resp: generateContentResponse{Candidates: []candidate{
				{Content: &content{Parts: []part{{Text: "one"}}}},
				{Content: &content{Parts: []part{{Text: "two"}}}},
			}},
			want: "one",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := responseText(&tt.resp); got != tt.want {
				t.Errorf("responseText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGeminiToGeneric(t *testing.T) {
	resp := &generateContentResponse{
		Candidates:    []candidate{{Content: &content{Parts: []part{{Text: "Hi"}}}, FinishReason: "MAX_TOKENS"}},
		UsageMetadata: &usageMetadata{PromptTokenCount: 4, CandidatesTokenCount: 1},
		ModelVersion:  "gemini-1.5-flash-002",
		ResponseID:    "resp-1",
	}

	response := geminiToGeneric(resp, "gemini-1.5-flash", nil)

	if response.Model != "gemini-1.5-flash" {
		t.Errorf("expected adapter model, got %q", response.Model)
	}
	if response.FinishReason != "max_tokens" {
		t.Errorf("expected lower-cased finish reason, got %q", response.FinishReason)
	}
	if response.ID != "resp-1" {
		t.Errorf("expected id resp-1, got %q", response.ID)
	}
	if response.Usage == nil || *response.Usage != (ai.Usage{PromptTokens: 4, CompletionTokens: 1, TotalTokens: 0}) {
		t.Errorf("expected missing counts to default to 0, got %+v", response.Usage)
	}
}

package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/leofalp/llmblanket/core/config"
	"github.com/leofalp/llmblanket/providers/ai"
)

const testModel = "claude-3-5-sonnet-20241022"

func newTestProvider(server *httptest.Server, extra map[string]any) *AnthropicProvider {
	cfg := config.Configuration{APIKey: "test-key", BaseURL: server.URL, Extra: extra}
	return NewAnthropicProvider(testModel, cfg).WithHttpClient(server.Client())
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	data, err := io.ReadAll(r.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("decode body %q: %v", data, err)
	}
	return body
}

const basicResponse = `{
	"id": "msg_01",
	"type": "message",
	"role": "assistant",
	"model": "claude-3-5-sonnet-20241022",
	"content": [
		{"type": "text", "text": "Hello"},
		{"type": "text", "text": " world"}
	],
	"stop_reason": "end_turn",
	"usage": {"input_tokens": 10, "output_tokens": 5}
}`

func TestNewAnthropicProvider(t *testing.T) {
	provider := NewAnthropicProvider(testModel, config.Configuration{})
	if provider.Provider() != "anthropic" {
		t.Errorf("expected provider anthropic, got %q", provider.Provider())
	}
	if provider.Model() != testModel {
		t.Errorf("expected model %q, got %q", testModel, provider.Model())
	}
}

// TestInvoke_Basic exercises the happy path: headers, request body shape and
// response mapping.
func TestInvoke_Basic(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/v1/messages" {
			t.Errorf("expected path /v1/messages, got %s", r.URL.Path)
		}
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("expected x-api-key test-key, got %q", got)
		}
		if got := r.Header.Get("anthropic-version"); got != "2023-06-01" {
			t.Errorf("expected anthropic-version 2023-06-01, got %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("expected no Authorization header, got %q", got)
		}
		body = decodeBody(t, r)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, basicResponse)
	}))
	defer server.Close()

	messages := []ai.Message{
		ai.NewMessage(ai.RoleSystem, "You are terse."),
		ai.NewMessage(ai.RoleUser, "Hi"),
		ai.NewMessage("tool", "result"),
	}
	response, err := newTestProvider(server, nil).Invoke(context.Background(), messages, ai.Options{"temperature": 0.5})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	if response.Content != "Hello world" {
		t.Errorf("expected content %q, got %q", "Hello world", response.Content)
	}
	if response.ID != "msg_01" || response.Model != testModel {
		t.Errorf("unexpected id/model %q/%q", response.ID, response.Model)
	}
	if response.FinishReason != "end_turn" {
		t.Errorf("expected finish reason end_turn, got %q", response.FinishReason)
	}
	if response.Usage == nil || *response.Usage != (ai.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}) {
		t.Errorf("unexpected usage %+v", response.Usage)
	}

	if body["system"] != "You are terse." {
		t.Errorf("expected system field, got %v", body["system"])
	}
	if body["max_tokens"] != float64(4096) {
		t.Errorf("expected default max_tokens 4096, got %v", body["max_tokens"])
	}
	if body["temperature"] != 0.5 {
		t.Errorf("expected temperature forwarded, got %v", body["temperature"])
	}
	sent := body["messages"].([]any)
	if len(sent) != 2 {
		t.Fatalf("expected 2 non-system messages, got %d", len(sent))
	}
	if role := sent[1].(map[string]any)["role"]; role != "user" {
		t.Errorf("expected unknown role coerced to user, got %v", role)
	}
}

func TestInvoke_NoSystemField(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body = decodeBody(t, r)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, basicResponse)
	}))
	defer server.Close()

	_, err := newTestProvider(server, nil).Invoke(context.Background(), []ai.Message{ai.NewMessage(ai.RoleUser, "Hi")}, nil)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if _, ok := body["system"]; ok {
		t.Errorf("system must be omitted when empty, got %v", body["system"])
	}
}

func TestInvoke_MaxTokens(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    float64
		wantErr bool
	}{
		{name: "int", value: 100, want: 100},
		{name: "integral float", value: float64(256), want: 256},
		{name: "numeric string", value: "64", want: 64},
		{name: "zero", value: 0, wantErr: true},
		{name: "negative", value: -5, wantErr: true},
		{name: "fraction", value: 2.5, wantErr: true},
		{name: "word", value: "many", wantErr: true},
		{name: "bool", value: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			var body map[string]any
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				body = decodeBody(t, r)
				w.Header().Set("Content-Type", "application/json")
				_, _ = io.WriteString(w, basicResponse)
			}))
			defer server.Close()

			_, err := newTestProvider(server, nil).Invoke(context.Background(),
				[]ai.Message{ai.NewMessage(ai.RoleUser, "Hi")}, ai.Options{"max_tokens": tt.value})

			if tt.wantErr {
				if !errors.Is(err, ai.ErrInvalidArgument) {
					t.Fatalf("expected ErrInvalidArgument, got %v", err)
				}
				if calls.Load() != 0 {
					t.Error("no request may be sent for an invalid max_tokens")
				}
				return
			}
			if err != nil {
				t.Fatalf("Invoke: %v", err)
			}
			if body["max_tokens"] != tt.want {
				t.Errorf("expected max_tokens %v, got %v", tt.want, body["max_tokens"])
			}
		})
	}
}

func TestInvoke_ModelFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id": "msg_02", "content": [{"type": "text", "text": "ok"}], "stop_reason": "max_tokens"}`)
	}))
	defer server.Close()

	response, err := newTestProvider(server, nil).Invoke(context.Background(), []ai.Message{ai.NewMessage(ai.RoleUser, "Hi")}, nil)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if response.Model != testModel {
		t.Errorf("expected fallback model %q, got %q", testModel, response.Model)
	}
	if response.Usage != nil {
		t.Errorf("expected nil usage, got %+v", response.Usage)
	}
	if response.FinishReason != "max_tokens" {
		t.Errorf("expected finish reason max_tokens, got %q", response.FinishReason)
	}
}

func TestInvoke_ToolUse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "msg_03",
			"model": "claude-3-5-sonnet-20241022",
			"content": [
				{"type": "text", "text": "Looking it up."},
				{"type": "tool_use", "id": "toolu_1", "name": "get_weather", "input": {"city": "Rome"}}
			],
			"stop_reason": "tool_use",
			"usage": {"input_tokens": 3, "output_tokens": 4}
		}`)
	}))
	defer server.Close()

	response, err := newTestProvider(server, nil).Invoke(context.Background(), []ai.Message{ai.NewMessage(ai.RoleUser, "weather?")}, nil)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if response.Content != "Looking it up." {
		t.Errorf("unexpected content %q", response.Content)
	}
	if len(response.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(response.ToolCalls))
	}
	call := response.ToolCalls[0]
	if call.ID != "toolu_1" || call.Function.Name != "get_weather" || call.Function.Arguments != `{"city": "Rome"}` {
		t.Errorf("unexpected tool call %+v", call)
	}
}

func TestInvoke_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"type": "error", "error": {"type": "rate_limit_error", "message": "slow down"}}`)
	}))
	defer server.Close()

	_, err := newTestProvider(server, nil).Invoke(context.Background(), []ai.Message{ai.NewMessage(ai.RoleUser, "Hi")}, nil)
	var statusErr *ai.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected *ai.StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected status 429, got %d", statusErr.StatusCode)
	}
}

func TestInvoke_ExtraSettings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("anthropic-version"); got != "2024-01-01" {
			t.Errorf("expected overridden anthropic-version, got %q", got)
		}
		if got := r.Header.Get("anthropic-beta"); got != "tools-2024" {
			t.Errorf("expected extra header, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, basicResponse)
	}))
	defer server.Close()

	extra := map[string]any{
		config.ExtraAnthropicVersion: "2024-01-01",
		config.ExtraHeaders:          map[string]string{"anthropic-beta": "tools-2024"},
		config.ExtraTimeout:          "5s",
	}
	provider := newTestProvider(server, extra)
	if _, err := provider.Invoke(context.Background(), []ai.Message{ai.NewMessage(ai.RoleUser, "Hi")}, nil); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if provider.handle.client.Timeout.Seconds() != 5 {
		t.Errorf("expected 5s timeout, got %v", provider.handle.client.Timeout)
	}
	if provider.httpClient.Timeout != 0 {
		t.Error("the caller's http client must not be modified")
	}
}

func TestInvoke_APIKeyFromEnv(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "env-key")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "env-key" {
			t.Errorf("expected key from environment, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, basicResponse)
	}))
	defer server.Close()

	provider := NewAnthropicProvider(testModel, config.Configuration{BaseURL: server.URL})
	if _, err := provider.Invoke(context.Background(), []ai.Message{ai.NewMessage(ai.RoleUser, "Hi")}, nil); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
}

func TestBuildPayload(t *testing.T) {
	messages := []ai.Message{
		ai.NewMessage(ai.RoleSystem, "first"),
		ai.NewMessage(ai.RoleSystem, "second"),
		ai.NewBlockMessage(ai.RoleUser, ai.ContentBlock{"type": "text", "text": "look"}),
	}
	options := ai.Options{"system": "from options", "stream": true, "top_k": 5}

	payload, err := buildPayload(testModel, messages, options)
	if err != nil {
		t.Fatalf("buildPayload: %v", err)
	}

	if payload["system"] != "second" {
		t.Errorf("expected last system message to win, got %v", payload["system"])
	}
	if _, ok := payload["stream"]; ok {
		t.Error("stream must be removed from the payload")
	}
	if payload["top_k"] != 5 {
		t.Errorf("expected top_k forwarded, got %v", payload["top_k"])
	}
	sent := payload["messages"].([]anthropicMessage)
	if len(sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(sent))
	}
	if _, ok := sent[0].Content.([]ai.ContentBlock); !ok {
		t.Errorf("expected content blocks forwarded, got %T", sent[0].Content)
	}
	if _, ok := options["stream"]; !ok {
		t.Error("caller options must not be mutated")
	}
}

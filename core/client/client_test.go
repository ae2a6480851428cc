package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/leofalp/llmblanket/core/config"
	"github.com/leofalp/llmblanket/providers/ai"
	"github.com/leofalp/llmblanket/providers/ai/anthropic"
	"github.com/leofalp/llmblanket/providers/ai/gemini"
	"github.com/leofalp/llmblanket/providers/ai/openai"
	"github.com/leofalp/llmblanket/providers/observability"
)

// clearKeys unsets every provider key so results do not depend on the host.
func clearKeys(t *testing.T) {
	t.Helper()
	for _, name := range []string{"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GOOGLE_API_KEY", "XAI_API_KEY", "GROQ_API_KEY"} {
		t.Setenv(name, "")
	}
}

func TestNew_ProviderAndAdapter(t *testing.T) {
	clearKeys(t)

	tests := []struct {
		name         string
		model        string
		opts         []Option
		wantProvider string
		wantAdapter  string
	}{
		{name: "gpt", model: "gpt-4o-mini", wantProvider: "openai", wantAdapter: "openai"},
		{name: "o1", model: "o1-preview", wantProvider: "openai", wantAdapter: "openai"},
		{name: "claude", model: "claude-3-5-sonnet-20241022", wantProvider: "anthropic", wantAdapter: "anthropic"},
		{name: "gemini", model: "gemini-1.5-pro", wantProvider: "gemini", wantAdapter: "gemini"},
		{name: "grok", model: "grok-2", wantProvider: "xai", wantAdapter: "openai"},
		{name: "unknown model", model: "mistral-large", wantProvider: "openai", wantAdapter: "openai"},
		{name: "forced groq", model: "llama-3.1-8b-instant", opts: []Option{WithProvider("groq")}, wantProvider: "groq", wantAdapter: "openai"},
		{name: "forced via config", model: "gpt-4o", opts: []Option{WithConfig(config.Configuration{Provider: "Anthropic"})}, wantProvider: "anthropic", wantAdapter: "anthropic"},
		{name: "unknown forced provider", model: "x", opts: []Option{WithProvider("together")}, wantProvider: "together", wantAdapter: "openai"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.model, tt.opts...)

			if c.Provider() != tt.wantProvider {
				t.Errorf("Provider() = %q, want %q", c.Provider(), tt.wantProvider)
			}
			if c.Model() != tt.model {
				t.Errorf("Model() = %q, want %q", c.Model(), tt.model)
			}
			if c.Adapter().Provider() != tt.wantProvider {
				t.Errorf("adapter provider = %q, want %q", c.Adapter().Provider(), tt.wantProvider)
			}

			var got string
			switch c.Adapter().(type) {
			case *openai.OpenAIProvider:
				got = "openai"
			case *anthropic.AnthropicProvider:
				got = "anthropic"
			case *gemini.GeminiProvider:
				got = "gemini"
			}
			if got != tt.wantAdapter {
				t.Errorf("adapter family = %q, want %q", got, tt.wantAdapter)
			}
		})
	}
}

func TestNew_OverridesBeatConfig(t *testing.T) {
	clearKeys(t)
	base := config.Configuration{APIKey: "from-config", BaseURL: "https://config.example/v1"}

	orders := map[string][]Option{
		"config first": {WithConfig(base), WithAPIKey("explicit"), WithBaseURL("https://explicit.example/v1")},
		"config last":  {WithAPIKey("explicit"), WithBaseURL("https://explicit.example/v1"), WithConfig(base)},
	}

	for name, opts := range orders {
		t.Run(name, func(t *testing.T) {
			c := New("gpt-4o", opts...)
			apiKey, baseURL := c.Endpoint()
			if apiKey != "explicit" {
				t.Errorf("expected explicit key, got %q", apiKey)
			}
			if baseURL != "https://explicit.example/v1" {
				t.Errorf("expected explicit base URL, got %q", baseURL)
			}
		})
	}

	if base.APIKey != "from-config" {
		t.Error("the supplied configuration must not be mutated")
	}
}

func TestNew_BaseURLsPrecedence(t *testing.T) {
	clearKeys(t)

	cfg := config.Configuration{BaseURLs: map[string]string{"openai": "https://provider.example/v1"}}
	c := New("gpt-4o", WithConfig(cfg), WithBaseURLs(map[string]string{"gpt-4o": "https://model.example/v1/"}))

	if _, baseURL := c.Endpoint(); baseURL != "https://model.example/v1" {
		t.Errorf("expected model entry with trailing slash trimmed, got %q", baseURL)
	}
	if got := c.Config().BaseURLs["openai"]; got != "https://provider.example/v1" {
		t.Errorf("expected provider entry kept in the union, got %q", got)
	}

	c = New("gpt-4o", WithConfig(cfg), WithBaseURL("https://single.example"))
	if _, baseURL := c.Endpoint(); baseURL != "https://single.example" {
		t.Errorf("expected BaseURL to win over BaseURLs, got %q", baseURL)
	}
}

func TestEndpoint_Defaults(t *testing.T) {
	clearKeys(t)
	t.Setenv("GROQ_API_KEY", "gsk-env")

	c := New("llama-3.1-70b-versatile", WithProvider("groq"))
	apiKey, baseURL := c.Endpoint()
	if apiKey != "gsk-env" {
		t.Errorf("expected key from GROQ_API_KEY, got %q", apiKey)
	}
	if baseURL != "https://api.groq.com/openai/v1" {
		t.Errorf("expected groq default URL, got %q", baseURL)
	}

	c = New("claude-3-haiku-20240307")
	if apiKey, _ := c.Endpoint(); apiKey != "" {
		t.Errorf("expected empty key when nothing is configured, got %q", apiKey)
	}
}

func TestNew_Idempotent(t *testing.T) {
	clearKeys(t)
	t.Setenv("XAI_API_KEY", "xai-env")

	opts := []Option{WithBaseURLs(map[string]string{"xai": "https://proxy.example/v1"})}
	first := New("grok-beta", opts...)
	second := New("grok-beta", opts...)

	firstKey, firstURL := first.Endpoint()
	secondKey, secondURL := second.Endpoint()
	if first.Provider() != second.Provider() || firstKey != secondKey || firstURL != secondURL {
		t.Errorf("expected identical triples, got (%s,%s,%s) and (%s,%s,%s)",
			first.Provider(), firstKey, firstURL, second.Provider(), secondKey, secondURL)
	}
}

func TestConfig_ReturnsCopy(t *testing.T) {
	c := New("gpt-4o", WithBaseURLs(map[string]string{"openai": "https://a.example"}))

	cfg := c.Config()
	cfg.BaseURLs["openai"] = "https://mutated.example"

	if c.Config().BaseURLs["openai"] != "https://a.example" {
		t.Error("Config() must return an independent copy")
	}
}

func TestInvoke_EmptyRequest(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	c := New("claude-3-5-sonnet-20241022", WithAPIKey("k"), WithBaseURL(server.URL))

	if _, err := c.Invoke(context.Background(), Request{}); !errors.Is(err, ai.ErrInvalidArgument) {
		t.Errorf("Invoke: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := c.InvokeStream(context.Background(), Request{}); !errors.Is(err, ai.ErrInvalidArgument) {
		t.Errorf("InvokeStream: expected ErrInvalidArgument, got %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("expected no network activity, got %d requests", calls.Load())
	}
}

func TestInvoke_BuildsMessages(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id": "msg", "model": "claude-3-5-sonnet-20241022", "content": [{"type": "text", "text": "ok"}], "stop_reason": "end_turn", "usage": {"input_tokens": 1, "output_tokens": 1}}`)
	}))
	defer server.Close()

	c := New("claude-3-5-sonnet-20241022", WithAPIKey("k"), WithBaseURL(server.URL), WithHTTPClient(server.Client()))

	options := ai.Options{"temperature": 0.3}
	response, err := c.Invoke(context.Background(), Request{
		System:   "Be brief.",
		Messages: []ai.Message{ai.NewMessage(ai.RoleAssistant, "earlier")},
		User:     "now",
		Options:  options,
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if response.Content != "ok" {
		t.Errorf("unexpected content %q", response.Content)
	}

	if body["system"] != "Be brief." {
		t.Errorf("expected system prompt hoisted, got %v", body["system"])
	}
	messages := body["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if last := messages[1].(map[string]any); last["role"] != "user" || last["content"] != "now" {
		t.Errorf("expected user prompt last, got %v", last)
	}
	if body["temperature"] != 0.3 {
		t.Errorf("expected options forwarded, got %v", body["temperature"])
	}
}

// stubLLM is an adapter without streaming support.
type stubLLM struct{}

func (stubLLM) Provider() string { return "stub" }
func (stubLLM) Model() string    { return "stub-model" }
func (stubLLM) Invoke(context.Context, []ai.Message, ai.Options) (*ai.Response, error) {
	return &ai.Response{Model: "stub-model", Content: "sync"}, nil
}

func newStubClient(observer observability.Provider) *Client {
	adapter := stubLLM{}
	return &Client{
		model:    "stub-model",
		provider: "stub",
		adapter:  adapter,
		observer: observer,
		invoke:   buildInvokeChain(adapter, nil),
		stream:   buildStreamChain(adapter, nil),
	}
}

func TestInvokeStream_Unsupported(t *testing.T) {
	c := newStubClient(nil)

	stream, err := c.InvokeStream(context.Background(), Request{User: "hi"})
	if stream != nil {
		t.Error("expected nil stream")
	}
	var unsupported *ai.UnsupportedOperationError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected *ai.UnsupportedOperationError, got %v", err)
	}
	if unsupported.Provider != "stub" || unsupported.Operation != "stream" {
		t.Errorf("unexpected error fields %+v", unsupported)
	}
	if !errors.Is(err, ai.ErrUnsupportedOperation) {
		t.Error("expected errors.Is to match ErrUnsupportedOperation")
	}

	response, err := c.Invoke(context.Background(), Request{User: "hi"})
	if err != nil || response.Content != "sync" {
		t.Errorf("Invoke must still work, got %v / %v", response, err)
	}
}

func TestMiddlewareOrder(t *testing.T) {
	var order []string
	record := func(name string) MiddlewareConfig {
		return MiddlewareConfig{
			Invoke: func(next InvokeFunc) InvokeFunc {
				return func(ctx context.Context, call Call) (*ai.Response, error) {
					order = append(order, name+":in")
					response, err := next(ctx, call)
					order = append(order, name+":out")
					return response, err
				}
			},
		}
	}

	adapter := stubLLM{}
	chain := buildInvokeChain(adapter, []MiddlewareConfig{record("outer"), {}, record("inner")})
	if _, err := chain(context.Background(), Call{}); err != nil {
		t.Fatalf("chain: %v", err)
	}

	want := []string{"outer:in", "inner:in", "inner:out", "outer:out"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("step %d: expected %s, got %s", i, want[i], order[i])
		}
	}
}

// recordingObserver keeps every span it starts.
type recordingObserver struct {
	mu    sync.Mutex
	spans []*recordingSpan
	logs  []string
}

type recordingSpan struct {
	name   string
	ended  int
	status observability.StatusCode
	err    error
	attrs  map[string]any
}

func (s *recordingSpan) End() { s.ended++ }
func (s *recordingSpan) SetAttributes(attrs ...observability.Attribute) {
	for _, attr := range attrs {
		s.attrs[attr.Key] = attr.Value
	}
}
func (s *recordingSpan) SetStatus(code observability.StatusCode, _ string) { s.status = code }
func (s *recordingSpan) RecordError(err error)                             { s.err = err }
func (s *recordingSpan) AddEvent(string, ...observability.Attribute)       {}

func (o *recordingObserver) StartSpan(ctx context.Context, name string, attrs ...observability.Attribute) (context.Context, observability.Span) {
	span := &recordingSpan{name: name, attrs: map[string]any{}}
	span.SetAttributes(attrs...)
	o.mu.Lock()
	o.spans = append(o.spans, span)
	o.mu.Unlock()
	return observability.ContextWithSpan(ctx, span), span
}
func (o *recordingObserver) record(msg string) {
	o.mu.Lock()
	o.logs = append(o.logs, msg)
	o.mu.Unlock()
}

func (o *recordingObserver) Trace(_ context.Context, msg string, _ ...observability.Attribute) { o.record(msg) }
func (o *recordingObserver) Debug(_ context.Context, msg string, _ ...observability.Attribute) { o.record(msg) }
func (o *recordingObserver) Info(_ context.Context, msg string, _ ...observability.Attribute)  { o.record(msg) }
func (o *recordingObserver) Warn(_ context.Context, msg string, _ ...observability.Attribute)  { o.record(msg) }
func (o *recordingObserver) Error(_ context.Context, msg string, _ ...observability.Attribute) { o.record(msg) }

func TestInvoke_WithObserver(t *testing.T) {
	observer := &recordingObserver{}
	c := newStubClient(observer)

	if _, err := c.Invoke(context.Background(), Request{User: "hi"}); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if len(observer.spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(observer.spans))
	}
	span := observer.spans[0]
	if span.name != observability.SpanClientInvoke || span.ended != 1 || span.status != observability.StatusOK {
		t.Errorf("unexpected span %+v", span)
	}
	if span.attrs[observability.AttrLLMProvider] != "stub" {
		t.Errorf("expected provider attribute, got %v", span.attrs)
	}

	if _, err := c.InvokeStream(context.Background(), Request{User: "hi"}); err == nil {
		t.Fatal("expected unsupported stream error")
	}
	streamSpan := observer.spans[1]
	if streamSpan.ended != 1 || streamSpan.status != observability.StatusError || streamSpan.err == nil {
		t.Errorf("expected ended error span, got %+v", streamSpan)
	}
	if len(observer.logs) != 0 {
		t.Errorf("returned errors must not be logged, got %v", observer.logs)
	}
}

// streamLLM streams a fixed set of chunks.
type streamLLM struct{ stubLLM }

func (streamLLM) InvokeStream(context.Context, []ai.Message, ai.Options) (*ai.ChunkStream, error) {
	return ai.NewChunkSliceStream(ai.StreamChunk{Content: "a"}, ai.StreamChunk{Content: "b"}, ai.StreamChunk{FinishReason: "stop"}), nil
}

func TestInvokeStream_WithObserver(t *testing.T) {
	observer := &recordingObserver{}
	adapter := streamLLM{}
	c := &Client{
		model:    "stub-model",
		provider: "stub",
		adapter:  adapter,
		observer: observer,
		invoke:   buildInvokeChain(adapter, nil),
		stream:   buildStreamChain(adapter, nil),
	}

	stream, err := c.InvokeStream(context.Background(), Request{User: "hi"})
	if err != nil {
		t.Fatalf("InvokeStream: %v", err)
	}
	span := observer.spans[0]
	if span.ended != 0 {
		t.Error("span must stay open until the stream is consumed")
	}

	response, err := stream.Collect()
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if response.Content != "ab" || response.FinishReason != "stop" {
		t.Errorf("unexpected collected response %+v", response)
	}
	if span.ended != 1 {
		t.Errorf("expected span ended exactly once, got %d", span.ended)
	}
	if span.attrs[observability.AttrStreamChunks] != 3 {
		t.Errorf("expected 3 chunks recorded, got %v", span.attrs[observability.AttrStreamChunks])
	}
}

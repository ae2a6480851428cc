package openai

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/leofalp/llmblanket/core/config"
	"github.com/leofalp/llmblanket/internal/utils"
	"github.com/leofalp/llmblanket/providers/ai"
	"github.com/leofalp/llmblanket/providers/observability"
)

// OpenAIProvider serves every provider that speaks the OpenAI chat completions
// protocol: OpenAI itself, Groq, xAI, custom proxies and any unknown name.
//
// The connection handle (an SDK client) is created on the first call and
// reused for the lifetime of the provider.
type OpenAIProvider struct {
	model    string
	provider string
	cfg      config.Configuration

	httpClient *http.Client

	mu     sync.Mutex
	handle backend
}

// backend is the connection handle. It is implemented on top of openai-go,
// or by a stub when the binary is built with the noopenaisdk tag.
type backend interface {
	complete(ctx context.Context, req chatRequest) (*ai.Response, error)
	stream(ctx context.Context, req chatRequest) (*ai.ChunkStream, error)
}

// handleSettings is everything needed to build a backend.
type handleSettings struct {
	provider     string
	apiKey       string
	baseURL      string
	organization string
	project      string
	timeout      time.Duration
	headers      map[string]string
	httpClient   *http.Client
}

type chatRequest struct {
	model    string
	messages []ai.Message
	options  ai.Options
}

// NewOpenAIProvider binds model to provider (openai, groq, xai, custom, ...)
// with an already merged configuration. Nothing is resolved until the first call.
func NewOpenAIProvider(model, provider string, cfg config.Configuration) *OpenAIProvider {
	return &OpenAIProvider{
		model:    model,
		provider: provider,
		cfg:      cfg.Clone(),
	}
}

// WithHttpClient sets the HTTP client used by the connection handle.
func (p *OpenAIProvider) WithHttpClient(httpClient *http.Client) *OpenAIProvider {
	p.httpClient = httpClient
	return p
}

func (p *OpenAIProvider) Provider() string { return p.provider }

func (p *OpenAIProvider) Model() string { return p.model }

// Invoke sends the messages and returns the first choice. A response with no
// choices is not an error: Content is empty while ID, Model and Usage are kept.
func (p *OpenAIProvider) Invoke(ctx context.Context, messages []ai.Message, options ai.Options) (*ai.Response, error) {
	handle, err := p.client()
	if err != nil {
		return nil, err
	}

	req := p.newRequest(messages, options)
	p.logRequest(ctx, req, false)

	response, err := handle.complete(ctx, req)
	if err != nil {
		return nil, err
	}

	if observer := observability.ObserverFromContext(ctx); observer != nil {
		observer.Debug(ctx, "openai-compatible response decoded",
			observability.String(observability.AttrLLMResponseID, response.ID),
			observability.String(observability.AttrLLMFinishReason, response.FinishReason),
			observability.Int(observability.AttrResponseToolCalls, len(response.ToolCalls)),
		)
		observer.Trace(ctx, "openai-compatible response content",
			observability.String(observability.AttrResponseContent, utils.TruncateString(response.Content, 0)),
		)
	}
	return response, nil
}

// InvokeStream requests a streamed completion. Each event with at least one
// choice yields the first choice's delta content and finish reason.
func (p *OpenAIProvider) InvokeStream(ctx context.Context, messages []ai.Message, options ai.Options) (*ai.ChunkStream, error) {
	handle, err := p.client()
	if err != nil {
		return nil, err
	}

	req := p.newRequest(messages, options)
	p.logRequest(ctx, req, true)

	return handle.stream(ctx, req)
}

// newRequest copies options and drops "stream": the call style decides it.
func (p *OpenAIProvider) newRequest(messages []ai.Message, options ai.Options) chatRequest {
	working := options.Clone()
	working.Pop("stream")
	return chatRequest{model: p.model, messages: messages, options: working}
}

// client returns the memoized connection handle, creating it on first use.
func (p *OpenAIProvider) client() (backend, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.handle != nil {
		return p.handle, nil
	}

	settings, err := p.settings()
	if err != nil {
		return nil, err
	}

	handle, err := newBackend(settings)
	if err != nil {
		return nil, err
	}
	p.handle = handle
	return handle, nil
}

func (p *OpenAIProvider) settings() (handleSettings, error) {
	timeout, err := p.cfg.Timeout()
	if err != nil {
		return handleSettings{}, fmt.Errorf("%w: %v", ai.ErrInvalidArgument, err)
	}

	return handleSettings{
		provider:     p.provider,
		apiKey:       p.cfg.ResolveAPIKey(p.provider),
		baseURL:      p.cfg.Endpoint(p.provider, p.model),
		organization: p.cfg.ExtraString(config.ExtraOrganization),
		project:      p.cfg.ExtraString(config.ExtraProject),
		timeout:      timeout,
		headers:      p.cfg.Headers(),
		httpClient:   p.httpClient,
	}, nil
}

func (p *OpenAIProvider) logRequest(ctx context.Context, req chatRequest, stream bool) {
	observer := observability.ObserverFromContext(ctx)
	if observer == nil {
		return
	}

	keys := make([]string, 0, len(req.options))
	for key := range req.options {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	observer.Debug(ctx, "openai-compatible request prepared",
		observability.String(observability.AttrLLMProvider, p.provider),
		observability.String(observability.AttrLLMModel, p.model),
		observability.Bool(observability.AttrLLMStream, stream),
		observability.Int(observability.AttrRequestMessagesCount, len(req.messages)),
		observability.String(observability.AttrRequestOptions, fmt.Sprint(keys)),
	)
	observer.Trace(ctx, "openai-compatible request payload",
		observability.String(observability.AttrRequestPayload, utils.JSONPreview(map[string]any{
			"model":    req.model,
			"messages": ai.ToGeneric(req.messages),
			"options":  req.options,
		})),
	)
}

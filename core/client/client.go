package client

import (
	"context"
	"net/http"
	"time"

	"github.com/leofalp/llmblanket/core/config"
	"github.com/leofalp/llmblanket/core/registry"
	"github.com/leofalp/llmblanket/providers/ai"
	"github.com/leofalp/llmblanket/providers/ai/anthropic"
	"github.com/leofalp/llmblanket/providers/ai/gemini"
	"github.com/leofalp/llmblanket/providers/ai/openai"
	"github.com/leofalp/llmblanket/providers/observability"
)

// constructor builds the adapter for one provider family.
type constructor func(model, provider string, cfg config.Configuration, httpClient *http.Client) ai.LLM

// adapters is the closed family table. Every provider name maps to exactly one
// family through registry.FamilyOf.
var adapters = map[registry.Family]constructor{
	registry.FamilyOpenAICompatible: func(model, provider string, cfg config.Configuration, httpClient *http.Client) ai.LLM {
		return openai.NewOpenAIProvider(model, provider, cfg).WithHttpClient(httpClient)
	},
	registry.FamilyAnthropic: func(model, _ string, cfg config.Configuration, httpClient *http.Client) ai.LLM {
		return anthropic.NewAnthropicProvider(model, cfg).WithHttpClient(httpClient)
	},
	registry.FamilyGemini: func(model, _ string, cfg config.Configuration, httpClient *http.Client) ai.LLM {
		return gemini.NewGeminiProvider(model, cfg).WithHttpClient(httpClient)
	},
}

// Client is a model bound to a resolved provider and configuration. It is safe
// for concurrent use; its provider and configuration never change.
type Client struct {
	model    string
	provider string
	cfg      config.Configuration
	adapter  ai.LLM
	observer observability.Provider

	invoke InvokeFunc
	stream StreamFunc
}

// Request is the input of one call. At least one of Messages, System or User
// must be non-empty. System is placed first and User last.
type Request struct {
	Messages []ai.Message
	System   string
	User     string
	Options  ai.Options
}

type clientOptions struct {
	cfg         config.Configuration
	overrides   config.Overrides
	httpClient  *http.Client
	observer    observability.Provider
	middlewares []MiddlewareConfig
}

// Option configures New.
type Option func(*clientOptions)

// WithConfig supplies a base Configuration. Discrete options such as
// WithAPIKey win over the same field in cfg, whatever the option order.
func WithConfig(cfg config.Configuration) Option {
	return func(o *clientOptions) {
		o.cfg = cfg.Clone()
	}
}

// WithProvider forces the provider instead of inferring it from the model.
func WithProvider(provider string) Option {
	return func(o *clientOptions) {
		o.overrides.Provider = provider
	}
}

func WithAPIKey(apiKey string) Option {
	return func(o *clientOptions) {
		o.overrides.APIKey = apiKey
	}
}

// WithBaseURL sets an endpoint that wins over every BaseURLs entry.
func WithBaseURL(baseURL string) Option {
	return func(o *clientOptions) {
		o.overrides.BaseURL = baseURL
	}
}

// WithBaseURLs adds per-provider or per-model endpoints. Repeated calls are
// merged; later entries win.
func WithBaseURLs(baseURLs map[string]string) Option {
	return func(o *clientOptions) {
		if o.overrides.BaseURLs == nil {
			o.overrides.BaseURLs = make(map[string]string, len(baseURLs))
		}
		for key, url := range baseURLs {
			o.overrides.BaseURLs[key] = url
		}
	}
}

// WithHTTPClient sets the HTTP client the adapter sends requests with.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = httpClient
	}
}

// WithObserver enables spans and adapter logs for every call.
func WithObserver(observer observability.Provider) Option {
	return func(o *clientOptions) {
		o.observer = observer
	}
}

// WithMiddleware appends middlewares to the call chain.
func WithMiddleware(middlewares ...MiddlewareConfig) Option {
	return func(o *clientOptions) {
		o.middlewares = append(o.middlewares, middlewares...)
	}
}

// New merges the configuration, resolves the provider for model and builds the
// matching adapter. It performs no network activity and never fails:
// credentials are only checked by the backend on the first call.
func New(model string, opts ...Option) *Client {
	options := &clientOptions{}
	for _, opt := range opts {
		opt(options)
	}

	cfg := options.cfg.Merge(options.overrides)
	provider := registry.InferProvider(model, cfg.Provider)
	adapter := adapters[registry.FamilyOf(provider)](model, provider, cfg, options.httpClient)

	return &Client{
		model:    model,
		provider: provider,
		cfg:      cfg,
		adapter:  adapter,
		observer: options.observer,
		invoke:   buildInvokeChain(adapter, options.middlewares),
		stream:   buildStreamChain(adapter, options.middlewares),
	}
}

// Provider returns the resolved provider name.
func (c *Client) Provider() string { return c.provider }

func (c *Client) Model() string { return c.model }

// Config returns a copy of the merged configuration.
func (c *Client) Config() config.Configuration { return c.cfg.Clone() }

// Adapter returns the backend adapter, e.g. to reach provider-specific methods
// through a type assertion.
func (c *Client) Adapter() ai.LLM { return c.adapter }

// Endpoint returns the API key and base URL the adapter will use. The key is
// "" when neither the configuration nor the environment provides one.
func (c *Client) Endpoint() (apiKey, baseURL string) {
	return c.cfg.ResolveAPIKey(c.provider), c.cfg.Endpoint(c.provider, c.model)
}

// Invoke builds the message list and performs one blocking call. An empty
// request fails with ai.ErrInvalidArgument before anything is sent; backend
// errors are returned unchanged.
func (c *Client) Invoke(ctx context.Context, request Request) (*ai.Response, error) {
	call, err := c.newCall(request)
	if err != nil {
		return nil, err
	}

	ctx, span := c.startSpan(ctx, observability.SpanClientInvoke, call)
	if span != nil {
		defer span.End()
	}

	start := time.Now()
	response, err := c.invoke(ctx, call)
	if err != nil {
		failSpan(span, err, time.Since(start))
		return nil, err
	}

	if span != nil {
		span.SetAttributes(
			observability.String(observability.AttrLLMResponseID, response.ID),
			observability.String(observability.AttrLLMFinishReason, response.FinishReason),
			observability.Duration(observability.AttrDuration, time.Since(start)),
		)
		if response.Usage != nil {
			span.SetAttributes(
				observability.Int(observability.AttrLLMTokensPrompt, response.Usage.PromptTokens),
				observability.Int(observability.AttrLLMTokensCompletion, response.Usage.CompletionTokens),
				observability.Int(observability.AttrLLMTokensTotal, response.Usage.TotalTokens),
			)
		}
		span.SetStatus(observability.StatusOK, "")
	}

	return response, nil
}

// InvokeStream builds the message list and starts a streamed call. The
// returned stream is lazy and one-shot. Adapters without streaming support
// fail with *ai.UnsupportedOperationError.
func (c *Client) InvokeStream(ctx context.Context, request Request) (*ai.ChunkStream, error) {
	call, err := c.newCall(request)
	if err != nil {
		return nil, err
	}

	ctx, span := c.startSpan(ctx, observability.SpanClientStream, call)

	start := time.Now()
	stream, err := c.stream(ctx, call)
	if err != nil {
		failSpan(span, err, time.Since(start))
		if span != nil {
			span.End()
		}
		return nil, err
	}

	if span == nil {
		return stream, nil
	}
	return observeStream(stream, span, start), nil
}

func (c *Client) newCall(request Request) (Call, error) {
	messages, err := ai.BuildMessages(request.Messages, request.System, request.User)
	if err != nil {
		return Call{}, err
	}
	return Call{
		Provider: c.provider,
		Model:    c.model,
		Messages: messages,
		Options:  request.Options.Clone(),
	}, nil
}

// startSpan opens a span and puts the observer in the context when an observer
// is configured. It returns a nil span otherwise.
func (c *Client) startSpan(ctx context.Context, name string, call Call) (context.Context, observability.Span) {
	if c.observer == nil {
		return ctx, nil
	}

	ctx = observability.ContextWithObserver(ctx, c.observer)
	ctx, span := c.observer.StartSpan(ctx, name,
		observability.String(observability.AttrLLMProvider, c.provider),
		observability.String(observability.AttrLLMFamily, registry.FamilyOf(c.provider).String()),
		observability.String(observability.AttrLLMModel, c.model),
		observability.Int(observability.AttrRequestMessagesCount, len(call.Messages)),
	)
	return ctx, span
}

// failSpan marks span as failed. The error is returned to the caller, not logged.
func failSpan(span observability.Span, err error, elapsed time.Duration) {
	if span == nil {
		return
	}
	span.RecordError(err)
	span.SetAttributes(observability.Duration(observability.AttrDuration, elapsed))
	span.SetStatus(observability.StatusError, err.Error())
}

// observeStream ends span once the stream is drained, abandoned or closed.
func observeStream(stream *ai.ChunkStream, span observability.Span, start time.Time) *ai.ChunkStream {
	ended := false
	end := func(err error, chunks int) {
		if ended {
			return
		}
		ended = true
		span.SetAttributes(
			observability.Int(observability.AttrStreamChunks, chunks),
			observability.Duration(observability.AttrDuration, time.Since(start)),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(observability.StatusError, err.Error())
		} else {
			span.SetStatus(observability.StatusOK, "")
		}
		span.End()
	}

	iterator := func(yield func(ai.StreamChunk, error) bool) {
		chunks := 0
		for chunk, err := range stream.Iter() {
			if err != nil {
				end(err, chunks)
				yield(chunk, err)
				return
			}
			chunks++
			if chunk.FinishReason != "" {
				span.SetAttributes(observability.String(observability.AttrLLMFinishReason, chunk.FinishReason))
			}
			if !yield(chunk, nil) {
				end(nil, chunks)
				return
			}
		}
		end(nil, chunks)
	}

	return ai.NewChunkStream(iterator, closerFunc(func() error {
		end(nil, 0)
		return stream.Close()
	}))
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

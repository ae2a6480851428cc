package anthropic

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/leofalp/llmblanket/core/config"
	"github.com/leofalp/llmblanket/internal/utils"
	"github.com/leofalp/llmblanket/providers/ai"
	"github.com/leofalp/llmblanket/providers/observability"
)

const (
	// messagesEndpoint is appended to the resolved base URL.
	messagesEndpoint = "/v1/messages"

	// defaultAnthropicVersion pins the wire format. Override it with the
	// anthropic_version key of Configuration.Extra.
	defaultAnthropicVersion = "2023-06-01"

	providerName = "anthropic"
)

// AnthropicProvider implements [ai.StreamLLM] for Anthropic's Messages API
// over plain HTTP. System content is hoisted into the top-level system field.
type AnthropicProvider struct {
	model string
	cfg   config.Configuration

	httpClient *http.Client

	mu     sync.Mutex
	handle *transport
}

// transport is the resolved connection handle: endpoint, headers and client.
type transport struct {
	url     string
	headers []utils.HeaderOption
	client  *http.Client
}

// NewAnthropicProvider binds model to an already merged configuration. The API
// key and endpoint are resolved on the first call.
func NewAnthropicProvider(model string, cfg config.Configuration) *AnthropicProvider {
	return &AnthropicProvider{
		model: model,
		cfg:   cfg.Clone(),
	}
}

// WithHttpClient replaces the default [http.Client] used for API calls and
// returns the provider so calls can be chained.
func (p *AnthropicProvider) WithHttpClient(httpClient *http.Client) *AnthropicProvider {
	p.httpClient = httpClient
	return p
}

func (p *AnthropicProvider) Provider() string { return providerName }

func (p *AnthropicProvider) Model() string { return p.model }

// Invoke sends one Messages request and maps the reply. max_tokens defaults
// to 4096 and must be a positive integer when supplied.
func (p *AnthropicProvider) Invoke(ctx context.Context, messages []ai.Message, options ai.Options) (*ai.Response, error) {
	payload, err := buildPayload(p.model, messages, options)
	if err != nil {
		return nil, err
	}

	handle, err := p.client()
	if err != nil {
		return nil, err
	}

	observer := observability.ObserverFromContext(ctx)
	if observer != nil {
		observer.Trace(ctx, "Anthropic provider preparing request",
			observability.String(observability.AttrLLMProvider, providerName),
			observability.String(observability.AttrLLMEndpoint, handle.url),
			observability.String(observability.AttrLLMModel, p.model),
			observability.Int(observability.AttrLLMMaxTokens, payload["max_tokens"].(int)),
			observability.Int(observability.AttrRequestMessagesCount, len(messages)),
			observability.String(observability.AttrRequestPayload, utils.JSONPreview(payload)),
		)
	}

	// No bearer token: Anthropic authenticates with x-api-key.
	resp, raw, err := utils.DoPostSync[anthropicResponse](ctx, handle.client, handle.url, "", payload, handle.headers...)
	if err != nil {
		return nil, err
	}

	result := anthropicToGeneric(*resp, p.model, raw)

	if observer != nil {
		observer.Debug(ctx, "Anthropic response decoded",
			observability.String(observability.AttrLLMResponseID, result.ID),
			observability.String(observability.AttrLLMFinishReason, result.FinishReason),
			observability.Int(observability.AttrResponseToolCalls, len(result.ToolCalls)),
		)
		observer.Trace(ctx, "Anthropic response content",
			observability.String(observability.AttrResponseContent, utils.TruncateString(result.Content, 0)),
		)
	}

	return result, nil
}

// client returns the memoized transport, creating it on first use.
func (p *AnthropicProvider) client() (*transport, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.handle != nil {
		return p.handle, nil
	}

	timeout, err := p.cfg.Timeout()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ai.ErrInvalidArgument, err)
	}

	httpClient := p.httpClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if timeout > 0 {
		withTimeout := *httpClient
		withTimeout.Timeout = timeout
		httpClient = &withTimeout
	}

	version := p.cfg.ExtraString(config.ExtraAnthropicVersion)
	if version == "" {
		version = defaultAnthropicVersion
	}

	headers := utils.HeadersFromMap(p.cfg.Headers())
	headers = append(headers,
		utils.HeaderOption{Key: "x-api-key", Value: p.cfg.ResolveAPIKey(providerName)},
		utils.HeaderOption{Key: "anthropic-version", Value: version},
	)

	p.handle = &transport{
		url:     strings.TrimSuffix(p.cfg.Endpoint(providerName, p.model), "/v1") + messagesEndpoint,
		headers: headers,
		client:  httpClient,
	}
	return p.handle, nil
}

package gemini

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
	defaultAPIVersion = "v1beta"
	providerName      = "gemini"
)

// GeminiProvider implements [ai.StreamLLM] for Google's Generative Language API.
type GeminiProvider struct {
	model string
	cfg   config.Configuration

	httpClient *http.Client

	mu     sync.Mutex
	handle *transport
}

// transport is the resolved connection handle.
type transport struct {
	modelURL string // {base}/{version}/models/{model}
	headers  []utils.HeaderOption
	client   *http.Client
}

// NewGeminiProvider binds model to an already merged configuration. The API
// key and endpoint are resolved on the first call.
func NewGeminiProvider(model string, cfg config.Configuration) *GeminiProvider {
	return &GeminiProvider{
		model: model,
		cfg:   cfg.Clone(),
	}
}

// WithHttpClient sets a custom HTTP client.
func (p *GeminiProvider) WithHttpClient(httpClient *http.Client) *GeminiProvider {
	p.httpClient = httpClient
	return p
}

func (p *GeminiProvider) Provider() string { return providerName }

func (p *GeminiProvider) Model() string { return p.model }

// Invoke calls generateContent. The response Model is always the adapter's
// model, whatever version the backend reports.
func (p *GeminiProvider) Invoke(ctx context.Context, messages []ai.Message, options ai.Options) (*ai.Response, error) {
	handle, err := p.client()
	if err != nil {
		return nil, err
	}

	url := handle.modelURL + ":generateContent"
	payload := buildPayload(messages, options)

	observer := observability.ObserverFromContext(ctx)
	if observer != nil {
		observer.Trace(ctx, "Gemini provider preparing request",
			observability.String(observability.AttrLLMProvider, providerName),
			observability.String(observability.AttrLLMEndpoint, url),
			observability.String(observability.AttrLLMModel, p.model),
			observability.Int(observability.AttrRequestMessagesCount, len(messages)),
			observability.String(observability.AttrRequestPayload, utils.JSONPreview(payload)),
		)
	}

	// Empty apiKey: Gemini authenticates with x-goog-api-key, not Bearer.
	resp, raw, err := utils.DoPostSync[generateContentResponse](ctx, handle.client, url, "", payload, handle.headers...)
	if err != nil {
		return nil, err
	}

	result := geminiToGeneric(resp, p.model, raw)

	if observer != nil {
		observer.Debug(ctx, "Gemini response decoded",
			observability.String(observability.AttrLLMResponseID, result.ID),
			observability.String(observability.AttrLLMFinishReason, result.FinishReason),
		)
		observer.Trace(ctx, "Gemini response content",
			observability.String(observability.AttrResponseContent, utils.TruncateString(result.Content, 0)),
		)
	}

	return result, nil
}

// client returns the memoized transport, creating it on first use.
func (p *GeminiProvider) client() (*transport, error) {
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

	version := p.cfg.ExtraString(config.ExtraAPIVersion)
	if version == "" {
		version = defaultAPIVersion
	}
	base := strings.TrimSuffix(p.cfg.Endpoint(providerName, p.model), "/"+version)

	headers := utils.HeadersFromMap(p.cfg.Headers())
	headers = append(headers, utils.HeaderOption{Key: "x-goog-api-key", Value: p.cfg.ResolveAPIKey(providerName)})

	p.handle = &transport{
		modelURL: fmt.Sprintf("%s/%s/models/%s", base, version, p.model),
		headers:  headers,
		client:   httpClient,
	}
	return p.handle, nil
}

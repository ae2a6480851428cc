package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/leofalp/llmblanket/providers/ai"
	"github.com/leofalp/llmblanket/providers/observability"
)

// HeaderOption is an extra request header. Options are applied after the
// defaults, so they can replace Authorization or Content-Type.
type HeaderOption struct {
	Key   string
	Value string
}

// HeadersFromMap converts a header map into options, skipping empty keys.
func HeadersFromMap(headers map[string]string) []HeaderOption {
	options := make([]HeaderOption, 0, len(headers))
	for key, value := range headers {
		if key != "" {
			options = append(options, HeaderOption{Key: key, Value: value})
		}
	}
	return options
}

// maxErrorBodyPreview bounds the response body kept on a StatusError.
const maxErrorBodyPreview = 4096

// DoPostSync performs a synchronous JSON POST and decodes the response body
// into OutputStruct. The raw body is returned as well so callers can keep the
// untouched payload.
//
// Error Handling Strategy:
//   - Context errors (timeout, cancellation) are returned wrapped
//   - Non-2xx responses return *ai.StatusError carrying the status and a body preview
//   - Response body close errors are logged but don't override primary errors
//   - JSON decoding errors include a truncated response preview
func DoPostSync[OutputStruct any](ctx context.Context, client *http.Client, url string, apiKey string, body any, headers ...HeaderOption) (*OutputStruct, []byte, error) {
	span := observability.SpanFromContext(ctx)

	req, err := newJSONRequest(ctx, span, url, apiKey, body, headers)
	if err != nil {
		return nil, nil, err
	}

	requestStart := time.Now()
	res, err := httpClient(client).Do(req)
	requestDuration := time.Since(requestStart)

	if err != nil {
		if span != nil {
			span.AddEvent(observability.EventHTTPRequestError,
				observability.Error(err),
				observability.Duration(observability.AttrHTTPDuration, requestDuration),
			)
		}
		return nil, nil, fmt.Errorf("error sending request: %w", err)
	}
	defer CloseWithLog(res.Body)

	respBody, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBodySize))
	if err != nil {
		return nil, nil, fmt.Errorf("error reading response body: %w", err)
	}

	if span != nil {
		span.AddEvent(observability.EventHTTPResponse,
			observability.Int(observability.AttrHTTPStatusCode, res.StatusCode),
			observability.Int(observability.AttrHTTPResponseBodySize, len(respBody)),
			observability.Duration(observability.AttrHTTPDuration, requestDuration),
		)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, respBody, statusError(res.StatusCode, respBody)
	}

	var resStruct OutputStruct
	if err = json.Unmarshal(respBody, &resStruct); err != nil {
		return nil, respBody, fmt.Errorf("error unmarshaling response body (status %d): %w\nResponse preview: %s",
			res.StatusCode, err, TruncateString(string(respBody), DefaultMaxStringLength))
	}

	return &resStruct, respBody, nil
}

// CloseWithLog closes c and logs, rather than returns, any failure. It is
// meant for deferred response body closes where a close error must not mask
// the primary result.
func CloseWithLog(c io.Closer) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		slog.Warn("failed to close response body", "error", err.Error())
	}
}

func httpClient(client *http.Client) *http.Client {
	if client == nil {
		return http.DefaultClient
	}
	return client
}

func newJSONRequest(ctx context.Context, span observability.Span, url, apiKey string, body any, headers []HeaderOption) (*http.Request, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("error marshaling body: %w", err)
	}

	if span != nil {
		span.AddEvent(observability.EventHTTPRequestPrepared,
			observability.String(observability.AttrHTTPMethod, http.MethodPost),
			observability.String(observability.AttrHTTPURL, url),
			observability.Int(observability.AttrHTTPRequestBodySize, len(jsonBody)),
		)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	for _, header := range headers {
		req.Header.Set(header.Key, header.Value)
	}

	return req, nil
}

func statusError(statusCode int, body []byte) *ai.StatusError {
	preview := body
	if len(preview) > maxErrorBodyPreview {
		preview = preview[:maxErrorBodyPreview]
	}
	return &ai.StatusError{StatusCode: statusCode, Body: string(preview)}
}

package observability

// Semantic conventions for observability attributes, shared by the client,
// the adapters and the HTTP helpers so that every backend logs the same keys.

// --- LLM Attributes ---

const (
	// AttrLLMProvider is the resolved provider identifier (e.g. "openai", "groq")
	AttrLLMProvider = "llm.provider"

	// AttrLLMFamily is the adapter family serving the provider
	AttrLLMFamily = "llm.family"

	// AttrLLMModel is the model identifier
	AttrLLMModel = "llm.model"

	// AttrLLMEndpoint is the resolved base URL
	AttrLLMEndpoint = "llm.endpoint"

	// AttrLLMResponseID is the unique response identifier from the provider
	AttrLLMResponseID = "llm.response.id"

	// AttrLLMFinishReason is the reason the generation finished
	AttrLLMFinishReason = "llm.finish_reason"

	// AttrLLMMaxTokens is the maximum tokens requested
	AttrLLMMaxTokens = "llm.max_tokens" // #nosec G101 -- not a credential

	AttrLLMStream = "llm.stream"
)

// --- Token Usage Attributes ---

const (
	AttrLLMTokensPrompt     = "llm.tokens.prompt"     // #nosec G101 -- not a credential
	AttrLLMTokensCompletion = "llm.tokens.completion" // #nosec G101 -- not a credential
	AttrLLMTokensTotal      = "llm.tokens.total"      // #nosec G101 -- not a credential
)

// --- Request/Response Attributes ---

const (
	// AttrRequestMessagesCount is the number of messages in the request
	AttrRequestMessagesCount = "request.messages_count"

	// AttrRequestOptions lists the passthrough option keys
	AttrRequestOptions = "request.options"

	// AttrRequestPayload is the serialized request body (TRACE only)
	AttrRequestPayload = "request.payload"

	// AttrResponseContent is the (possibly truncated) response text
	AttrResponseContent = "response.content"

	// AttrResponseToolCalls is the number of tool calls in the response
	AttrResponseToolCalls = "response.tool_calls"

	// AttrStreamChunks is the number of chunks delivered by a stream
	AttrStreamChunks = "stream.chunks"
)

// --- HTTP Attributes ---

const (
	AttrHTTPMethod           = "http.method"
	AttrHTTPStatusCode       = "http.status_code"
	AttrHTTPURL              = "http.url"
	AttrHTTPRequestBodySize  = "http.request.body.size"
	AttrHTTPResponseBodySize = "http.response.body.size"
	AttrHTTPDuration         = "http.request.duration"
)

// --- General Attributes ---

const (
	AttrError             = "error"
	AttrDuration          = "duration"
	AttrStatus            = "status"
	AttrStatusDescription = "status_description"
)

// --- Span Names ---

const (
	// SpanClientInvoke wraps one non-streaming client call
	SpanClientInvoke = "client.invoke"

	// SpanClientStream wraps one streaming client call, ended when the stream is released
	SpanClientStream = "client.stream"
)

// --- Event Names ---

const (
	EventHTTPRequestPrepared = "http.request.prepared"
	EventHTTPRequestError    = "http.request.error"
	EventHTTPResponse        = "http.response.received"
	EventHTTPStreamStarted   = "http.stream.started"
)

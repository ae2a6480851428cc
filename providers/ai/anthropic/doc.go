// Package anthropic implements [ai.LLM] and [ai.StreamLLM] for Anthropic's
// Messages API using plain HTTP and server-sent events.
//
// System messages are hoisted into the top-level system field (the last one
// wins), other roles are coerced to user, and max_tokens defaults to 4096.
// Remaining options are copied into the request body unchanged.
//
// The entry point is [NewAnthropicProvider]. The API key comes from the
// configuration or ANTHROPIC_API_KEY; the anthropic-version header can be
// changed with the anthropic_version key of the configuration's Extra map.
package anthropic

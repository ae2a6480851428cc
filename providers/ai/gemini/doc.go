// Package gemini implements [ai.LLM] and [ai.StreamLLM] for Google's
// Generative Language API (generateContent and streamGenerateContent).
//
// The API has no system role, so a system message is sent as a user turn
// followed by a model turn acknowledging it. The "config" option is sent as
// generationConfig. Authentication uses the x-goog-api-key header with the key
// from the configuration or GOOGLE_API_KEY.
package gemini

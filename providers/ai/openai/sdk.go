//go:build !noopenaisdk

package openai

import (
	"context"
	"encoding/json"
	"slices"

	sdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/leofalp/llmblanket/providers/ai"
)

// sdkBackend is the connection handle built on the official SDK.
type sdkBackend struct {
	client sdk.Client
}

func newBackend(settings handleSettings) (backend, error) {
	opts := []option.RequestOption{
		option.WithAPIKey(settings.apiKey),
		option.WithBaseURL(settings.baseURL),
		// retries are the caller's business
		option.WithMaxRetries(0),
	}
	if settings.organization != "" {
		opts = append(opts, option.WithOrganization(settings.organization))
	}
	if settings.project != "" {
		opts = append(opts, option.WithProject(settings.project))
	}
	if settings.timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(settings.timeout))
	}
	if settings.httpClient != nil {
		opts = append(opts, option.WithHTTPClient(settings.httpClient))
	}
	for key, value := range settings.headers {
		opts = append(opts, option.WithHeader(key, value))
	}

	return &sdkBackend{client: sdk.NewClient(opts...)}, nil
}

func (b *sdkBackend) complete(ctx context.Context, req chatRequest) (*ai.Response, error) {
	params, opts := requestParams(req)

	completion, err := b.client.Chat.Completions.New(ctx, params, opts...)
	if err != nil {
		return nil, err
	}
	return responseFromCompletion(completion, req.model), nil
}

func (b *sdkBackend) stream(ctx context.Context, req chatRequest) (*ai.ChunkStream, error) {
	params, opts := requestParams(req)

	stream := b.client.Chat.Completions.NewStreaming(ctx, params, opts...)

	// The request is sent on the first Next; advancing once here reports
	// auth and status failures before a stream is handed out.
	pending := stream.Next()
	if !pending {
		if err := stream.Err(); err != nil {
			_ = stream.Close()
			return nil, err
		}
	}

	var chunks *ai.ChunkStream
	iterator := func(yield func(ai.StreamChunk, error) bool) {
		defer func() { _ = chunks.Close() }()

		for pending || stream.Next() {
			pending = false
			event := stream.Current()
			if len(event.Choices) == 0 {
				continue
			}
			choice := event.Choices[0]
			chunk := ai.StreamChunk{
				Content:      choice.Delta.Content,
				FinishReason: string(choice.FinishReason),
			}
			if !yield(chunk, nil) {
				return
			}
		}

		if err := stream.Err(); err != nil {
			yield(ai.StreamChunk{}, err)
		}
	}

	chunks = ai.NewChunkStream(iterator, stream)
	return chunks, nil
}

// requestParams builds the typed params plus one JSON override per
// passthrough option. Messages that carry content blocks or roles the typed
// params cannot express are sent verbatim through a "messages" override.
func requestParams(req chatRequest) (sdk.ChatCompletionNewParams, []option.RequestOption) {
	params := sdk.ChatCompletionNewParams{
		Model:    shared.ChatModel(req.model),
		Messages: typedMessages(req.messages),
	}

	var opts []option.RequestOption
	if needsGenericMessages(req.messages) {
		opts = append(opts, option.WithJSONSet("messages", ai.ToGeneric(req.messages)))
	}

	keys := make([]string, 0, len(req.options))
	for key := range req.options {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		opts = append(opts, option.WithJSONSet(key, req.options[key]))
	}

	return params, opts
}

func needsGenericMessages(messages []ai.Message) bool {
	for _, message := range messages {
		if message.HasParts() {
			return true
		}
		switch message.Role {
		case ai.RoleSystem, ai.RoleUser, ai.RoleAssistant:
		default:
			return true
		}
	}
	return false
}

func typedMessages(messages []ai.Message) []sdk.ChatCompletionMessageParamUnion {
	out := make([]sdk.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, message := range messages {
		text := message.Text()
		switch message.Role {
		case ai.RoleSystem:
			out = append(out, sdk.ChatCompletionMessageParamUnion{
				OfSystem: &sdk.ChatCompletionSystemMessageParam{
					Content: sdk.ChatCompletionSystemMessageParamContentUnion{OfString: sdk.String(text)},
				},
			})
		case ai.RoleAssistant:
			out = append(out, sdk.ChatCompletionMessageParamUnion{
				OfAssistant: &sdk.ChatCompletionAssistantMessageParam{
					Content: sdk.ChatCompletionAssistantMessageParamContentUnion{OfString: sdk.String(text)},
				},
			})
		default:
			out = append(out, sdk.ChatCompletionMessageParamUnion{
				OfUser: &sdk.ChatCompletionUserMessageParam{
					Content: sdk.ChatCompletionUserMessageParamContentUnion{OfString: sdk.String(text)},
				},
			})
		}
	}
	return out
}

func responseFromCompletion(completion *sdk.ChatCompletion, requestModel string) *ai.Response {
	raw := completion.RawJSON()

	response := &ai.Response{
		ID:    completion.ID,
		Model: completion.Model,
		Raw:   json.RawMessage(raw),
	}
	if response.Model == "" {
		response.Model = requestModel
	}

	shape := inspectRaw(raw)
	if shape.hasUsage {
		response.Usage = &ai.Usage{
			PromptTokens:     int(completion.Usage.PromptTokens),
			CompletionTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:      int(completion.Usage.TotalTokens),
		}
	}

	if len(completion.Choices) == 0 {
		return response
	}

	choice := completion.Choices[0]
	response.FinishReason = string(choice.FinishReason)
	response.Content = choice.Message.Content
	if shape.blockContent != nil {
		response.Content = coalesceBlocks(shape.blockContent)
	}

	for _, call := range choice.Message.ToolCalls {
		if call.Type != "function" {
			continue
		}
		function := call.AsFunction()
		response.ToolCalls = append(response.ToolCalls, ai.ToolCall{
			ID:   function.ID,
			Type: "function",
			Function: ai.ToolCallFunction{
				Name:      function.Function.Name,
				Arguments: function.Function.Arguments,
			},
		})
	}

	return response
}

package parse

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/leofalp/llmblanket/providers/ai"
)

// As converts model output into T.
//
// Primitive targets (string, bool, ints, floats) are converted directly;
// a {"type": ..., "value": ...} envelope around the value is unwrapped first
// when direct conversion fails. Everything else is decoded as JSON after
// stripping a surrounding markdown code fence. When decoding fails the text
// is passed through jsonrepair (single quotes, trailing commas, truncated
// output, Python constants) and retried, and as a last resort schema-style
// envelopes are unwrapped recursively.
//
//	type Verdict struct {
//	    Label string  `json:"label"`
//	    Score float64 `json:"score"`
//	}
//	verdict, err := parse.As[Verdict]("```json\n{label: 'spam', score: 0.93,}\n```")
func As[T any](content string) (T, error) {
	var result T
	target := reflect.ValueOf(&result).Elem()
	content = strings.TrimSpace(content)

	switch target.Kind() {
	case reflect.String:
		if strings.HasPrefix(content, "{") {
			if unwrapped, err := unwrapPrimitive(content); err == nil {
				content = unwrapped
			}
		}
		target.SetString(content)
		return result, nil

	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		err := setPrimitive(target, content)
		if err == nil {
			return result, nil
		}
		if unwrapped, unwrapErr := unwrapPrimitive(content); unwrapErr == nil {
			if retryErr := setPrimitive(target, unwrapped); retryErr == nil {
				return result, nil
			}
		}
		return result, err
	}

	content = stripCodeFence(content)

	err := json.Unmarshal([]byte(content), &result)
	if err == nil {
		return result, nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(content)
	if repairErr != nil {
		return result, fmt.Errorf("failed to unmarshal content as %T and failed to repair JSON: unmarshal error: %w, repair error: %v", result, err, repairErr)
	}

	if err = json.Unmarshal([]byte(repaired), &result); err == nil {
		return result, nil
	}

	if unwrapped, unwrapErr := unwrapSchemaValues(repaired); unwrapErr == nil {
		var retry T
		if json.Unmarshal([]byte(unwrapped), &retry) == nil {
			return retry, nil
		}
	}

	return result, fmt.Errorf("failed to unmarshal repaired JSON as %T: %w (repaired: %s)", result, err, repaired)
}

// ResponseAs parses the text content of a unified response.
func ResponseAs[T any](response *ai.Response) (T, error) {
	if response == nil {
		var zero T
		return zero, errors.New("nil response")
	}
	return As[T](response.Content)
}

// ToolArguments decodes the JSON-encoded arguments of a tool call the model
// requested. Execution of the tool is left to the caller.
func ToolArguments[T any](call ai.ToolCall) (T, error) {
	arguments := call.Function.Arguments
	if strings.TrimSpace(arguments) == "" {
		arguments = "{}"
	}

	value, err := As[T](arguments)
	if err != nil {
		return value, fmt.Errorf("tool call %s (%s): %w", call.ID, call.Function.Name, err)
	}
	return value, nil
}

func setPrimitive(target reflect.Value, content string) error {
	switch target.Kind() {
	case reflect.Bool:
		value, err := strconv.ParseBool(content)
		if err != nil {
			return fmt.Errorf("failed to parse content as bool: %w", err)
		}
		target.SetBool(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		value, err := strconv.ParseInt(content, 10, target.Type().Bits())
		if err != nil {
			return fmt.Errorf("failed to parse content as int: %w", err)
		}
		target.SetInt(value)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		value, err := strconv.ParseUint(content, 10, target.Type().Bits())
		if err != nil {
			return fmt.Errorf("failed to parse content as uint: %w", err)
		}
		target.SetUint(value)
	case reflect.Float32, reflect.Float64:
		value, err := strconv.ParseFloat(content, target.Type().Bits())
		if err != nil {
			return fmt.Errorf("failed to parse content as float: %w", err)
		}
		target.SetFloat(value)
	}
	return nil
}

// stripCodeFence removes a ```lang ... ``` wrapper around the whole content.
func stripCodeFence(content string) string {
	if !strings.HasPrefix(content, "```") {
		return content
	}
	body := strings.TrimPrefix(content, "```")
	if newline := strings.IndexByte(body, '\n'); newline >= 0 {
		body = body[newline+1:]
	}
	body = strings.TrimSpace(body)
	return strings.TrimSpace(strings.TrimSuffix(body, "```"))
}

// unwrapPrimitive extracts the value of a {"type": ..., "value": ...} envelope.
func unwrapPrimitive(content string) (string, error) {
	var envelope map[string]any
	if err := json.Unmarshal([]byte(content), &envelope); err != nil {
		return "", err
	}

	value, ok := schemaValue(envelope)
	if !ok {
		return "", errors.New("not a schema-wrapped value")
	}

	switch typed := value.(type) {
	case string:
		return typed, nil
	case float64, bool:
		return fmt.Sprintf("%v", typed), nil
	default:
		encoded, err := json.Marshal(typed)
		if err != nil {
			return "", err
		}
		return string(encoded), nil
	}
}

// unwrapSchemaValues rewrites {"name": {"type": "string", "value": "John"}}
// as {"name": "John"} at every depth. Models sometimes echo the schema
// shape instead of plain data.
func unwrapSchemaValues(content string) (string, error) {
	var data any
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return "", err
	}

	encoded, err := json.Marshal(unwrapRecursive(data))
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func unwrapRecursive(data any) any {
	switch typed := data.(type) {
	case map[string]any:
		if value, ok := schemaValue(typed); ok {
			return unwrapRecursive(value)
		}
		result := make(map[string]any, len(typed))
		for key, value := range typed {
			result[key] = unwrapRecursive(value)
		}
		return result
	case []any:
		result := make([]any, len(typed))
		for i, value := range typed {
			result[i] = unwrapRecursive(value)
		}
		return result
	default:
		return data
	}
}

func schemaValue(envelope map[string]any) (any, bool) {
	if len(envelope) != 2 {
		return nil, false
	}
	if _, hasType := envelope["type"]; !hasType {
		return nil, false
	}
	value, hasValue := envelope["value"]
	return value, hasValue
}

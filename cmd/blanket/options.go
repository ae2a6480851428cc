package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/leofalp/llmblanket/providers/ai"
)

// parseOptions turns key=value pairs into backend options. Values that decode
// as JSON keep their JSON type, so max_tokens=256 is a number and
// stop=["\n"] a list; anything else is passed as a string.
func parseOptions(pairs []string) (ai.Options, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	options := make(ai.Options, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: option %q is not key=value", ai.ErrInvalidArgument, pair)
		}

		var decoded any
		if err := json.Unmarshal([]byte(value), &decoded); err != nil {
			decoded = value
		}
		options[key] = decoded
	}
	return options, nil
}

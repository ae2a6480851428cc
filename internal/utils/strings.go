package utils

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// DefaultMaxStringLength is the default maximum length for truncated strings
const DefaultMaxStringLength = 500

// maxPayloadPreview bounds request bodies written to TRACE logs.
const maxPayloadPreview = 4000

// TruncateString shortens s to at most maxLen bytes, cutting on a rune
// boundary and recording the original length so readers know data was
// omitted. If maxLen is zero or negative, [DefaultMaxStringLength] is used.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxStringLength
	}
	if len(s) <= maxLen {
		return s
	}

	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return fmt.Sprintf("%s... (truncated, total: %d chars)", s[:cut], len(s))
}

// JSONPreview encodes v for TRACE logs, truncated like [TruncateString].
func JSONPreview(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("<unencodable %T: %v>", v, err)
	}
	return TruncateString(string(data), maxPayloadPreview)
}

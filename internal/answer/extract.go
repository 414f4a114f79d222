package answer

import (
	"strings"

	"github.com/tidwall/gjson"
)

// FallbackNoAnswer is returned when no usable text can be extracted from a
// model response.
const FallbackNoAnswer = "I couldn't find a relevant answer in the document."

// ExtractAnswer pulls answer text out of a raw model response. Providers
// and middleboxes do not agree on response shape, so extraction tries a
// sequence of known layouts before giving up:
//
//  1. chat completions: choices[0].message.content
//  2. a top-level "answer", "output", or "result" string field
//  3. a bare JSON string, or non-JSON plain text
//  4. the first non-empty top-level string field, in document order
//
// If nothing matches, FallbackNoAnswer is returned.
func ExtractAnswer(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return FallbackNoAnswer
	}

	if !gjson.Valid(raw) {
		// Plain text response.
		return raw
	}

	root := gjson.Parse(raw)

	if content := root.Get("choices.0.message.content"); content.Type == gjson.String && content.Str != "" {
		return content.Str
	}

	for _, key := range []string{"answer", "output", "result"} {
		if v := root.Get(key); v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}

	if root.Type == gjson.String && root.Str != "" {
		return root.Str
	}

	var found string
	if root.IsObject() {
		root.ForEach(func(_, value gjson.Result) bool {
			if value.Type == gjson.String && value.Str != "" {
				found = value.Str
				return false
			}
			return true
		})
	}
	if found != "" {
		return found
	}

	return FallbackNoAnswer
}

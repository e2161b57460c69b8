// Package extract locates a JSON object embedded in model-generated text.
package extract

import (
	"errors"

	"github.com/tidwall/gjson"
)

// ErrNoJSONObject is returned when text holds no parseable JSON object.
var ErrNoJSONObject = errors.New("no JSON object found in text")

// Span returns the first balanced top-level {...} in text. Braces inside
// double-quoted strings are ignored. An opening brace that never balances
// is skipped and scanning resumes after it.
func Span(text string) (string, bool) {
	start, end, ok := nextSpan(text, 0)
	if !ok {
		return "", false
	}
	return text[start : end+1], true
}

// Object finds and parses the first JSON object in text. A balanced span
// that is not valid JSON (prose such as "{placeholder}") is passed over in
// favour of a later one.
func Object(text string) (gjson.Result, error) {
	from := 0
	for {
		start, end, ok := nextSpan(text, from)
		if !ok {
			return gjson.Result{}, ErrNoJSONObject
		}
		span := text[start : end+1]
		if gjson.Valid(span) {
			return gjson.Parse(span), nil
		}
		from = end + 1
	}
}

func nextSpan(text string, from int) (int, int, bool) {
	for start := from; start < len(text); start++ {
		if text[start] != '{' {
			continue
		}
		if end, ok := balancedEnd(text, start); ok {
			return start, end, true
		}
	}
	return 0, 0, false
}

func balancedEnd(text string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

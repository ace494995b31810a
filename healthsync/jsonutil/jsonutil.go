// Package jsonutil provides fail-soft JSON helpers: malformed or
// unserializable payloads never raise past the function boundary, a default
// is substituted and a warning is logged instead.
package jsonutil

import (
	"encoding/json"
	"reflect"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// snippetLen caps how much of an offending payload ends up in the logs.
const snippetLen = 100

var logger = zap.NewNop()

// SetLogger routes codec warnings to the given logger. The package is silent
// by default; passing nil restores that.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
}

// SafeMarshal renders v as JSON, falling back to "{}" when v cannot be
// serialized.
func SafeMarshal(v any) string {
	return SafeMarshalDefault(v, "{}")
}

// SafeMarshalDefault renders v as JSON, falling back to def when v cannot be
// serialized.
func SafeMarshalDefault(v any, def string) string {
	out, err := json.Marshal(v)
	if err != nil {
		logger.Warn("failed to serialize to JSON, using default value",
			zap.Error(err))
		return def
	}
	return string(out)
}

// SafeUnmarshal parses a JSON payload, substituting def on any failure.
//
// Already-structured values (any map or slice) pass through without a parse;
// nil and non-string inputs yield def. With attemptDoubleDecode set, a first
// parse that yields a string starting with '{' or '[' is parsed a second
// time, silently keeping the first result when the inner parse fails.
func SafeUnmarshal(data any, def any, attemptDoubleDecode bool) any {
	if data == nil {
		return def
	}

	switch reflect.ValueOf(data).Kind() {
	case reflect.Map, reflect.Slice:
		return data
	}

	raw, ok := data.(string)
	if !ok {
		return def
	}

	var result any
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		logger.Warn("failed to deserialize JSON",
			zap.Error(err),
			zap.String("input", truncate(raw)))
		return def
	}

	if attemptDoubleDecode {
		if inner, ok := result.(string); ok && looksLikeJSON(inner) {
			var second any
			if err := json.Unmarshal([]byte(inner), &second); err == nil {
				return second
			}
		}
	}

	return result
}

func looksLikeJSON(s string) bool {
	return strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[")
}

func truncate(s string) string {
	if len(s) <= snippetLen {
		return s
	}
	cut := snippetLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

package jsonutil

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSafeMarshal(t *testing.T) {
	t.Run("serializable value", func(t *testing.T) {
		assert.Equal(t, `{"a":1}`, SafeMarshal(map[string]any{"a": 1}))
	})

	t.Run("unserializable value falls back", func(t *testing.T) {
		assert.Equal(t, "{}", SafeMarshal(make(chan int)))
	})

	t.Run("caller default", func(t *testing.T) {
		assert.Equal(t, "[]", SafeMarshalDefault(make(chan int), "[]"))
	})
}

func TestSafeUnmarshal(t *testing.T) {
	t.Run("valid json", func(t *testing.T) {
		assert.Equal(t, map[string]any{"a": float64(1)}, SafeUnmarshal(`{"a":1}`, nil, false))
	})

	t.Run("nil input returns default", func(t *testing.T) {
		assert.Nil(t, SafeUnmarshal(nil, nil, false))
		assert.Equal(t, map[string]any{}, SafeUnmarshal(nil, map[string]any{}, false))
	})

	t.Run("map passes through unparsed", func(t *testing.T) {
		input := map[string]any{"a": 1}
		assert.Equal(t, input, SafeUnmarshal(input, nil, false))
	})

	t.Run("slice passes through unparsed", func(t *testing.T) {
		input := []any{1, 2}
		assert.Equal(t, input, SafeUnmarshal(input, nil, false))
	})

	t.Run("typed slices and maps pass through unparsed", func(t *testing.T) {
		strs := []string{"a", "b"}
		assert.Equal(t, strs, SafeUnmarshal(strs, nil, false))

		m := map[string]string{"a": "b"}
		assert.Equal(t, m, SafeUnmarshal(m, nil, false))
	})

	t.Run("non-string input returns default", func(t *testing.T) {
		assert.Equal(t, "fallback", SafeUnmarshal(42, "fallback", false))
	})

	t.Run("malformed json returns default", func(t *testing.T) {
		assert.Equal(t, map[string]any{}, SafeUnmarshal("not json", map[string]any{}, false))
	})

	t.Run("double-encoded payload", func(t *testing.T) {
		// json.Marshal of the string `{"a":1}`
		payload := `"{\"a\":1}"`

		assert.Equal(t, map[string]any{"a": float64(1)}, SafeUnmarshal(payload, nil, true))

		// Without the flag the first parse result stands.
		assert.Equal(t, `{"a":1}`, SafeUnmarshal(payload, nil, false))
	})

	t.Run("inner parse failure keeps first result", func(t *testing.T) {
		payload := `"{not valid"`
		assert.Equal(t, "{not valid", SafeUnmarshal(payload, nil, true))
	})

	t.Run("inner value not json-shaped is kept", func(t *testing.T) {
		assert.Equal(t, "plain text", SafeUnmarshal(`"plain text"`, nil, true))
	})
}

func TestWarningsAreLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	t.Run("marshal failure", func(t *testing.T) {
		SafeMarshal(make(chan int))
		require.NotZero(t, logs.Len())
		assert.Contains(t, logs.All()[logs.Len()-1].Message, "failed to serialize")
	})

	t.Run("unmarshal failure includes truncated input", func(t *testing.T) {
		long := strings.Repeat("x", 300)
		SafeUnmarshal(long, nil, false)

		entry := logs.All()[logs.Len()-1]
		assert.Contains(t, entry.Message, "failed to deserialize")
		fields := entry.ContextMap()
		assert.Len(t, fields["input"], 100)
	})

	t.Run("truncation never splits a rune", func(t *testing.T) {
		long := strings.Repeat("x", 99) + "日本語"
		SafeUnmarshal(long, nil, false)

		entry := logs.All()[logs.Len()-1]
		snippet := entry.ContextMap()["input"].(string)
		assert.True(t, utf8.ValidString(snippet))
		assert.Equal(t, strings.Repeat("x", 99), snippet)
	})
}

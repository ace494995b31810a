package strcase

import (
	"strings"
	"unicode"
)

// ToSnakeCase converts camelCase or PascalCase to snake_case.
// Runs of uppercase letters collapse into a single word until a lowercase
// letter follows (XMLHttpRequest -> xml_http_request).
func ToSnakeCase(s string) string {
	if s == "" {
		return s
	}

	runes := []rune(s)

	var b strings.Builder
	b.Grow(len(runes) + len(runes)/2)
	b.WriteRune(unicode.ToLower(runes[0]))
	lastUnderscore := runes[0] == '_'

	for i := 1; i < len(runes); i++ {
		curr := runes[i]
		prev := runes[i-1]

		if unicode.IsUpper(curr) && !lastUnderscore {
			// Word boundary: either we just left a lowercase/digit run, or an
			// uppercase run is about to end in a lowercase letter.
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			prevAlnum := unicode.IsLetter(prev) || unicode.IsDigit(prev)
			if (prevAlnum && !unicode.IsUpper(prev)) || nextLower {
				b.WriteByte('_')
			}
		}

		b.WriteRune(unicode.ToLower(curr))
		lastUnderscore = curr == '_'
	}

	return b.String()
}

// SnakeCaseKeys returns a copy of data with every map key converted to
// snake_case. Map values are converted recursively; slices and scalars pass
// through unchanged, so anything that is not a map[string]any is returned
// as-is.
func SnakeCaseKeys(data any) any {
	m, ok := data.(map[string]any)
	if !ok {
		return data
	}

	out := make(map[string]any, len(m))
	for key, value := range m {
		out[ToSnakeCase(key)] = SnakeCaseKeys(value)
	}
	return out
}

package placeholder

import "strings"

// fallbackFunc renders a token that has neither a value nor a default.
type fallbackFunc func(text string, tok Token) string

// Replace resolves every token in text. A token takes its non-empty value
// from values, else its own non-empty default; otherwise the original token
// text is kept verbatim. Replace is idempotent once values cover every name.
func Replace(text string, values map[string]string) string {
	return substitute(text, values, keepLiteral)
}

// Preview resolves tokens like Replace, but renders a token with neither a
// value nor a default as {{name}}, dropping any default segment.
func Preview(text string, values map[string]string) string {
	return substitute(text, values, bareName)
}

// Unresolved returns, in order, the names with at least one occurrence that
// Replace would leave as literal token text.
func Unresolved(text string, values map[string]string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, tok := range Tokens(text) {
		if tok.Name == "" || seen[tok.Name] {
			continue
		}
		if _, ok := resolve(tok, values); ok {
			continue
		}
		seen[tok.Name] = true
		names = append(names, tok.Name)
	}
	return names
}

// substitute rebuilds text in a single left-to-right pass over one scan.
// Spans between tokens are copied as-is, so replacement lengths never affect
// the offsets of tokens that follow.
func substitute(text string, values map[string]string, fallback fallbackFunc) string {
	tokens := Tokens(text)
	if len(tokens) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))

	last := 0
	for _, tok := range tokens {
		b.WriteString(text[last:tok.Start])
		last = tok.End()

		if tok.Name == "" {
			b.WriteString(text[tok.Start:tok.End()])
			continue
		}
		if v, ok := resolve(tok, values); ok {
			b.WriteString(v)
			continue
		}
		b.WriteString(fallback(text, tok))
	}
	b.WriteString(text[last:])

	return b.String()
}

func resolve(tok Token, values map[string]string) (string, bool) {
	if v := values[tok.Name]; v != "" {
		return v, true
	}
	if tok.Default != "" {
		return tok.Default, true
	}
	return "", false
}

func keepLiteral(text string, tok Token) string {
	return text[tok.Start:tok.End()]
}

func bareName(_ string, tok Token) string {
	return Wrap(tok.Name)
}

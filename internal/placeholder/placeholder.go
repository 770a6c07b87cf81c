// Package placeholder parses and resolves {{name|default}} markers in prompt text.
//
// A token is "{{", one or more characters other than "}", then "}}". The inner
// content is split on the first "|": the left side is the placeholder name and
// the right side, if present, is an embedded default value. Both are trimmed.
//
// Every function in this package is pure. Malformed markers are plain text and
// tokens with an empty name are never listed or resolved.
package placeholder

import (
	"regexp"
	"strings"
)

const (
	openDelim  = "{{"
	closeDelim = "}}"
	separator  = "|"
)

var tokenPattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// Token is one placeholder occurrence found during a scan.
// Start and Length are byte offsets into the scanned text.
type Token struct {
	Name    string
	Default string
	Start   int
	Length  int
}

// End returns the byte offset just past the token.
func (t Token) End() int {
	return t.Start + t.Length
}

// HasDefault reports whether the token carries a non-empty embedded default.
func (t Token) HasDefault() bool {
	return t.Default != ""
}

// Tokens scans text and returns every well-formed token in order of appearance,
// including repeats and tokens whose name is empty.
func Tokens(text string) []Token {
	if text == "" {
		return nil
	}

	matches := tokenPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	tokens := make([]Token, 0, len(matches))
	for _, m := range matches {
		inner := text[m[2]:m[3]]
		tokens = append(tokens, Token{
			Name:    ExtractName(inner),
			Default: ExtractDefault(inner),
			Start:   m[0],
			Length:  m[1] - m[0],
		})
	}
	return tokens
}

// Extract returns the distinct placeholder names in text, in order of first
// appearance. Names are case-sensitive and trimmed; empty names are dropped.
func Extract(text string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, tok := range Tokens(text) {
		if tok.Name == "" || seen[tok.Name] {
			continue
		}
		seen[tok.Name] = true
		names = append(names, tok.Name)
	}
	return names
}

// HasPlaceholders reports whether text contains at least one token that
// names a placeholder.
func HasPlaceholders(text string) bool {
	for _, tok := range Tokens(text) {
		if tok.Name != "" {
			return true
		}
	}
	return false
}

// Count returns the number of distinct placeholder names in text.
func Count(text string) int {
	return len(Extract(text))
}

// ExtractName returns the trimmed name portion of a token's inner content.
func ExtractName(inner string) string {
	name, _, _ := strings.Cut(inner, separator)
	return CleanName(name)
}

// ExtractDefault returns the trimmed default portion of a token's inner
// content, or "" when there is no separator.
func ExtractDefault(inner string) string {
	_, def, found := strings.Cut(inner, separator)
	if !found {
		return ""
	}
	return strings.TrimSpace(def)
}

// CleanName normalises a user-supplied placeholder name.
func CleanName(name string) string {
	return strings.TrimSpace(name)
}

// DefaultFor returns the embedded default of the first token named name.
// Later occurrences are ignored even if they carry a different default.
// The boolean is false when no token with that name exists.
func DefaultFor(text, name string) (string, bool) {
	for _, tok := range Tokens(text) {
		if tok.Name == name {
			return tok.Default, true
		}
	}
	return "", false
}

// IsValidPlaceholder reports whether name can be wrapped as {{name}} and read
// back unchanged. Names containing "}" or "|", or blank names, fail.
func IsValidPlaceholder(name string) bool {
	cleaned := CleanName(name)
	if cleaned == "" {
		return false
	}

	wrapped := Wrap(cleaned)
	tokens := Tokens(wrapped)
	if len(tokens) != 1 {
		return false
	}

	tok := tokens[0]
	return tok.Start == 0 &&
		tok.Length == len(wrapped) &&
		tok.Name == cleaned &&
		!strings.Contains(cleaned, separator)
}

// Wrap builds the token syntax for name without validating it.
func Wrap(name string) string {
	return openDelim + name + closeDelim
}

// WrapWithDefault builds a {{name|default}} token. An empty default yields
// the plain {{name}} form.
func WrapWithDefault(name, def string) string {
	if def == "" {
		return Wrap(name)
	}
	return openDelim + name + separator + def + closeDelim
}

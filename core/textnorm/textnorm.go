// Package textnorm normalizes line-ending words into rhyme keys.
//
// A rhyme key is the case-folded form of a token with leading and trailing
// punctuation, symbols and digits removed. Two tokens that differ only in
// case or surrounding punctuation ("Light," and "light") share a key, which
// is what the rhyme oracle caches and compares.
//
// All functions are safe for concurrent use.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Word returns the normalized rhyme key for a single token.
// The result is empty when the token holds no letters after trimming.
func Word(token string) string {
	if token == "" {
		return ""
	}
	trimmed := strings.TrimFunc(norm.NFC.String(token), isTrimmable)
	if trimmed == "" {
		return ""
	}
	// A Caser is stateful, so one is built per call.
	return cases.Fold().String(trimmed)
}

// Words normalizes every token in order. Empty results are kept so that
// indices stay aligned with the input.
func Words(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = Word(tok)
	}
	return out
}

// RhymeKey extracts the rhyme key of a line of verse: the last
// whitespace-delimited token that still has content once normalized.
// ok is false when the line yields no such token.
func RhymeKey(line string) (key string, ok bool) {
	fields := strings.Fields(line)
	for i := len(fields) - 1; i >= 0; i-- {
		if key = Word(fields[i]); key != "" {
			return key, true
		}
	}
	return "", false
}

// CleanLine strips surrounding punctuation and digits from every token of a
// line and rejoins the survivors with single spaces. Case is preserved.
func CleanLine(line string) string {
	fields := strings.Fields(line)
	kept := fields[:0]
	for _, f := range fields {
		if c := strings.TrimFunc(f, isTrimmable); c != "" {
			kept = append(kept, c)
		}
	}
	return strings.Join(kept, " ")
}

func isTrimmable(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsDigit(r) || unicode.IsSpace(r)
}

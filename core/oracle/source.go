package oracle

import (
	"context"
	"slices"
)

// Source is the external provider of rhyme candidates.
// Implementations return candidates ordered best first.
type Source interface {
	WordRhymes(ctx context.Context, word string, maxResults int) ([]string, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, word string, maxResults int) ([]string, error)

// WordRhymes calls f.
func (f SourceFunc) WordRhymes(ctx context.Context, word string, maxResults int) ([]string, error) {
	return f(ctx, word, maxResults)
}

// MapSource is an in-memory Source, mainly for tests and offline runs.
// Words without an entry have no rhymes.
type MapSource map[string][]string

// WordRhymes returns a copy of the word's candidates, truncated to maxResults.
func (m MapSource) WordRhymes(_ context.Context, word string, maxResults int) ([]string, error) {
	rhymes := m[word]
	if maxResults > 0 && len(rhymes) > maxResults {
		rhymes = rhymes[:maxResults]
	}
	return slices.Clone(rhymes), nil
}

// Link records a and b as rhyming in both directions.
func (m MapSource) Link(a, b string) MapSource {
	if !slices.Contains(m[a], b) {
		m[a] = append(m[a], b)
	}
	if !slices.Contains(m[b], a) {
		m[b] = append(m[b], a)
	}
	return m
}

package rhyme

import (
	"context"

	"github.com/FocuswithJustin/Rhymer/core/partition"
	"github.com/FocuswithJustin/Rhymer/core/scheme"
)

// Oracle answers rhyme queries for the engine.
type Oracle = scheme.Oracle

// Group links every pair of lines whose ending words rhyme and returns the
// connected components. Lines that rhyme with nothing form singleton groups,
// so the result covers 0..len(words)-1.
//
// All words are loaded first; the O(n^2) comparisons that follow are cache
// reads.
func Group(ctx context.Context, o Oracle, words []string) (partition.Partition, error) {
	if len(words) == 0 {
		return partition.Partition{}, nil
	}
	if err := o.EnsureLoaded(ctx, words); err != nil {
		return nil, err
	}

	ds := partition.NewDisjointSet()
	for i := range words {
		ds.Add(i)
	}
	for i := 0; i < len(words); i++ {
		for j := i + 1; j < len(words); j++ {
			if ds.Connected(i, j) {
				continue
			}
			if o.IsRhyme(words[i], words[j]) {
				ds.Union(i, j)
			}
		}
	}
	return ds.Components(), nil
}

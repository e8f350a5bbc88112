// Package stats aggregates rhyme labelings across a corpus.
package stats

import (
	"math"
	"sort"

	"github.com/FocuswithJustin/Rhymer/core/partition"
)

// Sizes summarizes rhyme group sizes.
type Sizes struct {
	Groups  int     `json:"groups"`
	Mean    float64 `json:"mean"`
	Largest int     `json:"largest"`
	StdDev  float64 `json:"stddev"` // sample standard deviation; 0 with fewer than two groups
}

// GroupSizes summarizes the sizes of every group in every partition.
// Singleton groups count; a line that rhymes with nothing is a group of one.
func GroupSizes(parts []partition.Partition) Sizes {
	var sizes []int
	for _, p := range parts {
		sizes = append(sizes, p.GroupSizes()...)
	}
	s := Sizes{Groups: len(sizes)}
	if len(sizes) == 0 {
		return s
	}

	total := 0
	for _, n := range sizes {
		total += n
		s.Largest = max(s.Largest, n)
	}
	s.Mean = float64(total) / float64(len(sizes))

	if len(sizes) > 1 {
		var sq float64
		for _, n := range sizes {
			d := float64(n) - s.Mean
			sq += d * d
		}
		s.StdDev = math.Sqrt(sq / float64(len(sizes)-1))
	}
	return s
}

// WordPair is an unordered pair of rhyme keys, stored with A <= B.
type WordPair struct {
	A, B string
}

func newWordPair(a, b string) WordPair {
	if a > b {
		a, b = b, a
	}
	return WordPair{A: a, B: b}
}

// Labeled is the view of a poem the corpus statistics need.
type Labeled struct {
	ID     string
	Words  []string // rhyme keys by line
	Groups partition.Partition
}

// SharedRhymePairs maps every pair of distinct rhyme keys that some poem
// places in one group to the IDs of the poems that do, ascending.
func SharedRhymePairs(poems []Labeled) map[WordPair][]string {
	users := make(map[WordPair]map[string]struct{})
	for _, p := range poems {
		for _, pr := range p.Groups.Pairs() {
			if pr.A >= len(p.Words) || pr.B >= len(p.Words) {
				continue
			}
			a, b := p.Words[pr.A], p.Words[pr.B]
			if a == b {
				continue
			}
			wp := newWordPair(a, b)
			if users[wp] == nil {
				users[wp] = make(map[string]struct{})
			}
			users[wp][p.ID] = struct{}{}
		}
	}

	out := make(map[WordPair][]string, len(users))
	for wp, ids := range users {
		out[wp] = sortedKeys(ids)
	}
	return out
}

// Link is a pair of poems and the rhyme pairs they have in common.
type Link struct {
	A, B   string
	Shared []WordPair
}

// PoemLinks lists every pair of poems sharing at least one rhyme pair,
// ordered by descending share count, then by IDs.
func PoemLinks(shared map[WordPair][]string) []Link {
	type key struct{ a, b string }
	byPoems := make(map[key][]WordPair)
	for wp, ids := range shared {
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				k := key{ids[i], ids[j]}
				byPoems[k] = append(byPoems[k], wp)
			}
		}
	}

	links := make([]Link, 0, len(byPoems))
	for k, pairs := range byPoems {
		sort.Slice(pairs, func(i, j int) bool {
			if pairs[i].A != pairs[j].A {
				return pairs[i].A < pairs[j].A
			}
			return pairs[i].B < pairs[j].B
		})
		links = append(links, Link{A: k.a, B: k.b, Shared: pairs})
	}
	sort.Slice(links, func(i, j int) bool {
		if len(links[i].Shared) != len(links[j].Shared) {
			return len(links[i].Shared) > len(links[j].Shared)
		}
		if links[i].A != links[j].A {
			return links[i].A < links[j].A
		}
		return links[i].B < links[j].B
	})
	return links
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

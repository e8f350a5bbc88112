package scheme

import (
	"github.com/FocuswithJustin/Rhymer/core/partition"
)

// Stanza lengths.
const (
	CoupletLength  = 2
	TercetsLength  = 6
	QuatrainLength = 4
	OctaveLength   = 8
	SonnetLength   = 14
)

// Template is one candidate rhyme pattern for a stanza. Pairs hold local,
// 0-based indices within the stanza.
type Template struct {
	Name  string
	Pairs []partition.Pair
}

// Shift returns the template's pairs offset by delta, as a partition of
// two-line groups.
func (t Template) Shift(delta int) partition.Partition {
	out := make(partition.Partition, len(t.Pairs))
	for i, p := range t.Pairs {
		out[i] = []int{p.A + delta, p.B + delta}
	}
	return out
}

// Length returns the smallest stanza length the template fits.
func (t Template) Length() int {
	n := 0
	for _, p := range t.Pairs {
		n = max(n, p.B+1)
	}
	return n
}

func (t Template) clone() Template {
	pairs := make([]partition.Pair, len(t.Pairs))
	copy(pairs, t.Pairs)
	return Template{Name: t.Name, Pairs: pairs}
}

// Template tables. Order matters: earlier templates win ties.
var (
	coupletTemplates = []Template{
		{Name: "AA", Pairs: []partition.Pair{{A: 0, B: 1}}},
	}
	quatrainTemplates = []Template{
		{Name: "ABBA", Pairs: []partition.Pair{{A: 0, B: 3}, {A: 1, B: 2}}},
		{Name: "ABAB", Pairs: []partition.Pair{{A: 0, B: 2}, {A: 1, B: 3}}},
		{Name: "AABB", Pairs: []partition.Pair{{A: 0, B: 1}, {A: 2, B: 3}}},
	}
	tercetTemplates = []Template{
		{Name: "ABCABC", Pairs: []partition.Pair{{A: 0, B: 3}, {A: 1, B: 4}, {A: 2, B: 5}}},
		{Name: "AABCCB", Pairs: []partition.Pair{{A: 0, B: 1}, {A: 2, B: 5}, {A: 3, B: 4}}},
	}
)

// Templates returns a copy of the template table for a stanza length
// (2, 4 or 6), or nil for any other length.
func Templates(length int) []Template {
	var table []Template
	switch length {
	case CoupletLength:
		table = coupletTemplates
	case QuatrainLength:
		table = quatrainTemplates
	case TercetsLength:
		table = tercetTemplates
	default:
		return nil
	}
	out := make([]Template, len(table))
	for i, t := range table {
		out[i] = t.clone()
	}
	return out
}

package partition

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Partition is a list of rhyme groups, each a list of line indices.
type Partition [][]int

// Pair is an unordered pair of line indices, stored with A < B.
type Pair struct {
	A, B int
}

// NewPair orders a and b.
func NewPair(a, b int) Pair {
	if a > b {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

// Normalize returns a copy with indices sorted in each group and groups
// ordered by their smallest index. Empty groups are dropped. Duplicate
// indices within a group collapse to one.
func (p Partition) Normalize() Partition {
	out := make(Partition, 0, len(p))
	for _, g := range p {
		if len(g) == 0 {
			continue
		}
		c := slices.Clone(g)
		sort.Ints(c)
		out = append(out, slices.Compact(c))
	}
	sortGroups(out)
	return out
}

// Indices returns every referenced index once, ascending.
func (p Partition) Indices() []int {
	seen := make(map[int]struct{})
	var out []int
	for _, g := range p {
		for _, i := range g {
			if _, ok := seen[i]; !ok {
				seen[i] = struct{}{}
				out = append(out, i)
			}
		}
	}
	sort.Ints(out)
	return out
}

// Pairs returns every unordered pair of indices sharing a group, ascending.
func (p Partition) Pairs() []Pair {
	set := make(map[Pair]struct{})
	for _, g := range p {
		for i := 0; i < len(g); i++ {
			for j := i + 1; j < len(g); j++ {
				if g[i] != g[j] {
					set[NewPair(g[i], g[j])] = struct{}{}
				}
			}
		}
	}
	out := make([]Pair, 0, len(set))
	for pr := range set {
		out = append(out, pr)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}

// Disjoint reports whether no index appears in more than one group.
func (p Partition) Disjoint() bool {
	seen := make(map[int]struct{})
	for _, g := range p {
		for _, i := range slices.Compact(slices.Sorted(slices.Values(g))) {
			if _, ok := seen[i]; ok {
				return false
			}
			seen[i] = struct{}{}
		}
	}
	return true
}

// Covers reports whether the partition references exactly the indices 0..n-1.
func (p Partition) Covers(n int) bool {
	idx := p.Indices()
	if len(idx) != n {
		return false
	}
	for i, v := range idx {
		if v != i {
			return false
		}
	}
	return true
}

// Equal reports whether two partitions are identical after normalization.
func (p Partition) Equal(other Partition) bool {
	a, b := p.Normalize(), other.Normalize()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !slices.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Shift returns a copy with every index offset by delta. Groups are not re-sorted.
func (p Partition) Shift(delta int) Partition {
	out := make(Partition, len(p))
	for i, g := range p {
		s := make([]int, len(g))
		for j, v := range g {
			s[j] = v + delta
		}
		out[i] = s
	}
	return out
}

// GroupSizes returns the size of each group in order.
func (p Partition) GroupSizes() []int {
	sizes := make([]int, len(p))
	for i, g := range p {
		sizes[i] = len(g)
	}
	return sizes
}

// String renders the partition as {0,3} {1,2}.
func (p Partition) String() string {
	parts := make([]string, len(p))
	for i, g := range p {
		nums := make([]string, len(g))
		for j, v := range g {
			nums[j] = fmt.Sprint(v)
		}
		parts[i] = "{" + strings.Join(nums, ",") + "}"
	}
	return strings.Join(parts, " ")
}

// Merge combines partitions by connectivity: a disjoint set is built over
// every referenced index, all members of every group are unioned, and the
// resulting components are returned normalized. Merging is monotonic; a link
// asserted by any input survives regardless of the others.
func Merge(parts ...Partition) Partition {
	ds := NewDisjointSet()
	for _, p := range parts {
		for _, g := range p {
			for _, i := range g {
				ds.Add(i)
			}
			// Chaining consecutive members connects the whole group.
			for k := 1; k < len(g); k++ {
				ds.Union(g[0], g[k])
			}
		}
	}
	return ds.Components()
}

func sortGroups(p Partition) {
	sort.SliceStable(p, func(i, j int) bool {
		return p[i][0] < p[j][0]
	})
}

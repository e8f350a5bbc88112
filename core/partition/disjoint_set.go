package partition

import "sort"

// DisjointSet is a union-find over integer indices using path compression
// and union by rank. Elements are added lazily by Add, Union or Find.
// The zero value is not usable; call NewDisjointSet.
type DisjointSet struct {
	parent map[int]int
	rank   map[int]int
}

// NewDisjointSet returns a set seeded with the given indices as singletons.
func NewDisjointSet(indices ...int) *DisjointSet {
	ds := &DisjointSet{
		parent: make(map[int]int, len(indices)),
		rank:   make(map[int]int, len(indices)),
	}
	for _, i := range indices {
		ds.Add(i)
	}
	return ds
}

// Add inserts i as a singleton if it is not already present.
func (ds *DisjointSet) Add(i int) {
	if _, ok := ds.parent[i]; !ok {
		ds.parent[i] = i
		ds.rank[i] = 0
	}
}

// Find returns the root of i, adding i first if needed.
func (ds *DisjointSet) Find(i int) int {
	ds.Add(i)
	// Iterative find with path halving.
	for ds.parent[i] != i {
		ds.parent[i] = ds.parent[ds.parent[i]]
		i = ds.parent[i]
	}
	return i
}

// Union merges the sets of a and b. It reports whether they were disjoint.
func (ds *DisjointSet) Union(a, b int) bool {
	ra, rb := ds.Find(a), ds.Find(b)
	if ra == rb {
		return false
	}
	switch {
	case ds.rank[ra] < ds.rank[rb]:
		ds.parent[ra] = rb
	case ds.rank[ra] > ds.rank[rb]:
		ds.parent[rb] = ra
	default:
		ds.parent[rb] = ra
		ds.rank[ra]++
	}
	return true
}

// Connected reports whether a and b share a set.
func (ds *DisjointSet) Connected(a, b int) bool {
	return ds.Find(a) == ds.Find(b)
}

// Len returns the number of elements.
func (ds *DisjointSet) Len() int {
	return len(ds.parent)
}

// Components returns every set as a normalized Partition, singletons included.
func (ds *DisjointSet) Components() Partition {
	byRoot := make(map[int][]int, len(ds.parent))
	for i := range ds.parent {
		r := ds.Find(i)
		byRoot[r] = append(byRoot[r], i)
	}
	comps := make(Partition, 0, len(byRoot))
	for _, members := range byRoot {
		sort.Ints(members)
		comps = append(comps, members)
	}
	sortGroups(comps)
	return comps
}

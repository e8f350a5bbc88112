package partition

import (
	"slices"
	"testing"
)

func TestDisjointSet(t *testing.T) {
	ds := NewDisjointSet(0, 1, 2, 3)
	if ds.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", ds.Len())
	}

	if !ds.Union(0, 1) {
		t.Error("Union(0,1) should report a merge")
	}
	if !ds.Union(1, 2) {
		t.Error("Union(1,2) should report a merge")
	}
	if ds.Union(0, 2) {
		t.Error("Union(0,2) should be a no-op")
	}
	if !ds.Connected(0, 2) {
		t.Error("0 and 2 should be connected transitively")
	}
	if ds.Connected(0, 3) {
		t.Error("0 and 3 should not be connected")
	}

	got := ds.Components()
	want := Partition{{0, 1, 2}, {3}}
	if !got.Equal(want) {
		t.Errorf("Components() = %v, want %v", got, want)
	}
}

func TestDisjointSetLazyAdd(t *testing.T) {
	ds := NewDisjointSet()
	ds.Union(10, 4)
	if ds.Len() != 2 {
		t.Errorf("Len() = %d, want 2", ds.Len())
	}
	if ds.Find(7) != 7 {
		t.Error("Find on a new element should return itself")
	}
	got := ds.Components()
	want := Partition{{4, 10}, {7}}
	if !slices.EqualFunc(got, want, slices.Equal[[]int]) {
		t.Errorf("Components() = %v, want %v", got, want)
	}
}

func TestDisjointSetLongChain(t *testing.T) {
	ds := NewDisjointSet()
	for i := 0; i < 1000; i++ {
		ds.Union(i, i+1)
	}
	if !ds.Connected(0, 1000) {
		t.Error("chain ends should be connected")
	}
	if n := len(ds.Components()); n != 1 {
		t.Errorf("got %d components, want 1", n)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Partition
		want Partition
	}{
		{"already normal", Partition{{0, 2}, {1, 3}}, Partition{{0, 2}, {1, 3}}},
		{"unsorted groups", Partition{{3, 1}, {2, 0}}, Partition{{0, 2}, {1, 3}}},
		{"drops empty", Partition{{}, {5, 4}}, Partition{{4, 5}}},
		{"dedups members", Partition{{2, 2, 1}}, Partition{{1, 2}}},
		{"nil", nil, Partition{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize()
			if !slices.EqualFunc(got, tt.want, slices.Equal[[]int]) {
				t.Errorf("Normalize() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeDoesNotMutate(t *testing.T) {
	in := Partition{{3, 1}}
	_ = in.Normalize()
	if in[0][0] != 3 {
		t.Error("Normalize mutated its receiver")
	}
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name string
		a, b Partition
		want Partition
	}{
		{
			name: "scheme and group share a line",
			a:    Partition{{0, 3}},
			b:    Partition{{0, 1}},
			want: Partition{{0, 1, 3}},
		},
		{
			name: "empty scheme",
			a:    nil,
			b:    Partition{{0, 1, 2}, {3}},
			want: Partition{{0, 1, 2}, {3}},
		},
		{
			name: "disjoint inputs stay apart",
			a:    Partition{{0, 2}, {1, 3}},
			b:    Partition{{4}, {5}},
			want: Partition{{0, 2}, {1, 3}, {4}, {5}},
		},
		{
			name: "bridging group joins two components",
			a:    Partition{{0, 2}, {1, 3}},
			b:    Partition{{2, 3}, {0}, {1}},
			want: Partition{{0, 1, 2, 3}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.a, tt.b)
			if !slices.EqualFunc(got, tt.want, slices.Equal[[]int]) {
				t.Errorf("Merge() = %v, want %v", got, tt.want)
			}
			if !got.Disjoint() {
				t.Errorf("Merge() result %v is not disjoint", got)
			}
		})
	}
}

func TestMergeMonotonic(t *testing.T) {
	a := Partition{{0, 4}, {1, 5}, {8, 11}}
	b := Partition{{0, 1}, {2}, {3, 7}, {4}, {5}, {6}, {8}, {9, 10}, {11}}
	merged := Merge(a, b)

	ds := NewDisjointSet()
	for _, g := range merged {
		for _, i := range g[1:] {
			ds.Union(g[0], i)
		}
	}
	for _, in := range []Partition{a, b} {
		for _, pr := range in.Pairs() {
			if !ds.Connected(pr.A, pr.B) {
				t.Errorf("pair %v lost in merge", pr)
			}
		}
	}
	referenced := Partition{a.Indices(), b.Indices()}.Indices()
	if !slices.Equal(merged.Indices(), referenced) {
		t.Errorf("merge does not cover all referenced indices: %v", merged.Indices())
	}
}

func TestPairsAndIndices(t *testing.T) {
	p := Partition{{3, 0, 1}, {2}}
	wantPairs := []Pair{{0, 1}, {0, 3}, {1, 3}}
	if got := p.Pairs(); !slices.Equal(got, wantPairs) {
		t.Errorf("Pairs() = %v, want %v", got, wantPairs)
	}
	if got := p.Indices(); !slices.Equal(got, []int{0, 1, 2, 3}) {
		t.Errorf("Indices() = %v", got)
	}
	if NewPair(5, 2) != (Pair{A: 2, B: 5}) {
		t.Error("NewPair should order its arguments")
	}
}

func TestCoversAndDisjoint(t *testing.T) {
	if !(Partition{{0, 2}, {1}, {3}}).Covers(4) {
		t.Error("should cover 0..3")
	}
	if (Partition{{0, 2}, {3}}).Covers(4) {
		t.Error("missing 1 should not cover")
	}
	if (Partition{{0, 1}, {1, 2}}).Disjoint() {
		t.Error("overlapping groups reported disjoint")
	}
}

func TestShiftAndString(t *testing.T) {
	p := Partition{{0, 3}, {1, 2}}.Shift(4)
	if got, want := p.String(), "{4,7} {5,6}"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got := p.GroupSizes(); !slices.Equal(got, []int{2, 2}) {
		t.Errorf("GroupSizes() = %v", got)
	}
}

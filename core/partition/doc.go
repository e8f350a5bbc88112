// Package partition holds the rhyme-group partition type and the disjoint-set
// structure shared by graph grouping and hybrid merging.
//
// A Partition is a list of groups of 0-based line indices. Normalized
// partitions sort the indices inside each group and order groups by their
// smallest index, which makes labels reproducible and directly comparable.
//
// Merge unions any number of partitions: every pair connected in an input
// stays connected in the output, and no input link is ever removed.
package partition

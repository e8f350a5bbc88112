// Package oracle answers "do these two words rhyme?" from a cache of rhyme
// sets filled lazily by an external Source.
//
// The cache maps a normalized headword to at most MaxResults candidate
// rhymes. Entries are written once, on first sight of a word, and are never
// evicted or replaced, so readers need no locking and concurrent workers
// only coordinate on words nobody has fetched yet. A failed lookup writes
// nothing, which makes retrying safe.
//
// The relation reported by a source is not necessarily symmetric, so IsRhyme
// checks both directions.
//
// The cache can be persisted as a flat text file (see Save and Load):
//
//	light, bright, night, sight
//	day, way, may
//
// Paths ending in ".xz" are compressed transparently.
package oracle

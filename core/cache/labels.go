package cache

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/Rhymer/core/partition"
)

// LabelKey identifies a labeling request by a BLAKE3 digest of its mode and
// rhyme keys. Word boundaries are length-prefixed so that ["ab","c"] and
// ["a","bc"] differ.
func LabelKey(mode string, words []string) string {
	h := blake3.New()
	var n [8]byte
	write := func(s string) {
		binary.LittleEndian.PutUint64(n[:], uint64(len(s)))
		h.Write(n[:])
		h.Write([]byte(s))
	}
	write(mode)
	for _, w := range words {
		write(w)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// LabelCache memoizes labelings of identical poems. Partitions are copied
// on the way in and out so callers may modify what they hold.
type LabelCache struct {
	cache Cache[string, partition.Partition]
}

// NewLabelCache creates a labeling memo.
func NewLabelCache(config Config) *LabelCache {
	return &LabelCache{cache: NewLRUCache[string, partition.Partition](config)}
}

// NewDefaultLabelCache creates a labeling memo with the default configuration.
func NewDefaultLabelCache() *LabelCache {
	return NewLabelCache(DefaultConfig())
}

// Get returns the memoized labeling of words under mode.
func (c *LabelCache) Get(mode string, words []string) (partition.Partition, bool) {
	p, ok := c.cache.Get(LabelKey(mode, words))
	if !ok {
		return nil, false
	}
	return clonePartition(p), true
}

// Put memoizes a labeling.
func (c *LabelCache) Put(mode string, words []string, p partition.Partition) {
	c.cache.Put(LabelKey(mode, words), clonePartition(p))
}

// Len returns the number of memoized labelings.
func (c *LabelCache) Len() int {
	return c.cache.Len()
}

// Stats returns cache statistics.
func (c *LabelCache) Stats() Stats {
	return c.cache.Stats()
}

func clonePartition(p partition.Partition) partition.Partition {
	if p == nil {
		return nil
	}
	out := make(partition.Partition, len(p))
	for i, g := range p {
		out[i] = append([]int(nil), g...)
	}
	return out
}

package oracle

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/FocuswithJustin/Rhymer/core/errors"
	"github.com/FocuswithJustin/Rhymer/core/textnorm"
	"github.com/FocuswithJustin/Rhymer/internal/logging"
)

// DefaultMaxResults caps the candidates kept per headword.
const DefaultMaxResults = 100

// Config contains oracle configuration options.
type Config struct {
	// MaxResults is the maximum number of candidates cached per word (<= 0 uses DefaultMaxResults).
	MaxResults int

	// Metrics receives cache and lookup instrumentation. Optional.
	Metrics *Metrics
}

// DefaultConfig returns a default oracle configuration.
func DefaultConfig() Config {
	return Config{
		MaxResults: DefaultMaxResults,
	}
}

// Entry is one cached headword and its rhymes, in source order.
type Entry struct {
	Word   string
	Rhymes []string
}

// entry is immutable once stored.
type entry struct {
	rhymes []string
	set    map[string]struct{}
}

func newEntry(rhymes []string) *entry {
	e := &entry{
		rhymes: rhymes,
		set:    make(map[string]struct{}, len(rhymes)),
	}
	for _, r := range rhymes {
		e.set[r] = struct{}{}
	}
	return e
}

// Oracle is a write-once rhyme cache backed by a Source.
// It is safe for concurrent use.
type Oracle struct {
	source     Source
	maxResults int
	metrics    *Metrics

	entries sync.Map // string -> *entry
	count   atomic.Int64
	flight  singleflight.Group
}

// New creates an oracle that fetches missing words from source.
// A nil source makes every miss a lookup failure, which suits an oracle
// that should answer only from a loaded cache file.
func New(source Source, cfg Config) *Oracle {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	return &Oracle{
		source:     source,
		maxResults: cfg.MaxResults,
		metrics:    cfg.Metrics,
	}
}

// MaxResults returns the per-word candidate cap.
func (o *Oracle) MaxResults() int {
	return o.maxResults
}

// IsRhyme reports whether b is in the cached rhyme set of a, or a is in the
// cached rhyme set of b. Both words are normalized first. Words that were
// never loaded have empty rhyme sets.
func (o *Oracle) IsRhyme(a, b string) bool {
	na, nb := textnorm.Word(a), textnorm.Word(b)
	if na == "" || nb == "" {
		return false
	}
	return o.contains(na, nb) || o.contains(nb, na)
}

func (o *Oracle) contains(head, word string) bool {
	v, ok := o.entries.Load(head)
	if !ok {
		return false
	}
	_, found := v.(*entry).set[word]
	return found
}

// Loaded reports whether the normalized form of word is cached.
func (o *Oracle) Loaded(word string) bool {
	_, ok := o.entries.Load(textnorm.Word(word))
	return ok
}

// Rhymes returns a copy of the cached rhymes of word.
func (o *Oracle) Rhymes(word string) ([]string, bool) {
	v, ok := o.entries.Load(textnorm.Word(word))
	if !ok {
		return nil, false
	}
	rhymes := v.(*entry).rhymes
	out := make([]string, len(rhymes))
	copy(out, rhymes)
	return out, true
}

// Len returns the number of cached headwords.
func (o *Oracle) Len() int {
	return int(o.count.Load())
}

// EnsureLoaded fetches every normalized word that is not cached yet, one
// source lookup per word. It stops at the first failure and returns a
// *errors.LookupError; words resolved before the failure stay cached.
func (o *Oracle) EnsureLoaded(ctx context.Context, words []string) error {
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		key := textnorm.Word(w)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if _, ok := o.entries.Load(key); ok {
			if o.metrics != nil {
				o.metrics.cacheHits.Inc()
			}
			continue
		}
		if o.metrics != nil {
			o.metrics.cacheMisses.Inc()
		}
		if err := o.fetch(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// fetch resolves key through the source. Concurrent callers for the same
// key share one lookup. The shared lookup is detached from any single
// caller's cancellation; each caller stops waiting when its own ctx ends.
func (o *Oracle) fetch(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return errors.NewLookup(key, err)
	}
	ch := o.flight.DoChan(key, func() (interface{}, error) {
		return nil, o.lookup(context.WithoutCancel(ctx), key)
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return errors.NewLookup(key, ctx.Err())
	}
}

// lookup performs one source call for key and stores the result.
func (o *Oracle) lookup(ctx context.Context, key string) error {
	// Another flight may have finished between the caller's check and now.
	if _, ok := o.entries.Load(key); ok {
		return nil
	}
	if o.source == nil {
		return errors.NewLookup(key, errors.ErrNotFound)
	}

	start := time.Now()
	candidates, err := o.source.WordRhymes(ctx, key, o.maxResults)
	elapsed := time.Since(start)
	if o.metrics != nil {
		o.metrics.lookupDuration.Observe(elapsed.Seconds())
	}
	if err != nil {
		if o.metrics != nil {
			o.metrics.lookups.WithLabelValues("error").Inc()
		}
		var le *errors.LookupError
		if errors.As(err, &le) {
			return err
		}
		return errors.NewLookup(key, err)
	}
	if o.metrics != nil {
		o.metrics.lookups.WithLabelValues("ok").Inc()
	}

	rhymes := normalizeWords(candidates, o.maxResults)
	o.store(key, rhymes)
	logging.OracleLookup(ctx, key, len(rhymes), elapsed)
	return nil
}

// normalizeWords normalizes words, drops empties and duplicates, and keeps
// at most limit of them (no cap when limit <= 0).
func normalizeWords(words []string, limit int) []string {
	out := make([]string, 0, len(words))
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		if limit > 0 && len(out) == limit {
			break
		}
		n := textnorm.Word(w)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// store inserts the entry if absent. It reports whether it was inserted.
func (o *Oracle) store(key string, rhymes []string) bool {
	if _, loaded := o.entries.LoadOrStore(key, newEntry(rhymes)); loaded {
		return false
	}
	n := o.count.Add(1)
	if o.metrics != nil {
		o.metrics.entries.Set(float64(n))
	}
	return true
}

// Put seeds the cache with an entry as given, without a source lookup.
// Existing entries are never replaced; Put reports whether it inserted.
func (o *Oracle) Put(word string, rhymes []string) bool {
	if word == "" {
		return false
	}
	cp := make([]string, len(rhymes))
	copy(cp, rhymes)
	return o.store(word, cp)
}

// Entries returns a snapshot of the cache ordered by headword.
func (o *Oracle) Entries() []Entry {
	var out []Entry
	o.entries.Range(func(k, v any) bool {
		rhymes := v.(*entry).rhymes
		cp := make([]string, len(rhymes))
		copy(cp, rhymes)
		out = append(out, Entry{Word: k.(string), Rhymes: cp})
		return true
	})
	sort.Slice(out, func(i, j int) bool {
		return out[i].Word < out[j].Word
	})
	return out
}

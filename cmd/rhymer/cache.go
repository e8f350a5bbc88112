package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/FocuswithJustin/Rhymer/core/errors"
	"github.com/FocuswithJustin/Rhymer/core/oracle"
)

// CacheGroup contains rhyme cache operations.
type CacheGroup struct {
	Show   CacheShowCmd   `cmd:"" help:"Show cached rhymes of words, or a cache summary"`
	Import CacheImportCmd `cmd:"" help:"Merge another cache file into the cache"`
	Export CacheExportCmd `cmd:"" help:"Write the cache to another file"`
}

func requireCache(g *Globals) error {
	if g.CacheFile == "" {
		return errors.NewConfiguration("cache", "no cache file given (use --cache or RHYMER_CACHE)")
	}
	return nil
}

// CacheShowCmd prints cached rhymes.
type CacheShowCmd struct {
	Words []string `arg:"" optional:"" help:"Words to show; all headwords are counted when empty"`
}

func (c *CacheShowCmd) Run(g *Globals) error {
	if err := requireCache(g); err != nil {
		return err
	}
	// Lookups are never made: show reports only what is cached.
	offline := *g
	offline.Offline = true
	offline.source = nil
	o, err := offline.openOracle(nil)
	if err != nil {
		return err
	}

	out := g.stdout()
	if len(c.Words) == 0 {
		entries := o.Entries()
		total := 0
		for _, e := range entries {
			total += len(e.Rhymes)
		}
		fmt.Fprintf(out, "%s: %d headwords, %d rhymes\n", g.CacheFile, len(entries), total)
		return nil
	}
	for _, w := range c.Words {
		rhymes, ok := o.Rhymes(w)
		if !ok {
			fmt.Fprintf(out, "%s: not cached\n", w)
			continue
		}
		fmt.Fprintf(out, "%s: %s\n", w, strings.Join(rhymes, ", "))
	}
	return nil
}

// CacheImportCmd merges cache files into the cache. Headwords already
// cached keep their rhymes.
type CacheImportCmd struct {
	Files []string `arg:"" help:"Cache files to merge" type:"existingfile"`
}

func (c *CacheImportCmd) Run(g *Globals) error {
	if err := requireCache(g); err != nil {
		return err
	}
	o, err := g.openOracle(nil)
	if err != nil {
		return err
	}
	before := o.Len()

	for _, path := range c.Files {
		other := oracle.New(nil, oracle.Config{MaxResults: o.MaxResults()})
		if _, err := other.Load(path); err != nil {
			return err
		}
		entries := other.Entries()
		sort.Slice(entries, func(i, j int) bool { return entries[i].Word < entries[j].Word })
		for _, e := range entries {
			o.Put(e.Word, e.Rhymes)
		}
	}

	if err := g.saveOracle(o); err != nil {
		return err
	}
	fmt.Fprintf(g.stdout(), "imported %d new headwords (%d total)\n", o.Len()-before, o.Len())
	return nil
}

// CacheExportCmd writes the cache to another path, compressing when the
// path ends in .xz.
type CacheExportCmd struct {
	Out string `arg:"" help:"Destination file" type:"path"`
}

func (c *CacheExportCmd) Run(g *Globals) error {
	if err := requireCache(g); err != nil {
		return err
	}
	o, err := g.openOracle(nil)
	if err != nil {
		return err
	}
	if err := o.Save(c.Out); err != nil {
		return err
	}
	fmt.Fprintf(g.stdout(), "exported %d headwords to %s\n", o.Len(), c.Out)
	return nil
}

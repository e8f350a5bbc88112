package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/FocuswithJustin/Rhymer/core/cache"
	"github.com/FocuswithJustin/Rhymer/core/errors"
	"github.com/FocuswithJustin/Rhymer/core/partition"
	"github.com/FocuswithJustin/Rhymer/core/poem"
	"github.com/FocuswithJustin/Rhymer/core/rhyme"
	"github.com/FocuswithJustin/Rhymer/core/scheme"
	"github.com/FocuswithJustin/Rhymer/core/stats"
	"github.com/FocuswithJustin/Rhymer/internal/batch"
	"github.com/FocuswithJustin/Rhymer/internal/logging"
	"github.com/FocuswithJustin/Rhymer/internal/store"
	"github.com/FocuswithJustin/Rhymer/internal/validation"
)

// LabelCmd labels poems one at a time and prints their schemes.
type LabelCmd struct {
	Files []string `arg:"" help:"Corpus files (.txt, .jsonl, .xml)" type:"existingfile"`
	JSON  bool     `help:"Write labeled poems as JSON Lines"`
	Clean bool     `help:"Strip punctuation and digits from line text before labeling"`
}

func (c *LabelCmd) Run(g *Globals) error {
	mode, err := g.mode()
	if err != nil {
		return err
	}
	poems, err := readCorpora(c.Files)
	if err != nil {
		return err
	}
	o, err := g.openOracle(nil)
	if err != nil {
		return err
	}
	// The cache is written back even when a lookup fails part way.
	defer func() {
		if err := g.saveOracle(o); err != nil {
			logging.Error("saving rhyme cache failed", "error", err)
		}
	}()

	ctx := context.Background()
	engine := rhyme.NewEngine(o)
	out := g.stdout()
	failed := 0
	var labeled []*poem.Poem
	for _, p := range poems {
		if c.Clean {
			// A cleaned poem keeps the ID it was read with.
			id := p.ID
			p.CleanLines()
			p.ID = id
		}
		words, err := p.Words()
		if err == nil {
			var res *rhyme.Result
			if res, err = engine.Explain(ctx, words, mode); err == nil {
				p.RhymeSets = res.Partition
				labeled = append(labeled, p)
				if !c.JSON {
					printLabel(out, p, res)
				}
				continue
			}
		}
		failed++
		logging.Warn("poem not labeled", "poem_id", p.ID, "error", err)
		if errors.Is(err, errors.ErrExternalLookup) {
			return errors.Wrapf(err, "poem %s", p.ID)
		}
	}

	if c.JSON {
		if err := poem.WriteJSONL(out, labeled); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d poems could not be labeled", failed, len(poems))
	}
	return nil
}

func printLabel(w io.Writer, p *poem.Poem, res *rhyme.Result) {
	title := p.Title
	if title == "" {
		title = "(untitled)"
	}
	fmt.Fprintf(w, "%s  %s\n", p.ID, title)
	fmt.Fprintf(w, "  notation: %s\n", p.Notation())
	if res.Analysis != nil {
		fmt.Fprintf(w, "  sonnet:   %s (octave %d, sestet %d, %s)\n",
			res.Analysis.SchemeName(), res.Analysis.OctaveScore(), res.Analysis.SestetScore(), res.Analysis.Sestet)
	}
	fmt.Fprintf(w, "  groups:   %s\n", res.Partition)
}

// BatchCmd labels a corpus concurrently, optionally storing the results.
type BatchCmd struct {
	Corpus  []string `arg:"" help:"Corpus files (.txt, .jsonl, .xml)" type:"existingfile"`
	DB      string   `help:"SQLite database receiving labeled poems" type:"path" env:"RHYMER_DB"`
	Out     string   `help:"Also write labeled poems as JSON Lines to this file" type:"path"`
	Workers int      `help:"Concurrent labelers (0 = one per CPU)" default:"0"`
	NoMemo  bool     `name:"no-memo" help:"Label duplicate poems again instead of reusing the first result"`
}

func (c *BatchCmd) Run(g *Globals) error {
	mode, err := g.mode()
	if err != nil {
		return err
	}
	poems, err := readCorpora(c.Corpus)
	if err != nil {
		return err
	}
	o, err := g.openOracle(nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := g.saveOracle(o); err != nil {
			logging.Error("saving rhyme cache failed", "error", err)
		}
	}()

	for _, path := range []string{c.DB, c.Out} {
		if path == "" {
			continue
		}
		if err := validation.ValidatePath(path); err != nil {
			return errors.Wrapf(err, "output %q", path)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := batch.Config{Workers: c.Workers, Mode: mode}
	if !c.NoMemo {
		cfg.Memo = cache.NewDefaultLabelCache()
	}

	var st *store.Store
	var runID string
	if c.DB != "" {
		if st, err = store.Open(c.DB); err != nil {
			return err
		}
		defer st.Close()
		run, err := st.StartRun(ctx, mode.String(), strings.Join(c.Corpus, ","))
		if err != nil {
			return err
		}
		runID = run.ID
		ctx = logging.WithRunID(ctx, runID)
		cfg.OnOutcome = func(ctx context.Context, o batch.Outcome) error {
			return st.SavePoem(ctx, runID, mode.String(), o.Poem)
		}
	}

	runner, err := batch.NewRunner(rhyme.NewEngine(o), cfg)
	if err != nil {
		return err
	}
	report, runErr := runner.Run(ctx, poems)
	if st != nil {
		if err := st.FinishRun(context.Background(), runID, report.Labeled, report.Failed); err != nil {
			return err
		}
	}

	if c.Out != "" {
		var labeled []*poem.Poem
		for _, oc := range report.Outcomes {
			if oc.Err == nil {
				labeled = append(labeled, oc.Poem)
			}
		}
		if err := writeJSONLFile(c.Out, labeled); err != nil {
			return err
		}
	}

	out := g.stdout()
	fmt.Fprintf(out, "labeled %d of %d poems (%d from memo, %d failed)\n",
		report.Labeled, len(poems), report.Cached, report.Failed)
	if runID != "" {
		fmt.Fprintf(out, "run %s stored in %s\n", runID, c.DB)
	}
	for _, f := range report.Failures() {
		fmt.Fprintf(out, "  failed %s: %v\n", f.Poem.ID, f.Err)
	}
	return runErr
}

func writeJSONLFile(path string, poems []*poem.Poem) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewIO("create directory", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.NewIO("create", path, err)
	}
	if err := poem.WriteJSONL(f, poems); err != nil {
		f.Close()
		return errors.NewIO("write", path, err)
	}
	if err := f.Close(); err != nil {
		return errors.NewIO("close", path, err)
	}
	return nil
}

// labelAll returns the labeling of every poem that could be labeled along
// with its rhyme keys. Poems that already carry rhyme sets keep them
// unless relabel is set.
func labelAll(ctx context.Context, engine *rhyme.Engine, mode rhyme.Mode, poems []*poem.Poem, relabel bool) ([]stats.Labeled, error) {
	var out []stats.Labeled
	for _, p := range poems {
		words, err := p.Words()
		if err != nil {
			logging.Warn("poem skipped", "poem_id", p.ID, "error", err)
			continue
		}
		groups := p.RhymeSets
		if groups == nil || relabel {
			if groups, err = engine.Label(ctx, words, mode); err != nil {
				if errors.Is(err, errors.ErrExternalLookup) {
					return nil, errors.Wrapf(err, "poem %s", p.ID)
				}
				logging.Warn("poem skipped", "poem_id", p.ID, "error", err)
				continue
			}
		}
		out = append(out, stats.Labeled{ID: p.ID, Words: words, Groups: groups})
	}
	return out, nil
}

// StatsCmd reports group sizes and rhyme pairs shared between poems.
type StatsCmd struct {
	Corpus  []string `arg:"" help:"Corpus files (.txt, .jsonl, .xml)" type:"existingfile"`
	Relabel bool     `help:"Label poems even when the corpus already carries rhyme sets"`
	Top     int      `help:"Poem links to list" default:"10"`
}

func (c *StatsCmd) Run(g *Globals) error {
	mode, err := g.mode()
	if err != nil {
		return err
	}
	poems, err := readCorpora(c.Corpus)
	if err != nil {
		return err
	}
	o, err := g.openOracle(nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := g.saveOracle(o); err != nil {
			logging.Error("saving rhyme cache failed", "error", err)
		}
	}()

	labeled, err := labelAll(context.Background(), rhyme.NewEngine(o), mode, poems, c.Relabel)
	if err != nil {
		return err
	}

	parts := make([]partition.Partition, len(labeled))
	for i, l := range labeled {
		parts[i] = l.Groups
	}
	sizes := stats.GroupSizes(parts)
	shared := stats.SharedRhymePairs(labeled)
	links := stats.PoemLinks(shared)

	out := g.stdout()
	fmt.Fprintf(out, "poems:        %d of %d\n", len(labeled), len(poems))
	fmt.Fprintf(out, "groups:       %d\n", sizes.Groups)
	fmt.Fprintf(out, "mean size:    %.3f\n", sizes.Mean)
	fmt.Fprintf(out, "largest:      %d\n", sizes.Largest)
	fmt.Fprintf(out, "stddev:       %.3f\n", sizes.StdDev)
	fmt.Fprintf(out, "rhyme pairs:  %d\n", len(shared))
	fmt.Fprintf(out, "linked poems: %d pairs\n", len(links))
	for i, l := range links {
		if i >= c.Top {
			fmt.Fprintf(out, "  ... and %d more\n", len(links)-c.Top)
			break
		}
		pairs := make([]string, len(l.Shared))
		for j, wp := range l.Shared {
			pairs[j] = wp.A + "/" + wp.B
		}
		fmt.Fprintf(out, "  %s ~ %s: %s\n", l.A, l.B, strings.Join(pairs, ", "))
	}
	return nil
}

// EvalCmd scores labelings against the gold schemes carried by a corpus.
type EvalCmd struct {
	Corpus  []string `arg:"" help:"Corpus files with scheme annotations" type:"existingfile"`
	Verbose bool     `short:"v" help:"Print the score of every poem"`
}

func (c *EvalCmd) Run(g *Globals) error {
	mode, err := g.mode()
	if err != nil {
		return err
	}
	poems, err := readCorpora(c.Corpus)
	if err != nil {
		return err
	}
	o, err := g.openOracle(nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := g.saveOracle(o); err != nil {
			logging.Error("saving rhyme cache failed", "error", err)
		}
	}()

	ctx := context.Background()
	engine := rhyme.NewEngine(o)
	out := g.stdout()
	var total stats.Score
	evaluated, skipped := 0, 0
	for _, p := range poems {
		if p.Scheme == "" {
			continue
		}
		gold, n, err := scheme.ParseNotation(p.Scheme)
		if err == nil && n != p.Len() {
			err = errors.NewMalformed(-1, fmt.Sprintf("scheme covers %d lines, poem has %d", n, p.Len()))
		}
		var words []string
		if err == nil {
			words, err = p.Words()
		}
		var predicted partition.Partition
		if err == nil {
			predicted, err = engine.Label(ctx, words, mode)
		}
		if err != nil {
			if errors.Is(err, errors.ErrExternalLookup) {
				return errors.Wrapf(err, "poem %s", p.ID)
			}
			skipped++
			logging.Warn("poem not evaluated", "poem_id", p.ID, "error", err)
			continue
		}

		score := stats.Agreement(predicted, gold)
		total.Add(score)
		evaluated++
		if c.Verbose {
			fmt.Fprintf(out, "%s  gold %s  got %s  P=%.3f R=%.3f F1=%.3f\n",
				p.ID, scheme.Notation(gold, n), scheme.Notation(predicted, n), score.Precision, score.Recall, score.F1)
		}
	}
	if evaluated == 0 {
		return errors.NewMalformed(-1, "corpus has no poems with a usable gold scheme")
	}

	fmt.Fprintf(out, "mode %s: %d poems evaluated, %d skipped\n", mode, evaluated, skipped)
	fmt.Fprintf(out, "precision %.3f  recall %.3f  F1 %.3f  (tp %d, fp %d, fn %d)\n",
		total.Precision, total.Recall, total.F1, total.TruePositives, total.FalsePositives, total.FalseNegatives)
	return nil
}

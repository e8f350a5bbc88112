// Package batch labels many poems concurrently against one shared oracle.
package batch

import (
	"context"
	"sort"

	"github.com/FocuswithJustin/Rhymer/core/cache"
	"github.com/FocuswithJustin/Rhymer/core/errors"
	"github.com/FocuswithJustin/Rhymer/core/partition"
	"github.com/FocuswithJustin/Rhymer/core/poem"
	"github.com/FocuswithJustin/Rhymer/core/rhyme"
	"github.com/FocuswithJustin/Rhymer/internal/logging"
)

// DefaultProgressEvery is how many poems pass between progress log lines.
const DefaultProgressEvery = 100

// Config controls a batch run.
type Config struct {
	// Workers is the number of concurrent labelers (<= 0 uses GOMAXPROCS).
	Workers int

	// Mode is the labeling mode applied to every poem.
	Mode rhyme.Mode

	// Memo skips poems whose rhyme keys were already labeled. Optional.
	Memo *cache.LabelCache

	// ProgressEvery logs progress after this many poems (<= 0 uses DefaultProgressEvery).
	ProgressEvery int

	// OnOutcome is called for each finished poem, in completion order, from
	// a single goroutine. A returned error is recorded as that poem's failure.
	OnOutcome func(ctx context.Context, o Outcome) error
}

// DefaultConfig returns a hybrid-mode configuration with a fresh memo.
func DefaultConfig() Config {
	return Config{
		Mode:          rhyme.Hybrid,
		Memo:          cache.NewDefaultLabelCache(),
		ProgressEvery: DefaultProgressEvery,
	}
}

// Outcome is the result of labeling one poem.
type Outcome struct {
	Index  int // position in the input
	Poem   *poem.Poem
	Groups partition.Partition
	Cached bool // served from the memo
	Err    error
}

// Report summarizes a batch run. Outcomes are in input order.
type Report struct {
	Outcomes []Outcome
	Labeled  int
	Failed   int
	Cached   int
}

// Failures returns the failed outcomes.
func (r *Report) Failures() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}

// Runner labels poems with an engine.
type Runner struct {
	engine *rhyme.Engine
	cfg    Config
}

// NewRunner creates a runner. The mode is validated here so a bad
// configuration fails before any poem is touched.
func NewRunner(engine *rhyme.Engine, cfg Config) (*Runner, error) {
	if err := cfg.Mode.Validate(); err != nil {
		return nil, err
	}
	if cfg.ProgressEvery <= 0 {
		cfg.ProgressEvery = DefaultProgressEvery
	}
	return &Runner{engine: engine, cfg: cfg}, nil
}

type job struct {
	index int
	poem  *poem.Poem
}

// Run labels every poem and attaches the labeling to its RhymeSets.
// Per-poem failures are collected in the report; only cancellation of ctx
// ends the run early, with ctx.Err().
func (r *Runner) Run(ctx context.Context, poems []*poem.Poem) (*Report, error) {
	pool := NewWorkerPool[job, Outcome](r.cfg.Workers, len(poems))
	pool.Start(func(j job) Outcome {
		return r.label(ctx, j)
	})
	for i, p := range poems {
		pool.Submit(job{index: i, poem: p})
	}
	pool.Close()

	logging.InfoContext(ctx, "batch started",
		"poems", len(poems),
		"workers", pool.Workers(),
		"mode", r.cfg.Mode.String(),
	)

	report := &Report{Outcomes: make([]Outcome, 0, len(poems))}
	done := 0
	for o := range pool.Results() {
		if o.Err == nil && r.cfg.OnOutcome != nil {
			if err := r.cfg.OnOutcome(ctx, o); err != nil {
				o.Err = err
			}
		}
		switch {
		case o.Err != nil:
			report.Failed++
			logging.WarnContext(ctx, "poem failed", "poem_id", o.Poem.ID, "error", o.Err)
		default:
			report.Labeled++
			if o.Cached {
				report.Cached++
			}
		}
		report.Outcomes = append(report.Outcomes, o)

		done++
		if done%r.cfg.ProgressEvery == 0 || done == len(poems) {
			logging.BatchProgress(ctx, done, len(poems), report.Failed)
		}
	}

	sort.Slice(report.Outcomes, func(i, j int) bool {
		return report.Outcomes[i].Index < report.Outcomes[j].Index
	})
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

func (r *Runner) label(ctx context.Context, j job) Outcome {
	o := Outcome{Index: j.index, Poem: j.poem}
	if err := ctx.Err(); err != nil {
		o.Err = err
		return o
	}

	words, err := j.poem.Words()
	if err != nil {
		o.Err = errors.Wrapf(err, "poem %s", j.poem.ID)
		return o
	}

	mode := r.cfg.Mode.String()
	if r.cfg.Memo != nil {
		if groups, ok := r.cfg.Memo.Get(mode, words); ok {
			o.Groups, o.Cached = groups, true
			j.poem.RhymeSets = groups
			return o
		}
	}

	groups, err := r.engine.Label(ctx, words, r.cfg.Mode)
	if err != nil {
		o.Err = errors.Wrapf(err, "poem %s", j.poem.ID)
		return o
	}
	if r.cfg.Memo != nil {
		r.cfg.Memo.Put(mode, words, groups)
	}
	o.Groups = groups
	j.poem.RhymeSets = groups
	logging.PoemLabeled(ctx, j.poem.ID, mode, len(groups))
	return o
}

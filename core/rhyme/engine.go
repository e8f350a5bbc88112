package rhyme

import (
	"context"

	"github.com/FocuswithJustin/Rhymer/core/errors"
	"github.com/FocuswithJustin/Rhymer/core/partition"
	"github.com/FocuswithJustin/Rhymer/core/scheme"
	"github.com/FocuswithJustin/Rhymer/core/textnorm"
	"github.com/FocuswithJustin/Rhymer/internal/logging"
)

// Engine labels poems against one shared oracle.
type Engine struct {
	oracle Oracle
}

// NewEngine returns an engine backed by o.
func NewEngine(o Oracle) *Engine {
	return &Engine{oracle: o}
}

// Oracle returns the engine's oracle.
func (e *Engine) Oracle() Oracle {
	return e.oracle
}

// Result is a labeling together with the intermediate partitions that
// produced it. Scheme and Groups are nil when their method did not run.
type Result struct {
	Mode      Mode
	Partition partition.Partition
	Scheme    partition.Partition
	Groups    partition.Partition
	Analysis  *scheme.Analysis // nil unless scheme matching ran on a sonnet
}

// Label returns the normalized rhyme partition of words under mode.
func (e *Engine) Label(ctx context.Context, words []string, mode Mode) (partition.Partition, error) {
	res, err := e.Explain(ctx, words, mode)
	if err != nil {
		return nil, err
	}
	return res.Partition, nil
}

// Explain is Label with the intermediate results kept.
func (e *Engine) Explain(ctx context.Context, words []string, mode Mode) (*Result, error) {
	if err := mode.Validate(); err != nil {
		return nil, err
	}
	if err := validateWords(words); err != nil {
		return nil, err
	}

	res := &Result{Mode: mode}
	if mode.UsesScheme() {
		a, err := scheme.Analyze(ctx, e.oracle, words)
		if err != nil {
			return nil, errors.Wrap(err, "scheme matching")
		}
		res.Scheme = partition.Partition{}
		if a != nil {
			res.Analysis = a
			res.Scheme = a.Pairs.Normalize()
		}
	}
	if mode.UsesGroups() {
		groups, err := Group(ctx, e.oracle, words)
		if err != nil {
			return nil, errors.Wrap(err, "grouping")
		}
		res.Groups = groups
	}

	switch mode {
	case SchemeOnly:
		res.Partition = res.Scheme
	case GroupOnly:
		res.Partition = res.Groups
	default:
		res.Partition = partition.Merge(res.Scheme, res.Groups)
	}

	logging.DebugContext(ctx, "poem labeled",
		"mode", mode.String(),
		"lines", len(words),
		"groups", len(res.Partition),
	)
	return res, nil
}

// LabelLines extracts the rhyme key of each line and labels the keys.
func (e *Engine) LabelLines(ctx context.Context, lines []string, mode Mode) (partition.Partition, error) {
	words, err := EndingWords(lines)
	if err != nil {
		return nil, err
	}
	return e.Label(ctx, words, mode)
}

// EndingWords returns the normalized rhyme key of every line. It fails with
// a MalformedInputError for an empty poem or a line without a usable token.
func EndingWords(lines []string) ([]string, error) {
	if len(lines) == 0 {
		return nil, errors.NewMalformed(-1, "poem has no lines")
	}
	words := make([]string, len(lines))
	for i, line := range lines {
		key, ok := textnorm.RhymeKey(line)
		if !ok {
			return nil, errors.NewMalformed(i, "line has no trailing token")
		}
		words[i] = key
	}
	return words, nil
}

func validateWords(words []string) error {
	if len(words) == 0 {
		return errors.NewMalformed(-1, "poem has no lines")
	}
	for i, w := range words {
		if textnorm.Word(w) == "" {
			return errors.NewMalformed(i, "line has no trailing token")
		}
	}
	return nil
}

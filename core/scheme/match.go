package scheme

import (
	"context"

	"github.com/FocuswithJustin/Rhymer/core/errors"
)

// Oracle is the rhyme relation the matcher consults.
type Oracle interface {
	EnsureLoaded(ctx context.Context, words []string) error
	IsRhyme(a, b string) bool
}

// Result is the best template for a stanza and its score.
type Result struct {
	Template Template
	Score    int
}

// Match scores words against each template in order and returns the best.
// Every stanza word is loaded into the oracle once before scoring. Each
// template pair is checked once; IsRhyme already covers both directions.
// The first template wins ties, so an all-zero stanza gets templates[0].
func Match(ctx context.Context, o Oracle, words []string, templates []Template) (Result, error) {
	if len(templates) == 0 {
		return Result{}, errors.NewConfiguration("templates", "no candidate templates")
	}
	for _, t := range templates {
		if t.Length() > len(words) {
			return Result{}, errors.NewMalformed(-1, "stanza shorter than template "+t.Name)
		}
	}

	if err := o.EnsureLoaded(ctx, words); err != nil {
		return Result{}, err
	}

	best := Result{Template: templates[0]}
	for _, t := range templates {
		score := 0
		for _, p := range t.Pairs {
			if o.IsRhyme(words[p.A], words[p.B]) {
				score++
			}
		}
		if score > best.Score {
			best = Result{Template: t, Score: score}
		}
	}
	return best, nil
}

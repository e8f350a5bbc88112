package stats

import (
	"github.com/FocuswithJustin/Rhymer/core/partition"
)

// Score compares the rhyming line pairs of a prediction with a gold labeling.
type Score struct {
	TruePositives  int     `json:"true_positives"`
	FalsePositives int     `json:"false_positives"`
	FalseNegatives int     `json:"false_negatives"`
	Precision      float64 `json:"precision"`
	Recall         float64 `json:"recall"`
	F1             float64 `json:"f1"`
}

// Agreement scores predicted against expected over line pairs. Two
// partitions with no pairs at all agree perfectly.
func Agreement(predicted, expected partition.Partition) Score {
	gold := make(map[partition.Pair]struct{})
	for _, pr := range expected.Pairs() {
		gold[pr] = struct{}{}
	}

	var s Score
	for _, pr := range predicted.Pairs() {
		if _, ok := gold[pr]; ok {
			s.TruePositives++
			delete(gold, pr)
		} else {
			s.FalsePositives++
		}
	}
	s.FalseNegatives = len(gold)
	s.finish()
	return s
}

// Add accumulates another score's counts and recomputes the ratios, so a
// corpus total is micro-averaged.
func (s *Score) Add(other Score) {
	s.TruePositives += other.TruePositives
	s.FalsePositives += other.FalsePositives
	s.FalseNegatives += other.FalseNegatives
	s.finish()
}

func (s *Score) finish() {
	s.Precision = ratio(s.TruePositives, s.TruePositives+s.FalsePositives)
	s.Recall = ratio(s.TruePositives, s.TruePositives+s.FalseNegatives)
	s.F1 = 0
	if s.Precision+s.Recall > 0 {
		s.F1 = 2 * s.Precision * s.Recall / (s.Precision + s.Recall)
	}
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 1
	}
	return float64(n) / float64(d)
}

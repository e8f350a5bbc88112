package scheme

import (
	"context"

	"github.com/FocuswithJustin/Rhymer/core/partition"
)

// SestetForm names how the sestet was divided.
type SestetForm string

const (
	// SestetQuatrainCouplet is a quatrain (8-11) followed by a couplet (12-13).
	SestetQuatrainCouplet SestetForm = "quatrain+couplet"
	// SestetTercets is two tercets spanning 8-13.
	SestetTercets SestetForm = "tercets"
)

// Analysis records every decision Segment made for one sonnet.
type Analysis struct {
	QuatrainA Result // lines 0-3
	QuatrainB Result // lines 4-7
	Octave    Result // winner applied to both octave quatrains

	Quatrain3 Result // lines 8-11
	Couplet   Result // lines 12-13
	Tercets   Result // lines 8-13
	Sestet    SestetForm

	Pairs partition.Partition // global two-line groups, octave first
}

// OctaveScore is the score of the octave template on its own quatrain.
func (a *Analysis) OctaveScore() int {
	return a.Octave.Score
}

// SestetScore is the score of the chosen sestet division.
func (a *Analysis) SestetScore() int {
	if a.Sestet == SestetTercets {
		return a.Tercets.Score
	}
	return a.Quatrain3.Score + a.Couplet.Score
}

// SchemeName renders the chosen templates, e.g. "ABAB ABAB ABBA AA".
func (a *Analysis) SchemeName() string {
	name := a.Octave.Template.Name + " " + a.Octave.Template.Name + " "
	if a.Sestet == SestetTercets {
		return name + a.Tercets.Template.Name
	}
	return name + a.Quatrain3.Template.Name + " " + a.Couplet.Template.Name
}

// Analyze fits a 14-word sonnet. It returns nil, nil for any other length.
func Analyze(ctx context.Context, o Oracle, words []string) (*Analysis, error) {
	if len(words) != SonnetLength {
		return nil, nil
	}
	a := &Analysis{}
	if err := a.labelOctave(ctx, o, words); err != nil {
		return nil, err
	}
	if err := a.labelSestet(ctx, o, words); err != nil {
		return nil, err
	}
	return a, nil
}

// Segment returns the scheme-based groups of a sonnet as two-line groups in
// global line indices. Non-sonnets yield an empty partition.
func Segment(ctx context.Context, o Oracle, words []string) (partition.Partition, error) {
	a, err := Analyze(ctx, o, words)
	if err != nil || a == nil {
		return partition.Partition{}, err
	}
	return a.Pairs, nil
}

func (a *Analysis) labelOctave(ctx context.Context, o Oracle, words []string) error {
	quatrains := Templates(QuatrainLength)
	var err error
	if a.QuatrainA, err = Match(ctx, o, words[0:QuatrainLength], quatrains); err != nil {
		return err
	}
	if a.QuatrainB, err = Match(ctx, o, words[QuatrainLength:OctaveLength], quatrains); err != nil {
		return err
	}

	// The octave is assumed uniform: one template for both quatrains.
	a.Octave = a.QuatrainA
	if a.QuatrainB.Score > a.QuatrainA.Score {
		a.Octave = a.QuatrainB
	}
	a.Pairs = append(a.Pairs, a.Octave.Template.Shift(0)...)
	a.Pairs = append(a.Pairs, a.Octave.Template.Shift(QuatrainLength)...)
	return nil
}

func (a *Analysis) labelSestet(ctx context.Context, o Oracle, words []string) error {
	var err error
	q3End := OctaveLength + QuatrainLength
	if a.Quatrain3, err = Match(ctx, o, words[OctaveLength:q3End], Templates(QuatrainLength)); err != nil {
		return err
	}
	if a.Couplet, err = Match(ctx, o, words[q3End:SonnetLength], Templates(CoupletLength)); err != nil {
		return err
	}
	if a.Tercets, err = Match(ctx, o, words[OctaveLength:SonnetLength], Templates(TercetsLength)); err != nil {
		return err
	}

	if a.Tercets.Score > a.Quatrain3.Score+a.Couplet.Score {
		a.Sestet = SestetTercets
		a.Pairs = append(a.Pairs, a.Tercets.Template.Shift(OctaveLength)...)
		return nil
	}
	a.Sestet = SestetQuatrainCouplet
	a.Pairs = append(a.Pairs, a.Quatrain3.Template.Shift(OctaveLength)...)
	// The closing couplet is assumed, not scored.
	a.Pairs = append(a.Pairs, []int{q3End, q3End + 1})
	return nil
}

package scheme

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/Rhymer/core/errors"
	"github.com/FocuswithJustin/Rhymer/core/partition"
)

// notationAlphabet labels rhyme groups in order of first appearance.
const notationAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// overflowLabel marks lines beyond the alphabet.
const overflowLabel = '?'

// notationAST is a letter scheme such as "ABBA ABBA CDE CDE" or "abab|cdcd|efef|gg".
type notationAST struct {
	Stanzas []string `parser:"( @Letters Separator? )+"`
}

var notationLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Letters", Pattern: `[A-Za-z]+`},
	{Name: "Separator", Pattern: `[|/,;]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var notationParser = participle.MustBuild[notationAST](
	participle.Lexer(notationLexer),
	participle.Elide("Whitespace"),
)

// ParseNotation turns a letter scheme into a partition over its lines and
// returns the number of lines it describes. Letters are case-insensitive;
// whitespace and the separators | / , ; only break stanzas visually.
func ParseNotation(s string) (partition.Partition, int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, 0, &errors.ParseError{Format: "rhyme notation", Message: "empty scheme", Err: errors.ErrInvalidInput}
	}
	ast, err := notationParser.ParseString("", s)
	if err != nil {
		return nil, 0, &errors.ParseError{Format: "rhyme notation", Message: err.Error(), Err: errors.ErrInvalidInput}
	}

	groups := make(map[rune]int)
	var p partition.Partition
	line := 0
	for _, stanza := range ast.Stanzas {
		for _, r := range strings.ToUpper(stanza) {
			g, ok := groups[r]
			if !ok {
				g = len(p)
				groups[r] = g
				p = append(p, nil)
			}
			p[g] = append(p[g], line)
			line++
		}
	}
	return p.Normalize(), line, nil
}

// Notation renders a partition of n lines as a letter scheme. Groups are
// merged by connectivity first, letters follow first appearance, and lines
// in no group get a fresh letter each.
func Notation(p partition.Partition, n int) string {
	merged := partition.Merge(p)
	groupOf := make(map[int]int, n)
	for g, members := range merged {
		for _, i := range members {
			groupOf[i] = g
		}
	}

	var b strings.Builder
	b.Grow(n)
	labels := make(map[int]rune)
	next := 0
	letter := func() rune {
		defer func() { next++ }()
		if next < len(notationAlphabet) {
			return rune(notationAlphabet[next])
		}
		return overflowLabel
	}

	for i := 0; i < n; i++ {
		g, ok := groupOf[i]
		if !ok {
			b.WriteRune(letter())
			continue
		}
		l, seen := labels[g]
		if !seen {
			l = letter()
			labels[g] = l
		}
		b.WriteRune(l)
	}
	return b.String()
}

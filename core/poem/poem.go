// Package poem models poems as ordered line records and reads them from
// plain text, JSON Lines and TEI XML corpora.
package poem

import (
	"encoding/hex"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/Rhymer/core/partition"
	"github.com/FocuswithJustin/Rhymer/core/rhyme"
	"github.com/FocuswithJustin/Rhymer/core/scheme"
	"github.com/FocuswithJustin/Rhymer/core/textnorm"
)

// idLength is the number of hex characters kept from the content hash.
const idLength = 16

// Line is one line of verse.
type Line struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// Poem is an ordered list of lines plus its rhyme labeling, if any.
type Poem struct {
	ID     string `json:"id"`
	Title  string `json:"title,omitempty"`
	Author string `json:"author,omitempty"`
	Lines  []Line `json:"lines"`

	// Scheme is a gold letter notation supplied by the corpus, e.g. "ABAB CDCD EFEF GG".
	Scheme string `json:"scheme,omitempty"`

	// RhymeSets is the labeling attached by a caller. Nil until labeled.
	RhymeSets partition.Partition `json:"rhyme_sets,omitempty"`
}

// New builds a poem from raw line texts and assigns its content ID.
func New(title, author string, texts []string) *Poem {
	p := &Poem{Title: title, Author: author, Lines: make([]Line, len(texts))}
	for i, t := range texts {
		p.Lines[i] = Line{Index: i, Text: t}
	}
	p.ID = ContentID(p)
	return p
}

// ContentID hashes author, title and line texts with BLAKE3.
func ContentID(p *Poem) string {
	h := blake3.New()
	h.Write([]byte(p.Author))
	h.Write([]byte{0})
	h.Write([]byte(p.Title))
	for _, l := range p.Lines {
		h.Write([]byte{0})
		h.Write([]byte(l.Text))
	}
	return hex.EncodeToString(h.Sum(nil))[:idLength]
}

// Texts returns the line texts in order.
func (p *Poem) Texts() []string {
	out := make([]string, len(p.Lines))
	for i, l := range p.Lines {
		out[i] = l.Text
	}
	return out
}

// Len returns the number of lines.
func (p *Poem) Len() int {
	return len(p.Lines)
}

// IsSonnet reports whether the poem has fourteen lines.
func (p *Poem) IsSonnet() bool {
	return len(p.Lines) == 14
}

// Words returns the normalized rhyme key of each line. It fails with a
// MalformedInputError for an empty poem or a line with no usable token.
func (p *Poem) Words() ([]string, error) {
	return rhyme.EndingWords(p.Texts())
}

// CleanLines strips surrounding punctuation and digits from every token of
// every line, in place, and drops lines left empty. Line indices are
// renumbered and the ID is recomputed.
func (p *Poem) CleanLines() {
	kept := p.Lines[:0]
	for _, l := range p.Lines {
		if c := textnorm.CleanLine(l.Text); c != "" {
			kept = append(kept, Line{Index: len(kept), Text: c})
		}
	}
	p.Lines = kept
	p.ID = ContentID(p)
}

// Notation renders RhymeSets as letters, or "" when unlabeled.
func (p *Poem) Notation() string {
	if p.RhymeSets == nil {
		return ""
	}
	return scheme.Notation(p.RhymeSets, len(p.Lines))
}

// normalize fills line indices, trims text, and assigns an ID when missing.
func (p *Poem) normalize() {
	for i := range p.Lines {
		p.Lines[i].Index = i
		p.Lines[i].Text = strings.TrimSpace(p.Lines[i].Text)
	}
	p.Title = strings.TrimSpace(p.Title)
	p.Author = strings.TrimSpace(p.Author)
	if p.ID == "" {
		p.ID = ContentID(p)
	}
}

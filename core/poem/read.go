package poem

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/Rhymer/core/errors"
)

// Format is a corpus file format.
type Format string

const (
	FormatText  Format = "text"
	FormatJSONL Format = "jsonl"
	FormatTEI   Format = "tei"
)

// DetectFormat picks a format from a file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".text", "":
		return FormatText, nil
	case ".jsonl", ".ndjson":
		return FormatJSONL, nil
	case ".xml", ".tei":
		return FormatTEI, nil
	}
	return "", errors.NewParse("corpus", path, "unrecognized extension "+filepath.Ext(path))
}

// Read loads every poem in the file at path, choosing the reader by extension.
func Read(path string) ([]*Poem, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	defer f.Close()

	poems, err := ReadFormat(f, format)
	if err != nil {
		var pe *errors.ParseError
		if errors.As(err, &pe) && pe.Path == "" {
			pe.Path = path
		}
		return nil, err
	}
	return poems, nil
}

// ReadFormat reads poems of the given format from r.
func ReadFormat(r io.Reader, format Format) ([]*Poem, error) {
	switch format {
	case FormatText:
		return ReadText(r)
	case FormatJSONL:
		return ReadJSONL(r)
	case FormatTEI:
		return ReadTEI(r)
	}
	return nil, errors.NewParse("corpus", "", "unknown format "+string(format))
}

// Separator is the explicit poem separator in plain text corpora.
const Separator = "---"

// ReadText reads plain text poems. Poems are separated by a line holding
// only "---" or by two or more consecutive blank lines. A poem may start
// with "Title:", "Author:" and "Scheme:" header lines. Single blank lines
// inside a poem are stanza breaks and are not lines of the poem.
func ReadText(r io.Reader) ([]*Poem, error) {
	var (
		poems  []*Poem
		cur    = &Poem{}
		blanks int
	)
	flush := func() {
		if len(cur.Lines) > 0 {
			cur.normalize()
			poems = append(poems, cur)
		}
		cur = &Poem{}
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \t\r")
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == Separator:
			flush()
			blanks = 0
			continue
		case trimmed == "":
			blanks++
			if blanks == 2 {
				flush()
			}
			continue
		}
		blanks = 0

		if len(cur.Lines) == 0 {
			if v, ok := header(trimmed, "Title:"); ok {
				cur.Title = v
				continue
			}
			if v, ok := header(trimmed, "Author:"); ok {
				cur.Author = v
				continue
			}
			if v, ok := header(trimmed, "Scheme:"); ok {
				cur.Scheme = v
				continue
			}
		}
		cur.Lines = append(cur.Lines, Line{Text: trimmed})
	}
	if err := sc.Err(); err != nil {
		return nil, errors.NewIO("read", "", err)
	}
	flush()
	return poems, nil
}

func header(line, prefix string) (string, bool) {
	if len(line) < len(prefix) || !strings.EqualFold(line[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(line[len(prefix):]), true
}

// jsonPoem accepts lines either as strings or as line records.
type jsonPoem struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Author    string            `json:"author"`
	Lines     []json.RawMessage `json:"lines"`
	Scheme    string            `json:"scheme"`
	RhymeSets [][]int           `json:"rhyme_sets"`
}

// ReadJSONL reads one JSON poem object per line. Blank lines are skipped.
func ReadJSONL(r io.Reader) ([]*Poem, error) {
	var poems []*Poem
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	n := 0
	for sc.Scan() {
		n++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		var jp jsonPoem
		if err := json.Unmarshal([]byte(raw), &jp); err != nil {
			return nil, &errors.ParseError{Format: "JSONL", Message: lineMessage(n, err.Error()), Err: err}
		}
		p, err := jp.poem()
		if err != nil {
			return nil, &errors.ParseError{Format: "JSONL", Message: lineMessage(n, err.Error()), Err: err}
		}
		poems = append(poems, p)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.NewIO("read", "", err)
	}
	return poems, nil
}

func (jp *jsonPoem) poem() (*Poem, error) {
	p := &Poem{ID: jp.ID, Title: jp.Title, Author: jp.Author, Scheme: jp.Scheme}
	for _, raw := range jp.Lines {
		var text string
		if err := json.Unmarshal(raw, &text); err == nil {
			p.Lines = append(p.Lines, Line{Text: text})
			continue
		}
		var l Line
		if err := json.Unmarshal(raw, &l); err != nil {
			return nil, err
		}
		p.Lines = append(p.Lines, l)
	}
	p.RhymeSets = jp.RhymeSets
	p.normalize()
	return p, nil
}

func lineMessage(n int, msg string) string {
	return "line " + strconv.Itoa(n) + ": " + msg
}

// WriteJSONL writes poems one JSON object per line.
func WriteJSONL(w io.Writer, poems []*Poem) error {
	enc := json.NewEncoder(w)
	for _, p := range poems {
		if err := enc.Encode(p); err != nil {
			return errors.NewIO("write", "", err)
		}
	}
	return nil
}

package validation

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		wantError error
	}{
		{"relative path", "poems/sonnets.txt", nil},
		{"absolute path", "/var/lib/rhymer/rhymes.txt.xz", nil},
		{"empty path", "", ErrEmptyPath},
		{"very long path", strings.Repeat("a", MaxPathLength+1), ErrPathTooLong},
		{"null byte", "poems\x00.txt", ErrInvalidCharacter},
		{"control character", "poems\n.txt", ErrInvalidCharacter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.path)
			if tt.wantError == nil {
				if err != nil {
					t.Errorf("ValidatePath() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantError) {
				t.Errorf("ValidatePath() error = %v, want %v", err, tt.wantError)
			}
		})
	}
}

func TestDetectFileType(t *testing.T) {
	tests := []struct {
		name     string
		content  []byte
		filename string
		want     FileType
	}{
		{"text corpus", []byte("Title: Sonnet 18\nShall I compare thee\n"), "sonnets.txt", FileTypeText},
		{"no extension", []byte("a line\n"), "corpus", FileTypeText},
		{"tei", []byte("<?xml version=\"1.0\"?><TEI/>"), "poems.xml", FileTypeXML},
		{"jsonl", []byte(`{"lines":["a"]}` + "\n"), "poems.jsonl", FileTypeJSONL},
		{"xz", []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00, 0x00}, "poems.txt", FileTypeXZ},
		{"gzip", []byte{0x1f, 0x8b, 0x08}, "poems.txt", FileTypeGzip},
		{"zip", []byte{0x50, 0x4b, 0x03, 0x04, 0x00}, "poems.txt", FileTypeZip},
		{"sqlite", []byte("SQLite format 3\x00rest"), "poems.txt", FileTypeSQLite},
		{"binary", []byte{0x01, 0x02, 0x00, 0x03}, "poems.txt", FileTypeUnknown},
		{"empty", nil, "poems.txt", FileTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFileType(bytes.NewReader(tt.content), tt.filename)
			if err != nil {
				t.Fatalf("DetectFileType() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DetectFileType() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestValidateCorpusFile(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, data []byte) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	if err := ValidateCorpusFile(write("ok.txt", []byte("night\nlight\n"))); err != nil {
		t.Errorf("text corpus rejected: %v", err)
	}
	if err := ValidateCorpusFile(write("empty.txt", nil)); err != nil {
		t.Errorf("empty corpus rejected: %v", err)
	}
	if err := ValidateCorpusFile(write("rhymes.txt", []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00})); !errors.Is(err, ErrNotText) {
		t.Errorf("xz data as corpus: error = %v, want ErrNotText", err)
	}
	if err := ValidateCorpusFile(write("blob.txt", []byte{0, 1, 2, 3})); !errors.Is(err, ErrNotText) {
		t.Errorf("binary corpus: error = %v, want ErrNotText", err)
	}
	if err := ValidateCorpusFile(filepath.Join(dir, "missing.txt")); !os.IsNotExist(err) {
		t.Errorf("missing corpus: error = %v", err)
	}
}

func TestIsLikelyText(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		want bool
	}{
		{"ascii", []byte("Shall I compare thee to a summer's day?"), true},
		{"utf-8", []byte("Où sont les neiges d'antan?"), true},
		{"null byte", []byte("text\x00more"), false},
		{"mostly control", []byte{0x01, 0x02, 0x03, 'a'}, false},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isLikelyText(tt.buf); got != tt.want {
				t.Errorf("isLikelyText() = %v, want %v", got, tt.want)
			}
		})
	}
}

// Package validation checks user-supplied paths and corpus files before
// they are opened, so that a wrong file fails with a clear message instead
// of a parse error deep inside a reader.
package validation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// Security limits to prevent DoS attacks (CWE-400).
const (
	// MaxCorpusSize is the largest corpus file accepted (256 MB).
	MaxCorpusSize = 256 << 20
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
)

// Common validation errors.
var (
	ErrPathTooLong      = errors.New("path too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
	ErrEmptyPath        = errors.New("path cannot be empty")
	ErrFileTooLarge     = errors.New("file too large")
	ErrNotText          = errors.New("file is not text")
)

// ValidatePath checks for empty paths, length limits, and control characters.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%w: null byte not allowed", ErrInvalidCharacter)
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}
	return nil
}

// FileType is a detected file type.
type FileType string

const (
	FileTypeXZ      FileType = "xz"
	FileTypeGzip    FileType = "gzip"
	FileTypeZip     FileType = "zip"
	FileTypeSQLite  FileType = "sqlite"
	FileTypeXML     FileType = "xml"
	FileTypeJSONL   FileType = "jsonl"
	FileTypeText    FileType = "text"
	FileTypeUnknown FileType = "unknown"
)

// magicBytes defines magic byte signatures for file type detection.
var magicBytes = []struct {
	fileType FileType
	magic    []byte
}{
	{FileTypeXZ, []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}},
	{FileTypeGzip, []byte{0x1f, 0x8b}},
	{FileTypeZip, []byte{0x50, 0x4b, 0x03, 0x04}},
	{FileTypeSQLite, []byte("SQLite format 3")},
}

// DetectFileType reads the head of reader and returns the type it holds.
// Binary formats are recognized by magic bytes; text is classified by the
// filename extension.
func DetectFileType(reader io.Reader, filename string) (FileType, error) {
	buf := make([]byte, 512)
	n, err := io.ReadFull(reader, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return FileTypeUnknown, fmt.Errorf("failed to read file header: %w", err)
	}
	buf = buf[:n]

	if t := detectFileTypeFromMagic(buf); t != FileTypeUnknown {
		return t, nil
	}
	if !isLikelyText(buf) {
		return FileTypeUnknown, nil
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xml", ".tei":
		return FileTypeXML, nil
	case ".jsonl", ".ndjson":
		return FileTypeJSONL, nil
	}
	return FileTypeText, nil
}

// ValidateCorpusFile checks that path names a readable text corpus of
// acceptable size. An empty file is valid.
func ValidateCorpusFile(path string) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.Size() > MaxCorpusSize {
		return fmt.Errorf("%w: %s is %d bytes, limit is %d", ErrFileTooLarge, path, info.Size(), MaxCorpusSize)
	}
	if info.Size() == 0 {
		return nil
	}

	t, err := DetectFileType(f, path)
	if err != nil {
		return err
	}
	switch t {
	case FileTypeText, FileTypeXML, FileTypeJSONL:
		return nil
	case FileTypeUnknown:
		return fmt.Errorf("%w: %s looks binary", ErrNotText, path)
	default:
		return fmt.Errorf("%w: %s is %s data", ErrNotText, path, t)
	}
}

func detectFileTypeFromMagic(buf []byte) FileType {
	for _, sig := range magicBytes {
		if bytes.HasPrefix(buf, sig.magic) {
			return sig.fileType
		}
	}
	return FileTypeUnknown
}

// isLikelyText reports whether buf looks like UTF-8 or ASCII text: no NUL
// bytes and almost no control characters.
func isLikelyText(buf []byte) bool {
	if len(buf) == 0 {
		return false
	}
	if bytes.IndexByte(buf, 0) != -1 {
		return false
	}

	printable := 0
	control := 0
	for _, b := range buf {
		if b >= 0x20 && b <= 0x7e || b == '\t' || b == '\n' || b == '\r' {
			printable++
		} else if b < 0x20 {
			control++
		}
		// UTF-8 lead and continuation bytes are neutral.
	}
	return control*20 <= printable
}

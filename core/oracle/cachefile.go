package oracle

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/Rhymer/core/errors"
	"github.com/FocuswithJustin/Rhymer/core/textnorm"
	"github.com/FocuswithJustin/Rhymer/internal/logging"
)

// fieldSeparator joins the headword and its rhymes on one cache line.
const fieldSeparator = ", "

// maxCacheLine bounds a single cache line (a headword plus MaxResults rhymes).
const maxCacheLine = 1 << 20

// ReadCache loads entries from r into the cache and returns how many were
// inserted. Headwords and rhymes are normalized the way lookups are; lines
// that are blank or whose headword normalizes to nothing are skipped.
// Entries already cached are kept as is.
func (o *Oracle) ReadCache(r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxCacheLine)

	inserted := 0
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, fieldSeparator)
		head := textnorm.Word(fields[0])
		if head == "" {
			continue
		}
		if o.Put(head, normalizeWords(fields[1:], 0)) {
			inserted++
		}
	}
	if err := scanner.Err(); err != nil {
		return inserted, errors.Wrap(err, "reading rhyme cache")
	}
	return inserted, nil
}

// WriteCache writes every cached entry to w, one per line, ordered by
// headword. It returns the number of entries written.
func (o *Oracle) WriteCache(w io.Writer) (int, error) {
	bw := bufio.NewWriter(w)
	entries := o.Entries()
	for _, e := range entries {
		fields := append([]string{e.Word}, e.Rhymes...)
		if _, err := bw.WriteString(strings.Join(fields, fieldSeparator) + "\n"); err != nil {
			return 0, errors.Wrap(err, "writing rhyme cache")
		}
	}
	if err := bw.Flush(); err != nil {
		return 0, errors.Wrap(err, "writing rhyme cache")
	}
	return len(entries), nil
}

// Load reads a cache file. Paths ending in ".xz" are decompressed.
func (o *Oracle) Load(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.NewIO("open", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if isXZ(path) {
		xzr, err := xz.NewReader(f)
		if err != nil {
			return 0, errors.NewIO("decompress", path, err)
		}
		r = xzr
	}

	n, err := o.ReadCache(r)
	if err != nil {
		return n, errors.NewIO("read", path, err)
	}
	logging.CacheIO("load", path, n, "total", o.Len())
	return n, nil
}

// Save writes the cache file atomically: the content goes to a temporary
// file in the same directory which is then renamed over path. Paths ending
// in ".xz" are compressed.
func (o *Oracle) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.NewIO("create directory", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".rhymes-*")
	if err != nil {
		return errors.NewIO("create", dir, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	// CreateTemp makes the file 0600.
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return errors.NewIO("chmod", tmpPath, err)
	}
	n, err := o.writeTo(tmp, isXZ(path))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return errors.NewIO("write", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return errors.NewIO("rename", path, err)
	}
	logging.CacheIO("save", path, n)
	return nil
}

func (o *Oracle) writeTo(w io.Writer, compress bool) (int, error) {
	if !compress {
		return o.WriteCache(w)
	}
	xzw, err := xz.NewWriter(w)
	if err != nil {
		return 0, err
	}
	n, err := o.WriteCache(xzw)
	if err != nil {
		xzw.Close()
		return 0, err
	}
	return n, xzw.Close()
}

func isXZ(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".xz")
}

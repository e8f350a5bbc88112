package oracle

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/FocuswithJustin/Rhymer/core/errors"
)

func TestReadCache(t *testing.T) {
	input := "light, bright, night\n\nday, may, say\r\nsun\n   \n"
	o := New(nil, DefaultConfig())

	n, err := o.ReadCache(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCache: %v", err)
	}
	if n != 3 {
		t.Errorf("inserted = %d, want 3", n)
	}
	got, _ := o.Rhymes("day")
	if !slices.Equal(got, []string{"may", "say"}) {
		t.Errorf("Rhymes(day) = %v", got)
	}
	if rhymes, ok := o.Rhymes("sun"); !ok || len(rhymes) != 0 {
		t.Errorf("Rhymes(sun) = %v, %v; want cached with no rhymes", rhymes, ok)
	}
	if !o.IsRhyme("night", "light") {
		t.Error("loaded entries should answer IsRhyme")
	}
}

func TestReadCacheNormalizes(t *testing.T) {
	input := "Light, Night, bright!, night\n42, four\nlight, sight\n"
	o := New(nil, DefaultConfig())

	n, err := o.ReadCache(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCache: %v", err)
	}
	if n != 1 {
		t.Errorf("inserted = %d, want 1", n)
	}
	got, ok := o.Rhymes("light")
	if !ok || !slices.Equal(got, []string{"night", "bright"}) {
		t.Errorf("Rhymes(light) = %v, %v; want [night bright]", got, ok)
	}
	if !o.IsRhyme("LIGHT", "Night") {
		t.Error("entry with a capitalized headword should answer normalized lookups")
	}
	if o.Len() != 1 {
		t.Errorf("Len() = %d; a headword without letters should be skipped", o.Len())
	}
}

func TestWriteCacheFormat(t *testing.T) {
	o := New(nil, DefaultConfig())
	o.Put("light", []string{"bright", "night"})
	o.Put("day", []string{"may"})
	o.Put("sun", nil)

	var buf bytes.Buffer
	n, err := o.WriteCache(&buf)
	if err != nil {
		t.Fatalf("WriteCache: %v", err)
	}
	if n != 3 {
		t.Errorf("written = %d, want 3", n)
	}
	want := "day, may\nlight, bright, night\nsun\n"
	if buf.String() != want {
		t.Errorf("WriteCache() = %q, want %q", buf.String(), want)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	for _, name := range []string{"rhymes.txt", "rhymes.txt.xz"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)

			src := New(nil, DefaultConfig())
			src.Put("light", []string{"bright", "night", "sight"})
			src.Put("day", []string{"may", "way"})
			src.Put("orange", nil)
			if err := src.Save(path); err != nil {
				t.Fatalf("Save: %v", err)
			}

			raw, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			info, err := os.Stat(path)
			if err != nil {
				t.Fatal(err)
			}
			if perm := info.Mode().Perm(); perm != 0644 {
				t.Errorf("mode = %v, want 0644", perm)
			}
			compressed := !bytes.Contains(raw, []byte("light, bright"))
			if compressed != strings.HasSuffix(name, ".xz") {
				t.Errorf("compressed = %v for %s", compressed, name)
			}

			dst := New(nil, DefaultConfig())
			n, err := dst.Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if n != 3 {
				t.Errorf("loaded = %d, want 3", n)
			}
			if !slices.EqualFunc(src.Entries(), dst.Entries(), func(a, b Entry) bool {
				return a.Word == b.Word && slices.Equal(a.Rhymes, b.Rhymes)
			}) {
				t.Errorf("round trip mismatch:\n got %v\nwant %v", dst.Entries(), src.Entries())
			}

			entries, _ := os.ReadDir(filepath.Dir(path))
			if len(entries) != 1 {
				t.Errorf("temporary files left behind: %v", entries)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	o := New(nil, DefaultConfig())
	_, err := o.Load(filepath.Join(t.TempDir(), "absent.txt"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	var ioErr *errors.IOError
	if !errors.As(err, &ioErr) || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want IOError wrapping ErrNotExist", err)
	}
}

func TestLoadKeepsExistingEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rhymes.txt")
	if err := os.WriteFile(path, []byte("day, say\n"), 0644); err != nil {
		t.Fatal(err)
	}
	o := New(nil, DefaultConfig())
	o.Put("day", []string{"may"})
	n, err := o.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("inserted = %d, want 0", n)
	}
	got, _ := o.Rhymes("day")
	if !slices.Equal(got, []string{"may"}) {
		t.Errorf("existing entry replaced: %v", got)
	}
}

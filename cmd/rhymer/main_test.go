package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/Rhymer/core/errors"
	"github.com/FocuswithJustin/Rhymer/core/oracle"
	"github.com/FocuswithJustin/Rhymer/core/poem"
	"github.com/FocuswithJustin/Rhymer/internal/store"
)

const textCorpus = `Title: Night Tide
Author: Anon

I walk alone at night,
beneath the failing light;
the tide runs to the sea
and carries you from me.
`

const jsonlCorpus = `{"id":"tide","title":"Night Tide","lines":["I walk alone at night,","beneath the failing light;","the tide runs to the sea","and carries you from me."],"scheme":"AABB"}
{"id":"turn","title":"Turn","lines":["the sea","at night","for me","the light"],"scheme":"ABAB"}
`

// Test helper functions

func createTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	return path
}

func testGlobals(t *testing.T, src oracle.Source) (*Globals, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	g := &Globals{
		CacheFile:  filepath.Join(t.TempDir(), "rhymes.txt"),
		MaxResults: 100,
		Mode:       "group",
		out:        &out,
		source:     src,
	}
	return g, &out
}

func testSource() oracle.MapSource {
	return oracle.MapSource{}.Link("night", "light").Link("sea", "me")
}

func TestCLIParse(t *testing.T) {
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("rhymer"), kong.Exit(func(int) {}))
	if err != nil {
		t.Fatalf("kong.New: %v", err)
	}
	if _, err := parser.Parse([]string{"--mode", "scheme", "--cache", "r.txt.xz", "cache", "show", "night", "light"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cli.Mode != "scheme" || !strings.HasSuffix(cli.CacheFile, "r.txt.xz") {
		t.Errorf("globals = %+v", cli.Globals)
	}
	if got := cli.Cache.Show.Words; len(got) != 2 || got[0] != "night" {
		t.Errorf("words = %v", got)
	}
	if _, err := parser.Parse([]string{"--mode", "sideways", "version"}); err == nil {
		t.Error("unknown mode should be rejected")
	}
}

func TestLabelCmd(t *testing.T) {
	dir := t.TempDir()
	corpus := createTestFile(t, dir, "poems.txt", textCorpus)
	g, out := testGlobals(t, testSource())

	if err := (&LabelCmd{Files: []string{corpus}}).Run(g); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "notation: AABB") {
		t.Errorf("output missing notation:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "Night Tide") {
		t.Errorf("output missing title:\n%s", out.String())
	}

	reloaded := oracle.New(nil, oracle.DefaultConfig())
	n, err := reloaded.Load(g.CacheFile)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if n != 4 || !reloaded.IsRhyme("night", "light") {
		t.Errorf("cache has %d entries", n)
	}
}

func TestLabelCmdJSON(t *testing.T) {
	dir := t.TempDir()
	corpus := createTestFile(t, dir, "poems.txt", textCorpus)
	g, out := testGlobals(t, testSource())

	if err := (&LabelCmd{Files: []string{corpus}, JSON: true, Clean: true}).Run(g); err != nil {
		t.Fatalf("Run: %v", err)
	}
	poems, err := poem.ReadJSONL(out)
	if err != nil {
		t.Fatalf("ReadJSONL: %v", err)
	}
	if len(poems) != 1 || poems[0].Notation() != "AABB" {
		t.Fatalf("poems = %+v", poems)
	}
	if got := poems[0].Lines[0].Text; got != "I walk alone at night" {
		t.Errorf("cleaned line = %q", got)
	}
}

func TestLabelCmdLookupFailure(t *testing.T) {
	dir := t.TempDir()
	corpus := createTestFile(t, dir, "poems.txt", textCorpus)
	failing := oracle.SourceFunc(func(ctx context.Context, word string, maxResults int) ([]string, error) {
		return nil, fmt.Errorf("service unavailable")
	})
	g, _ := testGlobals(t, failing)

	err := (&LabelCmd{Files: []string{corpus}}).Run(g)
	if !errors.Is(err, errors.ErrExternalLookup) {
		t.Errorf("Run() error = %v, want a lookup failure", err)
	}
}

func TestBatchCmd(t *testing.T) {
	dir := t.TempDir()
	corpus := createTestFile(t, dir, "poems.jsonl", jsonlCorpus)
	db := filepath.Join(dir, "rhymer.db")
	jsonOut := filepath.Join(dir, "out", "labeled.jsonl")
	g, out := testGlobals(t, testSource())

	cmd := &BatchCmd{Corpus: []string{corpus}, DB: db, Out: jsonOut, Workers: 1}
	if err := cmd.Run(g); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "labeled 2 of 2 poems") {
		t.Errorf("output:\n%s", out.String())
	}

	st, err := store.Open(db)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer st.Close()
	summaries, err := st.ListPoems(context.Background(), "")
	if err != nil {
		t.Fatalf("ListPoems: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("stored %d poems, want 2", len(summaries))
	}
	runs, err := st.Runs(context.Background())
	if err != nil || len(runs) != 1 || runs[0].Poems != 2 {
		t.Errorf("runs = %+v, %v", runs, err)
	}

	labeled, err := poem.Read(jsonOut)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(labeled) != 2 || labeled[1].Notation() != "ABAB" {
		t.Errorf("labeled = %+v", labeled)
	}
}

func TestEvalCmd(t *testing.T) {
	dir := t.TempDir()
	corpus := createTestFile(t, dir, "gold.jsonl", jsonlCorpus)
	g, out := testGlobals(t, testSource())

	if err := (&EvalCmd{Corpus: []string{corpus}, Verbose: true}).Run(g); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "2 poems evaluated") {
		t.Errorf("output:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "F1 1.000") {
		t.Errorf("labeling should match the gold schemes:\n%s", out.String())
	}
}

func TestEvalCmdWithoutGold(t *testing.T) {
	dir := t.TempDir()
	corpus := createTestFile(t, dir, "poems.txt", textCorpus)
	g, _ := testGlobals(t, testSource())

	err := (&EvalCmd{Corpus: []string{corpus}}).Run(g)
	if !errors.Is(err, errors.ErrMalformedInput) {
		t.Errorf("Run() error = %v, want malformed input", err)
	}
}

func TestStatsCmd(t *testing.T) {
	dir := t.TempDir()
	corpus := createTestFile(t, dir, "poems.jsonl", jsonlCorpus)
	g, out := testGlobals(t, testSource())

	if err := (&StatsCmd{Corpus: []string{corpus}, Top: 5}).Run(g); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, want := range []string{
		"poems:        2 of 2",
		"groups:       4",
		"rhyme pairs:  2",
		"linked poems: 1 pairs",
		"tide ~ turn: light/night, me/sea",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestCacheCmds(t *testing.T) {
	dir := t.TempDir()
	g, out := testGlobals(t, nil)

	if err := (&CacheShowCmd{}).Run(&Globals{out: out}); !errors.Is(err, errors.ErrInvalidConfiguration) {
		t.Errorf("show without cache: %v", err)
	}

	other := oracle.New(nil, oracle.DefaultConfig())
	other.Put("night", []string{"light", "bright"})
	other.Put("sea", []string{"me"})
	imported := filepath.Join(dir, "other.txt.xz")
	if err := other.Save(imported); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := (&CacheImportCmd{Files: []string{imported}}).Run(g); err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out.String(), "imported 2 new headwords (2 total)") {
		t.Errorf("import output:\n%s", out.String())
	}

	out.Reset()
	if err := (&CacheShowCmd{Words: []string{"Night", "moon"}}).Run(g); err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out.String(), "Night: light, bright") || !strings.Contains(out.String(), "moon: not cached") {
		t.Errorf("show output:\n%s", out.String())
	}

	exported := filepath.Join(dir, "export", "rhymes.txt")
	if err := (&CacheExportCmd{Out: exported}).Run(g); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(exported)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "night") {
		t.Errorf("exported cache:\n%s", data)
	}
}

func TestServeConfig(t *testing.T) {
	g, _ := testGlobals(t, nil)
	g.Mode = "scheme"
	cmd := &ServeCmd{Port: 9000, APIKey: "0123456789abcdef", RateLimit: 30, RateBurst: 5, MaxLines: 50}

	cfg, err := cmd.config(g)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if cfg.Port != 9000 || !cfg.Auth.Enabled || cfg.RateLimitRequests != 30 || cfg.MaxLines != 50 {
		t.Errorf("config = %+v", cfg)
	}
	if cfg.DefaultMode.String() != "scheme" {
		t.Errorf("mode = %s", cfg.DefaultMode)
	}
}

func TestVersionCmd(t *testing.T) {
	g, out := testGlobals(t, nil)
	if err := (&VersionCmd{}).Run(g); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "rhymer version "+version) {
		t.Errorf("output = %q", out.String())
	}
}

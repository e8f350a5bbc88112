// Package store persists labeled poems and labeling runs in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/Rhymer/core/errors"
	"github.com/FocuswithJustin/Rhymer/core/partition"
	"github.com/FocuswithJustin/Rhymer/core/poem"
	"github.com/FocuswithJustin/Rhymer/core/scheme"
	"github.com/FocuswithJustin/Rhymer/core/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	mode        TEXT NOT NULL,
	source      TEXT NOT NULL DEFAULT '',
	started_at  TEXT NOT NULL,
	finished_at TEXT,
	poems       INTEGER NOT NULL DEFAULT 0,
	failed      INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS poems (
	id         TEXT PRIMARY KEY,
	run_id     TEXT REFERENCES runs(id) ON DELETE SET NULL,
	title      TEXT NOT NULL DEFAULT '',
	author     TEXT NOT NULL DEFAULT '',
	lines      TEXT NOT NULL,
	scheme     TEXT NOT NULL DEFAULT '',
	mode       TEXT NOT NULL DEFAULT '',
	labeled_at TEXT
);
CREATE INDEX IF NOT EXISTS poems_author ON poems(author);
CREATE TABLE IF NOT EXISTS rhyme_sets (
	poem_id     TEXT NOT NULL REFERENCES poems(id) ON DELETE CASCADE,
	group_index INTEGER NOT NULL,
	line_index  INTEGER NOT NULL,
	PRIMARY KEY (poem_id, line_index)
);
`

// Store is a SQLite-backed poem store. It is safe for concurrent use.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Run is one labeling pass over a corpus.
type Run struct {
	ID         string
	Mode       string
	Source     string
	StartedAt  time.Time
	FinishedAt time.Time // zero while running
	Poems      int
	Failed     int
}

// Summary is a stored poem without its lines.
type Summary struct {
	ID       string
	Title    string
	Author   string
	Lines    int
	Groups   int
	Mode     string
	RunID    string
	Notation string
}

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.NewIO("migrate", path, err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// StartRun records a new run and returns it.
func (s *Store) StartRun(ctx context.Context, mode, source string) (*Run, error) {
	r := &Run{
		ID:        uuid.NewString(),
		Mode:      mode,
		Source:    source,
		StartedAt: s.now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, mode, source, started_at) VALUES (?, ?, ?, ?)`,
		r.ID, r.Mode, r.Source, r.StartedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, errors.Wrap(err, "start run")
	}
	return r, nil
}

// FinishRun records the totals of a run.
func (s *Store) FinishRun(ctx context.Context, runID string, poems, failed int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, poems = ?, failed = ? WHERE id = ?`,
		s.now().UTC().Format(time.RFC3339Nano), poems, failed, runID)
	if err != nil {
		return errors.Wrap(err, "finish run")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFound("run", runID)
	}
	return nil
}

// Runs lists runs, most recent first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, mode, source, started_at, COALESCE(finished_at, ''), poems, failed
		 FROM runs ORDER BY started_at DESC, id`)
	if err != nil {
		return nil, errors.Wrap(err, "list runs")
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r                 Run
			started, finished string
		)
		if err := rows.Scan(&r.ID, &r.Mode, &r.Source, &started, &finished, &r.Poems, &r.Failed); err != nil {
			return nil, errors.Wrap(err, "scan run")
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		if finished != "" {
			r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SavePoem stores p and its RhymeSets, replacing any earlier labeling of
// the same poem ID. runID may be empty.
func (s *Store) SavePoem(ctx context.Context, runID, mode string, p *poem.Poem) (err error) {
	if p.ID == "" {
		return errors.NewMalformed(-1, "poem has no ID")
	}
	lines, err := json.Marshal(p.Texts())
	if err != nil {
		return errors.Wrap(err, "encode lines")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var run any
	if runID != "" {
		run = runID
	}
	var labeledAt any
	if p.RhymeSets != nil {
		labeledAt = s.now().UTC().Format(time.RFC3339Nano)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO poems (id, run_id, title, author, lines, scheme, mode, labeled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			run_id = excluded.run_id, title = excluded.title, author = excluded.author,
			lines = excluded.lines, scheme = excluded.scheme, mode = excluded.mode,
			labeled_at = excluded.labeled_at`,
		p.ID, run, p.Title, p.Author, string(lines), p.Scheme, mode, labeledAt)
	if err != nil {
		return errors.Wrapf(err, "save poem %s", p.ID)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM rhyme_sets WHERE poem_id = ?`, p.ID); err != nil {
		return errors.Wrapf(err, "clear rhyme sets of %s", p.ID)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO rhyme_sets (poem_id, group_index, line_index) VALUES (?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "prepare rhyme sets")
	}
	defer stmt.Close()
	for g, members := range p.RhymeSets.Normalize() {
		for _, i := range members {
			if _, err = stmt.ExecContext(ctx, p.ID, g, i); err != nil {
				return errors.Wrapf(err, "save rhyme set of %s", p.ID)
			}
		}
	}
	return tx.Commit()
}

// LoadPoem returns the stored poem with its rhyme sets.
func (s *Store) LoadPoem(ctx context.Context, id string) (*poem.Poem, error) {
	var (
		p       = &poem.Poem{ID: id}
		lines   string
		labeled sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT title, author, lines, scheme, labeled_at FROM poems WHERE id = ?`, id).
		Scan(&p.Title, &p.Author, &lines, &p.Scheme, &labeled)
	if err == sql.ErrNoRows {
		return nil, &errors.NotFoundError{Resource: "poem", ID: id}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load poem %s", id)
	}

	var texts []string
	if err := json.Unmarshal([]byte(lines), &texts); err != nil {
		return nil, &errors.ParseError{Format: "stored lines", Message: err.Error(), Err: err}
	}
	for i, t := range texts {
		p.Lines = append(p.Lines, poem.Line{Index: i, Text: t})
	}

	if labeled.Valid {
		sets, err := s.rhymeSets(ctx, id)
		if err != nil {
			return nil, err
		}
		p.RhymeSets = sets
	}
	return p, nil
}

func (s *Store) rhymeSets(ctx context.Context, id string) (partition.Partition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT group_index, line_index FROM rhyme_sets WHERE poem_id = ? ORDER BY group_index, line_index`, id)
	if err != nil {
		return nil, errors.Wrapf(err, "load rhyme sets of %s", id)
	}
	defer rows.Close()

	p := partition.Partition{}
	for rows.Next() {
		var g, i int
		if err := rows.Scan(&g, &i); err != nil {
			return nil, errors.Wrap(err, "scan rhyme set")
		}
		for len(p) <= g {
			p = append(p, nil)
		}
		p[g] = append(p[g], i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return p.Normalize(), nil
}

// ListPoems returns stored poems ordered by author, title and ID. An empty
// author lists every poem.
func (s *Store) ListPoems(ctx context.Context, author string) ([]Summary, error) {
	query := `SELECT id, title, author, lines, mode, COALESCE(run_id, '') FROM poems`
	var args []any
	if author != "" {
		query += ` WHERE author = ?`
		args = append(args, author)
	}
	query += ` ORDER BY author, title, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list poems")
	}
	var out []Summary
	for rows.Next() {
		var (
			sum   Summary
			lines string
		)
		if err := rows.Scan(&sum.ID, &sum.Title, &sum.Author, &lines, &sum.Mode, &sum.RunID); err != nil {
			rows.Close()
			return nil, errors.Wrap(err, "scan poem")
		}
		var texts []string
		if err := json.Unmarshal([]byte(lines), &texts); err == nil {
			sum.Lines = len(texts)
		}
		out = append(out, sum)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// The pool holds one connection, so rhyme sets are read after the
	// listing cursor is closed.
	for i := range out {
		sets, err := s.rhymeSets(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Groups = len(sets)
		if len(sets) > 0 {
			out[i].Notation = scheme.Notation(sets, out[i].Lines)
		}
	}
	return out, nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists harvest results in SQLite: one row per run, the
// latest artifacts and committee roster of every conference-year, and the
// resolutions and profiles derived from them.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/pdiddy/artifact-harvest/internal/logging"
	"github.com/pdiddy/artifact-harvest/pkg/types"
)

// DefaultPath is used when the configuration leaves store.path empty.
const DefaultPath = "data/harvest.db"

// timeFormat has fixed-width fractions so stored timestamps sort as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Store wraps the results database. It is safe for concurrent use.
type Store struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
	now    func() time.Time
}

// Open opens or creates the database at cfg.Path and creates the schema if
// it does not exist.
func Open(cfg types.StoreConfig, logger *zap.Logger) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: path, logger: logging.OrNop(logger), now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Path returns the database file.
func (s *Store) Path() string { return s.path }

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			command TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			collected INTEGER NOT NULL DEFAULT 0,
			empty INTEGER NOT NULL DEFAULT 0,
			skipped INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0,
			degraded TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS artifacts (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id),
			source TEXT NOT NULL,
			conference TEXT NOT NULL,
			year INTEGER NOT NULL,
			file TEXT,
			strategy TEXT,
			position INTEGER NOT NULL,
			title TEXT NOT NULL,
			badges TEXT,
			authors TEXT,
			doi TEXT,
			paper_url TEXT,
			repository_url TEXT,
			artifact_url TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_artifacts_conf ON artifacts(source, conference, year)`,
		`CREATE TABLE IF NOT EXISTS committee (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id),
			source TEXT NOT NULL,
			conference TEXT NOT NULL,
			year INTEGER NOT NULL,
			file TEXT,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			affiliation TEXT,
			role TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_committee_conf ON committee(source, conference, year)`,
		`CREATE TABLE IF NOT EXISTS resolutions (
			input TEXT PRIMARY KEY,
			run_id TEXT NOT NULL REFERENCES runs(id),
			country TEXT,
			institution TEXT,
			continent TEXT,
			method TEXT NOT NULL,
			score INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS profiles (
			normalized_name TEXT PRIMARY KEY,
			run_id TEXT NOT NULL REFERENCES runs(id),
			display_name TEXT NOT NULL,
			affiliation TEXT,
			total INTEGER NOT NULL,
			chairs INTEGER NOT NULL,
			years TEXT,
			conferences TEXT,
			area TEXT,
			first_year INTEGER,
			last_year INTEGER
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Run is one invocation of a harvesting command.
type Run struct {
	ID         string    `json:"id" yaml:"id"`
	Command    string    `json:"command" yaml:"command"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitzero" yaml:"finished_at,omitempty"`
	Collected  int       `json:"collected" yaml:"collected"`
	Empty      int       `json:"empty" yaml:"empty"`
	Skipped    int       `json:"skipped" yaml:"skipped"`
	Failed     int       `json:"failed" yaml:"failed"`
	Degraded   []string  `json:"degraded,omitempty" yaml:"degraded,omitempty"`
}

// BeginRun records the start of command and returns the new run.
func (s *Store) BeginRun(ctx context.Context, command string) (*Run, error) {
	run := &Run{ID: uuid.NewString(), Command: command, StartedAt: s.now().UTC()}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, command, started_at) VALUES (?, ?, ?)`,
		run.ID, run.Command, run.StartedAt.Format(timeFormat))
	if err != nil {
		return nil, fmt.Errorf("inserting run: %w", err)
	}
	return run, nil
}

// FinishRun stores the final counts of run.
func (s *Store) FinishRun(ctx context.Context, run *Run) error {
	run.FinishedAt = s.now().UTC()
	degraded, _ := json.Marshal(run.Degraded)
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, collected = ?, empty = ?, skipped = ?, failed = ?, degraded = ?
		 WHERE id = ?`,
		run.FinishedAt.Format(timeFormat), run.Collected, run.Empty, run.Skipped, run.Failed,
		string(degraded), run.ID)
	if err != nil {
		return fmt.Errorf("finishing run %s: %w", run.ID, err)
	}
	return nil
}

// Runs returns the most recent runs first, at most limit of them.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, command, started_at, finished_at, collected, empty, skipped, failed, degraded
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                 Run
			started           string
			finished, degJSON sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Command, &started, &finished,
			&r.Collected, &r.Empty, &r.Skipped, &r.Failed, &degJSON); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt, _ = time.Parse(timeFormat, started)
		if finished.Valid {
			r.FinishedAt, _ = time.Parse(timeFormat, finished.String)
		}
		if degJSON.Valid {
			json.Unmarshal([]byte(degJSON.String), &r.Degraded)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Filter narrows artifact and committee queries. Zero fields match
// everything.
type Filter struct {
	Source     string
	Conference string
	Year       int
}

func (f Filter) where(qb *strings.Builder, args []any) []any {
	qb.WriteString(` WHERE 1=1`)
	if f.Source != "" {
		qb.WriteString(` AND source = ?`)
		args = append(args, f.Source)
	}
	if f.Conference != "" {
		qb.WriteString(` AND conference = ?`)
		args = append(args, strings.ToLower(f.Conference))
	}
	if f.Year != 0 {
		qb.WriteString(` AND year = ?`)
		args = append(args, f.Year)
	}
	return args
}

type confKey struct {
	source string
	conf   types.ConferenceYear
}

func parseBadges(s string) types.BadgeSet {
	var out types.BadgeSet
	for _, b := range strings.Split(s, ",") {
		out = out.Add(types.Badge(strings.TrimSpace(b)))
	}
	return out
}

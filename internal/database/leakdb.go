package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/leakwatch/internal/metrics"
	"github.com/nao1215/leakwatch/internal/model"
)

// FileName is the database file created inside the database directory.
const FileName = "leakwatch.db"

// LeakDB is the fingerprint index and scan run log.
type LeakDB struct {
	db      *sql.DB
	dbPath  string
	metrics *metrics.Metrics
}

// Options configures LeakDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging so readers (the status API)
	// do not block the scan writing its results.
	EnableWAL bool

	// Metrics, when set, counts index writes.
	Metrics *metrics.Metrics
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the index inside dbDir.
func Open(dbDir string, opts Options) (*LeakDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	var dsn string
	if opts.CreateIfNotExists {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = dbPath + "?mode=rwc"
	} else {
		if _, err := os.Stat(dbPath); err != nil {
			return nil, fmt.Errorf("database not found at %s: %w", dbPath, err)
		}
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	ldb := &LeakDB{
		db:      db,
		dbPath:  dbPath,
		metrics: opts.Metrics,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := ldb.createTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return ldb, nil
}

// Path returns the database file path.
func (ldb *LeakDB) Path() string {
	return ldb.dbPath
}

// Close closes the database connection.
func (ldb *LeakDB) Close() error {
	return ldb.db.Close()
}

func (ldb *LeakDB) createTables(ctx context.Context) error {
	schema := `
	-- One row per distinct content fingerprint seen for a company
	CREATE TABLE IF NOT EXISTS fingerprints (
		company TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		url TEXT NOT NULL,
		first_seen TEXT NOT NULL,
		last_seen TEXT NOT NULL,
		sightings INTEGER NOT NULL DEFAULT 1,
		PRIMARY KEY (company, content_hash)
	);

	CREATE INDEX IF NOT EXISTS idx_fingerprints_last_seen ON fingerprints(last_seen);

	-- One row per company scan
	CREATE TABLE IF NOT EXISTS scan_runs (
		id TEXT PRIMARY KEY,
		company TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		candidates INTEGER NOT NULL DEFAULT 0,
		fetched INTEGER NOT NULL DEFAULT 0,
		leaks INTEGER NOT NULL DEFAULT 0,
		outcome TEXT NOT NULL,
		steps TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_company ON scan_runs(company, started_at);
	`

	_, err := ldb.db.ExecContext(ctx, schema)
	return err
}

// ObserveLeaks records the fingerprints of leaks for company and marks every
// record whose fingerprint was stored by an earlier call. Records sharing a
// fingerprint within one call are not marked against each other.
func (ldb *LeakDB) ObserveLeaks(ctx context.Context, company string, leaks []*model.LeakRecord) (err error) {
	defer func() { ldb.metrics.IncPersistence(metrics.PersistIndex, err) }()

	if len(leaks) == 0 {
		return nil
	}

	tx, err := ldb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	firstSeen := make(map[string]time.Time, len(leaks))
	for _, leak := range leaks {
		if leak.ContentHash == "" {
			continue
		}
		if _, ok := firstSeen[leak.ContentHash]; ok {
			continue
		}
		var ts string
		err := tx.QueryRowContext(ctx,
			`SELECT first_seen FROM fingerprints WHERE company = ? AND content_hash = ?`,
			company, leak.ContentHash,
		).Scan(&ts)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to look up fingerprint: %w", err)
		}
		firstSeen[leak.ContentHash] = parseTimestamp(ts)
	}

	upsert := `
	INSERT INTO fingerprints (company, content_hash, url, first_seen, last_seen)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(company, content_hash) DO UPDATE SET
		url = excluded.url,
		last_seen = excluded.last_seen,
		sightings = sightings + 1
	`
	for _, leak := range leaks {
		if leak.ContentHash == "" {
			continue
		}
		if seen, ok := firstSeen[leak.ContentHash]; ok {
			leak.PreviouslySeen = true
			if !seen.IsZero() {
				leak.FirstSeen = &seen
			}
		}

		at := leak.DiscoveryTime
		if at.IsZero() {
			at = time.Now()
		}
		ts := formatTimestamp(at)
		if _, err := tx.ExecContext(ctx, upsert, company, leak.ContentHash, leak.URL, ts, ts); err != nil {
			return fmt.Errorf("failed to record fingerprint: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit fingerprints: %w", err)
	}
	return nil
}

// Fingerprint is a stored content fingerprint.
type Fingerprint struct {
	Company     string
	ContentHash string
	URL         string
	FirstSeen   time.Time
	LastSeen    time.Time
	Sightings   int
}

// ListFingerprints returns the fingerprints of company, most recently seen first.
// A limit <= 0 returns all of them.
func (ldb *LeakDB) ListFingerprints(ctx context.Context, company string, limit int) ([]Fingerprint, error) {
	query := `
	SELECT company, content_hash, url, first_seen, last_seen, sightings
	FROM fingerprints
	WHERE company = ?
	ORDER BY last_seen DESC
	`
	args := []any{company}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := ldb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query fingerprints: %w", err)
	}
	defer rows.Close()

	var results []Fingerprint
	for rows.Next() {
		var (
			fp              Fingerprint
			first, lastSeen string
		)
		if err := rows.Scan(&fp.Company, &fp.ContentHash, &fp.URL, &first, &lastSeen, &fp.Sightings); err != nil {
			return nil, fmt.Errorf("failed to scan fingerprint: %w", err)
		}
		fp.FirstSeen = parseTimestamp(first)
		fp.LastSeen = parseTimestamp(lastSeen)
		results = append(results, fp)
	}
	return results, rows.Err()
}

// RunRecord is a stored scan run.
type RunRecord struct {
	ID         string
	Company    string
	StartedAt  time.Time
	FinishedAt time.Time
	Candidates int
	Fetched    int
	Leaks      int
	Outcome    model.ScanOutcome
	Steps      []string
}

// RecordRun stores a finished scan run. Recording the same run twice
// replaces the earlier row.
func (ldb *LeakDB) RecordRun(ctx context.Context, run *model.ScanRun) (err error) {
	defer func() { ldb.metrics.IncPersistence(metrics.PersistIndex, err) }()

	steps, err := json.Marshal(run.PerformedSteps)
	if err != nil {
		return fmt.Errorf("failed to serialize steps: %w", err)
	}

	query := `
	INSERT OR REPLACE INTO scan_runs (id, company, started_at, finished_at, candidates, fetched, leaks, outcome, steps)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = ldb.db.ExecContext(ctx, query,
		run.ID,
		run.Company,
		formatTimestamp(run.StartedAt),
		formatTimestamp(run.FinishedAt),
		len(run.Candidates),
		run.Fetched,
		len(run.Leaks),
		string(run.Outcome),
		string(steps),
	)
	if err != nil {
		return fmt.Errorf("failed to record scan run: %w", err)
	}
	return nil
}

// ListRuns returns the runs of company, newest first. An empty company lists
// runs of every company. A limit <= 0 returns all of them.
func (ldb *LeakDB) ListRuns(ctx context.Context, company string, limit int) ([]RunRecord, error) {
	query := `
	SELECT id, company, started_at, finished_at, candidates, fetched, leaks, outcome, steps
	FROM scan_runs
	WHERE 1=1
	`
	args := make([]any, 0, 2)
	if company != "" {
		query += " AND company = ?"
		args = append(args, company)
	}
	query += " ORDER BY started_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := ldb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan runs: %w", err)
	}
	defer rows.Close()

	var results []RunRecord
	for rows.Next() {
		var (
			rec             RunRecord
			started, finish string
			outcome         string
			steps           sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.Company, &started, &finish,
			&rec.Candidates, &rec.Fetched, &rec.Leaks, &outcome, &steps); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		rec.StartedAt = parseTimestamp(started)
		rec.FinishedAt = parseTimestamp(finish)
		rec.Outcome = model.ScanOutcome(outcome)
		if steps.Valid && steps.String != "" {
			if err := json.Unmarshal([]byte(steps.String), &rec.Steps); err != nil {
				return nil, fmt.Errorf("failed to parse steps: %w", err)
			}
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}

// timestampLayout sorts lexically in UTC.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) time.Time {
	for _, layout := range []string{timestampLayout, time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

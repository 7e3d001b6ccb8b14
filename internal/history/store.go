package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/sitemapper/internal/model"
)

// DBFileName is the database file created inside the history directory.
const DBFileName = "history.db"

// ErrRunNotFound is returned when a run ID does not exist.
var ErrRunNotFound = errors.New("crawl run not found")

// Store provides SQLite-based storage for finished crawl runs.
type Store struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the history database in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error
// wrapping os.ErrNotExist is returned.
func Open(dbDir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); err != nil {
			return nil, fmt.Errorf("history database not available at %s: %w", dbPath, err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		root TEXT NOT NULL,
		started TEXT NOT NULL,
		finished TEXT NOT NULL,
		complete INTEGER NOT NULL,
		url_count INTEGER NOT NULL,
		stats_iterations INTEGER NOT NULL DEFAULT 0,
		stats_fetched INTEGER NOT NULL DEFAULT 0,
		stats_links_found INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_root ON runs(root);
	CREATE INDEX IF NOT EXISTS idx_runs_finished ON runs(finished);

	CREATE TABLE IF NOT EXISTS entries (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		url TEXT NOT NULL,
		priority REAL NOT NULL,
		outcome TEXT NOT NULL,
		status_code INTEGER,
		content_type TEXT,
		digest TEXT,
		PRIMARY KEY (run_id, seq),
		UNIQUE (run_id, url)
	);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// Run describes one stored crawl without its entries.
type Run struct {
	// ID is the run's UUID.
	ID string `json:"id"`

	// Root is the normalized root URL.
	Root string `json:"root"`

	// Started is when the crawl began.
	Started time.Time `json:"started"`

	// Finished is when the crawl ended.
	Finished time.Time `json:"finished"`

	// Complete is false for interrupted crawls.
	Complete bool `json:"complete"`

	// URLs is the number of entries.
	URLs int `json:"urls"`
}

// SaveRun stores result as a new run and returns its metadata.
func (s *Store) SaveRun(ctx context.Context, result *model.CrawlResult) (*Run, error) {
	run := &Run{
		ID:       uuid.NewString(),
		Root:     result.Root,
		Started:  result.Started,
		Finished: result.Finished,
		Complete: result.Complete,
		URLs:     result.Scores.Len(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO runs (id, root, started, finished, complete, url_count, stats_iterations, stats_fetched, stats_links_found)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Root,
		formatTimestamp(run.Started),
		formatTimestamp(run.Finished),
		run.Complete,
		run.URLs,
		result.Stats.Iterations,
		result.Stats.Fetched,
		result.Stats.LinksFound,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO entries (run_id, seq, url, priority, outcome, status_code, content_type, digest)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare entry insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range result.Scores.Entries() {
		_, err := stmt.ExecContext(ctx,
			run.ID,
			i,
			e.URL,
			e.Priority,
			e.Outcome.String(),
			e.StatusCode,
			e.ContentType,
			e.Digest,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert entry %s: %w", e.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit run: %w", err)
	}
	return run, nil
}

// ListRuns returns the runs of root, newest first. An empty root lists the
// runs of every site.
func (s *Store) ListRuns(ctx context.Context, root string) ([]Run, error) {
	query := `
	SELECT id, root, started, finished, complete, url_count
	FROM runs
	WHERE 1=1
	`
	args := make([]any, 0, 1)
	if root != "" {
		query += " AND root = ?"
		args = append(args, root)
	}
	query += " ORDER BY finished DESC, rowid DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var started, finished string
		if err := rows.Scan(&run.ID, &run.Root, &started, &finished, &run.Complete, &run.URLs); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.Started = parseTimestamp(started)
		run.Finished = parseTimestamp(finished)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// LatestRuns returns at most n runs of root, newest first.
func (s *Store) LatestRuns(ctx context.Context, root string, n int) ([]Run, error) {
	runs, err := s.ListRuns(ctx, root)
	if err != nil {
		return nil, err
	}
	if len(runs) > n {
		runs = runs[:n]
	}
	return runs, nil
}

// ListSites returns every root with at least one run.
func (s *Store) ListSites(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT root FROM runs ORDER BY root`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

	var sites []string
	for rows.Next() {
		var site string
		if err := rows.Scan(&site); err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

// LoadRun rebuilds the crawl result stored under id.
func (s *Store) LoadRun(ctx context.Context, id string) (*model.CrawlResult, error) {
	var root, started, finished string
	var complete bool
	var stats model.Stats
	err := s.db.QueryRowContext(ctx, `
	SELECT root, started, finished, complete, stats_iterations, stats_fetched, stats_links_found
	FROM runs WHERE id = ?
	`, id).Scan(&root, &started, &finished, &complete, &stats.Iterations, &stats.Fetched, &stats.LinksFound)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	result := model.NewCrawlResult(root, parseTimestamp(started))
	result.Finished = parseTimestamp(finished)
	result.Complete = complete
	result.Stats = stats

	rows, err := s.db.QueryContext(ctx, `
	SELECT url, priority, outcome, status_code, content_type, digest
	FROM entries WHERE run_id = ? ORDER BY seq
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			url, outcome        string
			priority            float64
			status              sql.NullInt64
			contentType, digest sql.NullString
		)
		if err := rows.Scan(&url, &priority, &outcome, &status, &contentType, &digest); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		o, err := model.ParseOutcome(outcome)
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", url, err)
		}
		result.Scores.Record(url, priority)
		result.Scores.Annotate(url, model.FetchInfo{
			Outcome:     o,
			StatusCode:  int(status.Int64),
			ContentType: contentType.String,
			Digest:      digest.String,
		})
	}
	return result, rows.Err()
}

// timestampLayout is fixed width so stored timestamps sort as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// timestampFormats contains the timestamp formats accepted when reading.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// parseTimestamp returns the zero time when no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

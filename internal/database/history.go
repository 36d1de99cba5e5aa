package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/webconv/internal/model"
)

// FileName is the name of the history database inside its directory.
const FileName = "webconv.db"

// DefaultListLimit is the number of runs ListRuns returns for a
// non-positive limit.
const DefaultListLimit = 20

// HistoryDB provides SQLite-based storage for conversion run history.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
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

// ErrNotFound is returned when the database file does not exist and
// CreateIfNotExists is false.
var ErrNotFound = errors.New("history database not found")

// Open opens or creates the history database in dbDir.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
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

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

func (h *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		start_url TEXT NOT NULL,
		host TEXT NOT NULL,
		format TEXT NOT NULL,
		depth INTEGER NOT NULL,
		combine INTEGER NOT NULL DEFAULT 0,
		javascript INTEGER NOT NULL DEFAULT 0,
		output_dir TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		pages_ok INTEGER NOT NULL DEFAULT 0,
		pages_failed INTEGER NOT NULL DEFAULT 0,
		files INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_host ON runs(host);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	CREATE TABLE IF NOT EXISTS run_pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		seq INTEGER NOT NULL,
		url TEXT NOT NULL,
		depth INTEGER NOT NULL,
		title TEXT,
		output_path TEXT,
		error TEXT,
		fetched_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_pages_run ON run_pages(run_id);
	`

	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// RunRecord is a stored run.
type RunRecord struct {
	ID          int64
	StartURL    string
	Host        string
	Format      string
	Depth       int
	Combine     bool
	JavaScript  bool
	OutputDir   string
	StartedAt   time.Time
	FinishedAt  time.Time
	PagesOK     int
	PagesFailed int
	Files       int
	Status      string
	Error       string
}

// PageRecord is a stored page of a run, in visit order.
type PageRecord struct {
	RunID      int64
	Seq        int
	URL        string
	Depth      int
	Title      string
	OutputPath string
	Error      string
	FetchedAt  time.Time
}

// SaveRun stores run and its pages in one transaction and sets run.ID.
func (h *HistoryDB) SaveRun(ctx context.Context, run *model.ConversionRun) (int64, error) {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // no-op after Commit
	}()

	result, err := tx.ExecContext(ctx, `
	INSERT INTO runs (start_url, host, format, depth, combine, javascript, output_dir,
		started_at, finished_at, pages_ok, pages_failed, files, status, error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.Request.StartURL,
		hostOf(run.Request.StartURL),
		run.Request.Format.String(),
		run.Request.MaxDepth,
		run.Request.Combine,
		run.Request.RenderJavaScript,
		run.OutputDir,
		formatTimestamp(run.StartedAt),
		formatTimestamp(run.FinishedAt),
		run.SucceededCount(),
		run.FailedCount(),
		len(run.Files),
		run.Status(),
		run.ErrorText(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO run_pages (run_id, seq, url, depth, title, output_path, error, fetched_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare page insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range run.Pages {
		if _, err := stmt.ExecContext(ctx, id, i, p.URL, p.Depth, p.Title, p.OutputPath, p.Error, formatTimestamp(p.FetchedAt)); err != nil {
			return 0, fmt.Errorf("failed to insert page %s: %w", p.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}

	run.ID = id
	return id, nil
}

const runColumns = `id, start_url, host, format, depth, combine, javascript, output_dir,
	started_at, finished_at, pages_ok, pages_failed, files, status, error`

// ListRuns returns the most recent runs, newest first.
func (h *HistoryDB) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := h.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs ORDER BY started_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}

	return records, rows.Err()
}

// GetRun returns the run with the given id, or nil when there is none.
func (h *HistoryDB) GetRun(ctx context.Context, id int64) (*RunRecord, error) {
	row := h.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

// GetRunPages returns the pages of a run in visit order.
func (h *HistoryDB) GetRunPages(ctx context.Context, runID int64) ([]PageRecord, error) {
	rows, err := h.db.QueryContext(ctx, `
	SELECT run_id, seq, url, depth, title, output_path, error, fetched_at
	FROM run_pages
	WHERE run_id = ?
	ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run pages: %w", err)
	}
	defer rows.Close()

	var pages []PageRecord
	for rows.Next() {
		var p PageRecord
		var title, outputPath, errText, fetchedAt sql.NullString
		if err := rows.Scan(&p.RunID, &p.Seq, &p.URL, &p.Depth, &title, &outputPath, &errText, &fetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		p.Title = title.String
		p.OutputPath = outputPath.String
		p.Error = errText.String
		p.FetchedAt = parseTimestamp(fetchedAt.String)
		pages = append(pages, p)
	}

	return pages, rows.Err()
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*RunRecord, error) {
	var rec RunRecord
	var startedAt string
	var finishedAt, errText sql.NullString

	err := s.Scan(
		&rec.ID,
		&rec.StartURL,
		&rec.Host,
		&rec.Format,
		&rec.Depth,
		&rec.Combine,
		&rec.JavaScript,
		&rec.OutputDir,
		&startedAt,
		&finishedAt,
		&rec.PagesOK,
		&rec.PagesFailed,
		&rec.Files,
		&rec.Status,
		&errText,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	rec.StartedAt = parseTimestamp(startedAt)
	rec.FinishedAt = parseTimestamp(finishedAt.String)
	rec.Error = errText.String
	return &rec, nil
}

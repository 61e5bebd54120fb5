package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"subtitler/internal/config"
	"subtitler/internal/jobs"
)

// Store manages job persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the job database at cfg.StorePath().
func Open(cfg *config.Config) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	return OpenPath(cfg.StorePath())
}

// OpenPath opens the database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure store directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Save upserts a job snapshot.
func (s *Store) Save(ctx context.Context, job jobs.Job) error {
	if job.ID == "" {
		return errors.New("job id is empty")
	}
	created := job.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	updated := job.UpdatedAt
	if updated.IsZero() {
		updated = created
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO jobs (
            id, status, progress, message, source, source_name, source_lang, target_lang,
            input_path, file_path, subtitle_path, text_path, render_strategy, duration_seconds,
            created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            status = excluded.status,
            progress = excluded.progress,
            message = excluded.message,
            source = excluded.source,
            source_name = excluded.source_name,
            source_lang = excluded.source_lang,
            target_lang = excluded.target_lang,
            input_path = excluded.input_path,
            file_path = excluded.file_path,
            subtitle_path = excluded.subtitle_path,
            text_path = excluded.text_path,
            render_strategy = excluded.render_strategy,
            duration_seconds = excluded.duration_seconds,
            updated_at = excluded.updated_at`,
		job.ID,
		string(job.Status),
		job.Progress,
		nullableString(job.Message),
		nullableString(string(job.Source)),
		nullableString(job.SourceName),
		nullableString(job.SourceLang),
		nullableString(job.TargetLang),
		nullableString(job.InputPath),
		nullableString(job.FilePath),
		nullableString(job.SubtitlePath),
		nullableString(job.TextPath),
		nullableString(job.Strategy),
		nullableFloat(job.Duration),
		created.UTC().Format(time.RFC3339Nano),
		updated.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save job %s: %w", job.ID, err)
	}
	return nil
}

// Get fetches a job by id. A missing job returns (nil, nil).
func (s *Store) Get(ctx context.Context, id string) (*jobs.Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// List returns up to limit jobs, newest first. A limit <= 0 returns all jobs.
func (s *Store) List(ctx context.Context, limit int) ([]jobs.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []jobs.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		out = append(out, *job)
	}
	return out, rows.Err()
}

// MarkInterrupted moves every non-terminal job to the error status. It runs
// at startup since a job's worker does not survive the process.
func (s *Store) MarkInterrupted(ctx context.Context) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs SET status = ?, message = ?, file_path = NULL, updated_at = ?
         WHERE status NOT IN (?, ?)`,
		string(jobs.StatusError),
		jobs.MessageInterrupted,
		now,
		string(jobs.StatusCompleted),
		string(jobs.StatusError),
	)
	if err != nil {
		return 0, fmt.Errorf("mark interrupted jobs: %w", err)
	}
	return res.RowsAffected()
}

// PruneBefore deletes jobs last updated before cutoff.
func (s *Store) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE updated_at < ?`, cutoff.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("prune jobs: %w", err)
	}
	return res.RowsAffected()
}

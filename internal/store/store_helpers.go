package store

import (
	"database/sql"
	"time"

	"subtitler/internal/jobs"
)

const jobColumns = "id, status, progress, message, source, source_name, source_lang, target_lang, input_path, file_path, subtitle_path, text_path, render_strategy, duration_seconds, created_at, updated_at"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*jobs.Job, error) {
	var (
		id           string
		status       string
		progress     sql.NullInt64
		message      sql.NullString
		source       sql.NullString
		sourceName   sql.NullString
		sourceLang   sql.NullString
		targetLang   sql.NullString
		inputPath    sql.NullString
		filePath     sql.NullString
		subtitlePath sql.NullString
		textPath     sql.NullString
		strategy     sql.NullString
		duration     sql.NullFloat64
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
	)
	if err := scanner.Scan(
		&id,
		&status,
		&progress,
		&message,
		&source,
		&sourceName,
		&sourceLang,
		&targetLang,
		&inputPath,
		&filePath,
		&subtitlePath,
		&textPath,
		&strategy,
		&duration,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	job := &jobs.Job{
		ID:           id,
		Status:       jobs.Status(status),
		Progress:     int(progress.Int64),
		Message:      message.String,
		Source:       jobs.Source(source.String),
		SourceName:   sourceName.String,
		SourceLang:   sourceLang.String,
		TargetLang:   targetLang.String,
		InputPath:    inputPath.String,
		FilePath:     filePath.String,
		SubtitlePath: subtitlePath.String,
		TextPath:     textPath.String,
		Strategy:     strategy.String,
		Duration:     duration.Float64,
	}
	if createdRaw.Valid {
		job.CreatedAt = parseTimeString(createdRaw.String)
	}
	if updatedRaw.Valid {
		job.UpdatedAt = parseTimeString(updatedRaw.String)
	}
	return job, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableFloat(value float64) any {
	if value == 0 {
		return nil
	}
	return value
}

func parseTimeString(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

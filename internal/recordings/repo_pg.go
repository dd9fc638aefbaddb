package recordings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const recordingColumns = `
id, user_id, title, source, status, error_code, duration_seconds, word_count,
file_name, mime_type, size_bytes, storage_provider, storage_key, transcript,
analysis, analysis_version, completed_at, created_at`

// Create inserts a new recording.
func (r *PGRepo) Create(ctx context.Context, rec Recording) error {
	const query = `
INSERT INTO recordings (
    id,
    user_id,
    title,
    source,
    status,
    duration_seconds,
    word_count,
    file_name,
    mime_type,
    size_bytes,
    storage_provider,
    storage_key,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	storageProvider := rec.StorageProvider
	if storageProvider == "" {
		storageProvider = "local"
	}

	var storageKey sql.NullString
	if rec.StorageKey != "" {
		storageKey = sql.NullString{String: rec.StorageKey, Valid: true}
	}

	_, err := r.DB.ExecContext(
		ctx,
		query,
		rec.ID,
		rec.UserID,
		rec.Title,
		rec.Source,
		rec.Status,
		rec.DurationSeconds,
		rec.WordCount,
		rec.FileName,
		rec.MimeType,
		rec.SizeBytes,
		storageProvider,
		storageKey,
		rec.CreatedAt,
	)
	return err
}

// GetByID returns a recording by ID regardless of owner. Used by the pipeline.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Recording, error) {
	query := `
SELECT ` + recordingColumns + `
FROM recordings
WHERE id = $1 AND deleted_at IS NULL
LIMIT 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, id))
}

// GetByUser returns a recording by ID scoped to its owner.
func (r *PGRepo) GetByUser(ctx context.Context, userID, id string) (Recording, error) {
	query := `
SELECT ` + recordingColumns + `
FROM recordings
WHERE user_id = $1 AND id = $2 AND deleted_at IS NULL
LIMIT 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, userID, id))
}

// ListByUser lists recordings ordered newest-first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Recording, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	query := `
SELECT ` + recordingColumns + `
FROM recordings
WHERE user_id = $1 AND deleted_at IS NULL
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Recording
	for rows.Next() {
		rec, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// UpdateStatus sets the status and optional error code.
func (r *PGRepo) UpdateStatus(ctx context.Context, id, status string, errorCode *string) error {
	const query = `
UPDATE recordings
SET status = $1, error_code = $2
WHERE id = $3`
	var code sql.NullString
	if errorCode != nil {
		code = sql.NullString{String: *errorCode, Valid: true}
	}
	res, err := r.DB.ExecContext(ctx, query, status, code, id)
	if err != nil {
		return err
	}
	updated, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if updated == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateTranscript stores the transcript text and word count.
func (r *PGRepo) UpdateTranscript(ctx context.Context, id, transcript string, wordCount int) error {
	const query = `
UPDATE recordings
SET transcript = $1, word_count = $2
WHERE id = $3`
	res, err := r.DB.ExecContext(ctx, query, transcript, wordCount, id)
	if err != nil {
		return err
	}
	updated, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if updated == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateAnalysis stores the completed analysis and marks the recording done.
func (r *PGRepo) UpdateAnalysis(ctx context.Context, id string, analysis map[string]any, analysisVersion string, completedAt time.Time) error {
	payload, err := json.Marshal(analysis)
	if err != nil {
		return err
	}
	const query = `
UPDATE recordings
SET analysis = $1, analysis_version = $2, status = $3, completed_at = $4, error_code = NULL
WHERE id = $5`
	res, err := r.DB.ExecContext(ctx, query, payload, analysisVersion, StatusCompleted, completedAt, id)
	if err != nil {
		return err
	}
	updated, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if updated == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDelete hides the recording from reads. Consumed words are not refunded.
func (r *PGRepo) SoftDelete(ctx context.Context, userID, id string) error {
	const query = `
UPDATE recordings
SET deleted_at = now()
WHERE user_id = $1 AND id = $2 AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, userID, id)
	if err != nil {
		return err
	}
	updated, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if updated == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PGRepo) scanOne(row rowScanner) (Recording, error) {
	var rec Recording
	var errorCode sql.NullString
	var storageKey sql.NullString
	var transcript sql.NullString
	var analysis []byte
	var completedAt sql.NullTime
	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.Title,
		&rec.Source,
		&rec.Status,
		&errorCode,
		&rec.DurationSeconds,
		&rec.WordCount,
		&rec.FileName,
		&rec.MimeType,
		&rec.SizeBytes,
		&rec.StorageProvider,
		&storageKey,
		&transcript,
		&analysis,
		&rec.AnalysisVersion,
		&completedAt,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Recording{}, ErrNotFound
		}
		return Recording{}, err
	}
	if errorCode.Valid {
		rec.ErrorCode = &errorCode.String
	}
	if storageKey.Valid {
		rec.StorageKey = storageKey.String
	}
	if transcript.Valid {
		rec.Transcript = transcript.String
	}
	if completedAt.Valid {
		t := completedAt.Time.UTC()
		rec.CompletedAt = &t
	}
	if len(analysis) > 0 {
		var parsed map[string]any
		if err := json.Unmarshal(analysis, &parsed); err != nil {
			return Recording{}, err
		}
		rec.Analysis = parsed
	}
	return rec, nil
}

var _ Repo = (*PGRepo)(nil)

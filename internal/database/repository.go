package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/videokit/bgremove/internal/metrics"
	"github.com/videokit/bgremove/pkg/models"
)

// Repository persists processing results for the worker and API.
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// Health checks if the underlying database is reachable
func (r *Repository) Health(ctx context.Context) error {
	return r.db.Health(ctx)
}

// InitSchema creates the results table when it does not exist yet.
func (r *Repository) InitSchema(ctx context.Context) error {
	_, err := r.db.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS processing_results (
			job_id          UUID PRIMARY KEY,
			video_name      TEXT NOT NULL,
			input_video     TEXT NOT NULL,
			output_dir      TEXT NOT NULL,
			status          TEXT NOT NULL,
			processing_time DOUBLE PRECISION NOT NULL DEFAULT 0,
			error_msg       TEXT NOT NULL DEFAULT '',
			frame_count     INTEGER NOT NULL DEFAULT 0,
			fps             DOUBLE PRECISION NOT NULL DEFAULT 0,
			width           INTEGER NOT NULL DEFAULT 0,
			height          INTEGER NOT NULL DEFAULT 0,
			output_mp4      TEXT NOT NULL DEFAULT '',
			output_webm     TEXT NOT NULL DEFAULT '',
			created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveResult upserts one finished job. Re-running a job overwrites its
// previous row, matching the pipeline's overwrite-on-rerun contract.
func (r *Repository) SaveResult(ctx context.Context, result *models.ProcessingResult) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO processing_results (
			job_id, video_name, input_video, output_dir, status,
			processing_time, error_msg, frame_count, fps, width, height,
			output_mp4, output_webm
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (job_id) DO UPDATE SET
			status = EXCLUDED.status,
			processing_time = EXCLUDED.processing_time,
			error_msg = EXCLUDED.error_msg,
			frame_count = EXCLUDED.frame_count,
			fps = EXCLUDED.fps,
			width = EXCLUDED.width,
			height = EXCLUDED.height,
			output_mp4 = EXCLUDED.output_mp4,
			output_webm = EXCLUDED.output_webm
	`,
		result.JobID, result.VideoName, result.InputVideo, result.OutputDir,
		result.Status, result.ProcessingTime, result.Error, result.FrameCount,
		result.FPS, result.Resolution[0], result.Resolution[1],
		result.OutputMP4, result.OutputWebM,
	)

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.RecordStorageOperation("db_save_result", status)

	if err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}
	return nil
}

// GetResult fetches one result by job ID; nil when absent.
func (r *Repository) GetResult(ctx context.Context, jobID string) (*models.ProcessingResult, error) {
	row := r.db.Pool.QueryRow(ctx, `
		SELECT job_id, video_name, input_video, output_dir, status,
		       processing_time, error_msg, frame_count, fps, width, height,
		       output_mp4, output_webm
		FROM processing_results
		WHERE job_id = $1
	`, jobID)

	var result models.ProcessingResult
	var width, height int
	err := row.Scan(
		&result.JobID, &result.VideoName, &result.InputVideo, &result.OutputDir,
		&result.Status, &result.ProcessingTime, &result.Error, &result.FrameCount,
		&result.FPS, &width, &height, &result.OutputMP4, &result.OutputWebM,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	result.Resolution = [2]int{width, height}
	return &result, nil
}

// ListResults returns the most recent results, newest first.
func (r *Repository) ListResults(ctx context.Context, limit int) ([]*models.ProcessingResult, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT job_id, video_name, input_video, output_dir, status,
		       processing_time, error_msg, frame_count, fps, width, height,
		       output_mp4, output_webm
		FROM processing_results
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	var results []*models.ProcessingResult
	for rows.Next() {
		var result models.ProcessingResult
		var width, height int
		if err := rows.Scan(
			&result.JobID, &result.VideoName, &result.InputVideo, &result.OutputDir,
			&result.Status, &result.ProcessingTime, &result.Error, &result.FrameCount,
			&result.FPS, &width, &height, &result.OutputMP4, &result.OutputWebM,
		); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		result.Resolution = [2]int{width, height}
		results = append(results, &result)
	}

	return results, rows.Err()
}

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"

	"genie-backend/internal/db"
)

// PredictionRecord is one audited loan decision.
type PredictionRecord struct {
	ID          int64     `json:"id"`
	Decision    string    `json:"decision"`
	Features    []float64 `json:"features"`
	Warnings    []string  `json:"warnings"`
	Fingerprint string    `json:"artifactFingerprint"`
	Cached      bool      `json:"cached"`
	CreatedAt   time.Time `json:"createdAt"`
}

// PredictionLog stores loan decisions in PostgreSQL
type PredictionLog struct {
	db *db.DB
}

func NewPredictionLog(database *db.DB) *PredictionLog {
	return &PredictionLog{db: database}
}

// Save appends a decision to the predictions table.
func (pl *PredictionLog) Save(ctx context.Context, rec PredictionRecord) error {
	if rec.Decision == "" || len(rec.Features) == 0 {
		return fmt.Errorf("decision and features are required")
	}
	warnings := rec.Warnings
	if warnings == nil {
		warnings = []string{}
	}

	query := `
		INSERT INTO predictions (decision, features, warnings, artifact_fingerprint, cached, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`
	_, err := pl.db.ExecContext(ctx, query,
		rec.Decision,
		pq.Array(rec.Features),
		pq.Array(warnings),
		rec.Fingerprint,
		rec.Cached,
	)
	if err != nil {
		return fmt.Errorf("failed to save prediction: %w", err)
	}
	return nil
}

// Recent returns the latest decisions, newest first.
func (pl *PredictionLog) Recent(ctx context.Context, limit int) ([]PredictionRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, decision, features, warnings, artifact_fingerprint, cached, created_at
		FROM predictions
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := pl.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}
	defer rows.Close()

	out := make([]PredictionRecord, 0, limit)
	for rows.Next() {
		var rec PredictionRecord
		var features pq.Float64Array
		var warnings pq.StringArray
		if err := rows.Scan(
			&rec.ID,
			&rec.Decision,
			&features,
			&warnings,
			&rec.Fingerprint,
			&rec.Cached,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		rec.Features = []float64(features)
		rec.Warnings = []string(warnings)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}
	return out, nil
}

package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AnalysisRepository handles mood analysis database operations.
type AnalysisRepository struct {
	pool *pgxpool.Pool
}

const analysisColumns = `id, user_id, source, analysis, health_snapshot, created_at`

// Create inserts a new analysis.
func (r *AnalysisRepository) Create(ctx context.Context, a *MoodAnalysis) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	analysis, err := json.Marshal(a.Analysis)
	if err != nil {
		return fmt.Errorf("encoding analysis: %w", err)
	}
	snapshot, err := json.Marshal(a.HealthSnapshot)
	if err != nil {
		return fmt.Errorf("encoding health snapshot: %w", err)
	}

	query := `
		INSERT INTO mood_analyses (` + analysisColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = r.pool.Exec(ctx, query, a.ID, a.UserID, a.Source, analysis, snapshot, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting mood analysis: %w", err)
	}
	return nil
}

// Get retrieves an analysis by ID.
func (r *AnalysisRepository) Get(ctx context.Context, id uuid.UUID) (*MoodAnalysis, error) {
	query := `SELECT ` + analysisColumns + ` FROM mood_analyses WHERE id = $1`
	a, err := scanAnalysis(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying mood analysis: %w", err)
	}
	return a, nil
}

// List returns up to limit analyses for a user, newest first.
func (r *AnalysisRepository) List(ctx context.Context, userID string, limit int) ([]MoodAnalysis, error) {
	query := `
		SELECT ` + analysisColumns + `
		FROM mood_analyses
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT NULLIF($2, 0)
	`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying mood analyses: %w", err)
	}
	defer rows.Close()

	var analyses []MoodAnalysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning mood analysis: %w", err)
		}
		analyses = append(analyses, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating mood analyses: %w", err)
	}
	return analyses, nil
}

func scanAnalysis(row pgx.Row) (*MoodAnalysis, error) {
	var (
		a                  MoodAnalysis
		analysis, snapshot []byte
	)
	if err := row.Scan(&a.ID, &a.UserID, &a.Source, &analysis, &snapshot, &a.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(analysis, &a.Analysis); err != nil {
		return nil, fmt.Errorf("decoding analysis: %w", err)
	}
	if err := json.Unmarshal(snapshot, &a.HealthSnapshot); err != nil {
		return nil, fmt.Errorf("decoding health snapshot: %w", err)
	}
	return &a, nil
}

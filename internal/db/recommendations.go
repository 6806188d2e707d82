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

// RecommendationRepository handles recommendation database operations.
type RecommendationRepository struct {
	pool *pgxpool.Pool
}

const recommendationColumns = `id, user_id, mood_analysis_id, rank, source, track, created_at`

// CreateBatch inserts a run of recommendations in one transaction.
func (r *RecommendationRepository) CreateBatch(ctx context.Context, recs []Recommendation) error {
	if len(recs) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO recommendations (` + recommendationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	now := time.Now().UTC()
	for i := range recs {
		rec := &recs[i]
		if rec.ID == uuid.Nil {
			rec.ID = uuid.New()
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		track, err := json.Marshal(rec.Track)
		if err != nil {
			return fmt.Errorf("encoding track: %w", err)
		}
		_, err = tx.Exec(ctx, query,
			rec.ID,
			rec.UserID,
			rec.MoodAnalysisID,
			rec.Rank,
			rec.Source,
			track,
			rec.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("inserting recommendation: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Get retrieves a recommendation by ID.
func (r *RecommendationRepository) Get(ctx context.Context, id uuid.UUID) (*Recommendation, error) {
	query := `SELECT ` + recommendationColumns + ` FROM recommendations WHERE id = $1`
	rec, err := scanRecommendation(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying recommendation: %w", err)
	}
	return rec, nil
}

// List returns a user's recommendations, newest run first and by rank
// within a run.
func (r *RecommendationRepository) List(ctx context.Context, userID string, f RecommendationFilter) ([]Recommendation, error) {
	query := `
		SELECT ` + recommendationColumns + `
		FROM recommendations
		WHERE user_id = $1 AND ($2::uuid IS NULL OR mood_analysis_id = $2)
		ORDER BY created_at DESC, rank ASC
		LIMIT NULLIF($3, 0)
	`
	var analysisID *uuid.UUID
	if f.MoodAnalysisID != uuid.Nil {
		analysisID = &f.MoodAnalysisID
	}

	rows, err := r.pool.Query(ctx, query, userID, analysisID, f.Limit)
	if err != nil {
		return nil, fmt.Errorf("querying recommendations: %w", err)
	}
	defer rows.Close()

	var recs []Recommendation
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning recommendation: %w", err)
		}
		recs = append(recs, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating recommendations: %w", err)
	}
	return recs, nil
}

func scanRecommendation(row pgx.Row) (*Recommendation, error) {
	var (
		rec   Recommendation
		track []byte
	)
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.MoodAnalysisID, &rec.Rank, &rec.Source, &track, &rec.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(track, &rec.Track); err != nil {
		return nil, fmt.Errorf("decoding track: %w", err)
	}
	return &rec, nil
}

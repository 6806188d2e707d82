package db

import (
	"context"

	"github.com/google/uuid"

	"github.com/justestif/go-moodtune/internal/health"
)

// The methods below let *DB satisfy Store by delegating to its repositories.

func (db *DB) UpsertUser(ctx context.Context, user *User) error {
	return db.Users().Upsert(ctx, user)
}

func (db *DB) GetUser(ctx context.Context, id string) (*User, error) {
	return db.Users().Get(ctx, id)
}

func (db *DB) AddHealthMetrics(ctx context.Context, metrics []HealthMetric) error {
	return db.Metrics().AddBatch(ctx, metrics)
}

func (db *DB) ListHealthMetrics(ctx context.Context, userID string, f MetricFilter) ([]HealthMetric, error) {
	return db.Metrics().List(ctx, userID, f)
}

func (db *DB) LatestByType(ctx context.Context, userID string) (health.Snapshot, error) {
	return db.Metrics().Latest(ctx, userID)
}

func (db *DB) SaveMoodAnalysis(ctx context.Context, a *MoodAnalysis) error {
	return db.Analyses().Create(ctx, a)
}

func (db *DB) GetMoodAnalysis(ctx context.Context, id uuid.UUID) (*MoodAnalysis, error) {
	return db.Analyses().Get(ctx, id)
}

func (db *DB) ListMoodAnalyses(ctx context.Context, userID string, limit int) ([]MoodAnalysis, error) {
	return db.Analyses().List(ctx, userID, limit)
}

func (db *DB) SaveRecommendations(ctx context.Context, recs []Recommendation) error {
	return db.Recommendations().CreateBatch(ctx, recs)
}

func (db *DB) GetRecommendation(ctx context.Context, id uuid.UUID) (*Recommendation, error) {
	return db.Recommendations().Get(ctx, id)
}

func (db *DB) ListRecommendations(ctx context.Context, userID string, f RecommendationFilter) ([]Recommendation, error) {
	return db.Recommendations().List(ctx, userID, f)
}

func (db *DB) SaveInteraction(ctx context.Context, i *Interaction) error {
	return db.Interactions().Create(ctx, i)
}

func (db *DB) ListInteractions(ctx context.Context, userID string, limit int) ([]Interaction, error) {
	return db.Interactions().List(ctx, userID, limit)
}

var _ Store = (*DB)(nil)

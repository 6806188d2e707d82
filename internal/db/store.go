package db

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/justestif/go-moodtune/internal/health"
)

// Common errors.
var (
	ErrNotFound       = errors.New("not found")
	ErrTimestampRange = errors.New("timestamp out of range")
)

// Readings must fall within this window so that time-ordered keys stay
// sortable.
var (
	MinTimestamp = time.Unix(0, 0).UTC()
	MaxTimestamp = time.Unix(0, math.MaxInt64).UTC()
)

// TimestampInRange reports whether t lies in [MinTimestamp, MaxTimestamp].
func TimestampInRange(t time.Time) bool {
	return !t.Before(MinTimestamp) && !t.After(MaxTimestamp)
}

// MetricFilter narrows ListHealthMetrics. Zero values match everything.
type MetricFilter struct {
	MetricType string
	Limit      int
}

// RecommendationFilter narrows ListRecommendations.
type RecommendationFilter struct {
	MoodAnalysisID uuid.UUID // uuid.Nil matches all
	Limit          int
}

// Store persists users, readings, analyses, recommendations and
// interactions. All list methods return newest first; recommendations
// from one run are ordered by Rank.
type Store interface {
	health.Provider

	UpsertUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id string) (*User, error)

	AddHealthMetrics(ctx context.Context, metrics []HealthMetric) error
	ListHealthMetrics(ctx context.Context, userID string, f MetricFilter) ([]HealthMetric, error)

	SaveMoodAnalysis(ctx context.Context, a *MoodAnalysis) error
	GetMoodAnalysis(ctx context.Context, id uuid.UUID) (*MoodAnalysis, error)
	ListMoodAnalyses(ctx context.Context, userID string, limit int) ([]MoodAnalysis, error)

	SaveRecommendations(ctx context.Context, recs []Recommendation) error
	GetRecommendation(ctx context.Context, id uuid.UUID) (*Recommendation, error)
	ListRecommendations(ctx context.Context, userID string, f RecommendationFilter) ([]Recommendation, error)

	SaveInteraction(ctx context.Context, i *Interaction) error
	ListInteractions(ctx context.Context, userID string, limit int) ([]Interaction, error)

	Close() error
}

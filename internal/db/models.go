package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/justestif/go-moodtune/internal/health"
	"github.com/justestif/go-moodtune/internal/matching"
	"github.com/justestif/go-moodtune/internal/mood"
)

// Interaction actions.
const (
	ActionLiked    = "liked"
	ActionDisliked = "disliked"
	ActionPlayed   = "played"
	ActionSkipped  = "skipped"
)

// User is the dashboard user and their music preferences.
type User struct {
	ID          string           `json:"id"`
	DisplayName string           `json:"displayName"`
	Preferences mood.Preferences `json:"preferences"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// HealthMetric is one stored device reading.
type HealthMetric struct {
	ID         uuid.UUID `json:"id"`
	UserID     string    `json:"userId"`
	DeviceType string    `json:"deviceType"`
	MetricType string    `json:"metricType"`
	Value      float64   `json:"value"`
	Unit       string    `json:"unit"`
	Timestamp  time.Time `json:"timestamp"`
}

// Reading converts the stored metric to a health reading.
func (m HealthMetric) Reading() health.Reading {
	return health.Reading{
		MetricType: m.MetricType,
		Value:      m.Value,
		Unit:       m.Unit,
		Timestamp:  m.Timestamp,
	}
}

// MoodAnalysis is a persisted inference result with the snapshot it was
// computed from.
type MoodAnalysis struct {
	ID             uuid.UUID       `json:"id"`
	UserID         string          `json:"userId"`
	Source         string          `json:"source"`
	Analysis       mood.Analysis   `json:"analysis"`
	HealthSnapshot health.Snapshot `json:"healthSnapshot"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// Recommendation is a persisted track recommendation. Rank orders
// recommendations produced by the same run.
type Recommendation struct {
	ID             uuid.UUID               `json:"id"`
	UserID         string                  `json:"userId"`
	MoodAnalysisID uuid.UUID               `json:"moodAnalysisId"`
	Rank           int                     `json:"rank"`
	Source         string                  `json:"source"` // "catalog" or "fallback"
	Track          matching.Recommendation `json:"track"`
	CreatedAt      time.Time               `json:"createdAt"`
}

// Interaction records what the user did with a recommendation.
type Interaction struct {
	ID               uuid.UUID `json:"id"`
	UserID           string    `json:"userId"`
	RecommendationID uuid.UUID `json:"recommendationId"`
	Action           string    `json:"action"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Package health models wearable metric readings and reduces them to the
// latest value per metric type.
package health

import (
	"context"
	"time"
)

// Metric types reported by devices.
const (
	HeartRate  = "heart_rate"
	Steps      = "steps"
	SleepScore = "sleep_score"
	Energy     = "energy"
	Stress     = "stress"
)

// Reading is a single recorded metric value.
type Reading struct {
	MetricType string
	Value      float64
	Unit       string
	Timestamp  time.Time
}

// Metric is the most recent value of one metric type.
type Metric struct {
	Value     float64   `json:"value"`
	Unit      string    `json:"unit"`
	Timestamp time.Time `json:"timestamp"`
}

// Snapshot maps a metric type to its most recent value. Types with no
// readings are absent.
type Snapshot map[string]Metric

// Provider supplies the latest snapshot for a user.
type Provider interface {
	LatestByType(ctx context.Context, userID string) (Snapshot, error)
}

// LatestByType keeps, per metric type, the reading with the greatest
// timestamp. On equal timestamps the earlier reading in the slice wins.
func LatestByType(readings []Reading) Snapshot {
	snap := make(Snapshot)
	for _, r := range readings {
		if r.MetricType == "" {
			continue
		}
		cur, ok := snap[r.MetricType]
		if ok && !r.Timestamp.After(cur.Timestamp) {
			continue
		}
		snap[r.MetricType] = Metric{Value: r.Value, Unit: r.Unit, Timestamp: r.Timestamp}
	}
	return snap
}

// Value returns the metric value, or 0 and false if the type is missing.
func (s Snapshot) Value(metricType string) (float64, bool) {
	m, ok := s[metricType]
	if !ok {
		return 0, false
	}
	return m.Value, true
}

// Empty reports whether the snapshot holds no metrics.
func (s Snapshot) Empty() bool {
	return len(s) == 0
}

// DefaultUnit returns the conventional unit for a metric type.
func DefaultUnit(metricType string) string {
	switch metricType {
	case HeartRate:
		return "bpm"
	case Steps:
		return "steps"
	case SleepScore, Energy, Stress:
		return "score"
	default:
		return ""
	}
}

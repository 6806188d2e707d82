// Package clustering groups recommended tracks into a listening profile
// using k-means over their audio features.
package clustering

import (
	"time"

	"github.com/justestif/go-moodtune/internal/matching"
)

// Track is a recommended track with its measured audio features.
type Track struct {
	ID            string
	Name          string
	Artist        string
	Features      matching.Features
	RecommendedAt time.Time
}

// maxTempo normalizes tempo into the unit range used by the other features.
const maxTempo = 200.0

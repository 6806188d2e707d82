// Package catalog supplies candidate tracks for a set of acoustic targets,
// from Spotify or from a fixed fallback list.
package catalog

import (
	"context"
	"errors"

	"github.com/justestif/go-moodtune/internal/matching"
)

// MaxLimit is the most tracks a single search returns.
const MaxLimit = 50

// TempoWindow is the allowed distance in BPM from the target tempo.
const TempoWindow = 20

// ErrProvider marks catalog failures. Callers recover by using Fallback.
var ErrProvider = errors.New("catalog provider failed")

// SearchRequest describes a candidate search.
type SearchRequest struct {
	SeedGenres []string
	Target     matching.Features
	Limit      int
}

// Provider returns candidate tracks with measured features.
type Provider interface {
	Search(ctx context.Context, req SearchRequest) ([]matching.Candidate, error)
}

// clampLimit bounds n to [1, MaxLimit].
func clampLimit(n int) int {
	return max(1, min(n, MaxLimit))
}

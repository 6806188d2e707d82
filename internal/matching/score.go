package matching

import (
	"math"
	"slices"
	"strings"

	"github.com/justestif/go-moodtune/internal/mood"
)

// Feature weights. They sum to 1.
const (
	energyWeight       = 0.35
	valenceWeight      = 0.35
	danceabilityWeight = 0.2
	tempoWeight        = 0.1
)

// Score rates how closely measured matches target, adding up to 10 points
// for classifier confidence. The result is clamped to [0,100].
func Score(target, measured Features, confidence float64) int {
	energy := 1 - math.Abs(target.Energy-measured.Energy)
	valence := 1 - math.Abs(target.Valence-measured.Valence)
	dance := 1 - math.Abs(target.Danceability-measured.Danceability)
	tempo := math.Max(0, 1-math.Abs(target.Tempo-measured.Tempo)/100)

	weighted := energy*energyWeight + valence*valenceWeight + dance*danceabilityWeight + tempo*tempoWeight
	bonus := confidence / 100 * 0.1

	s := int(math.Round((weighted + bonus) * 100))
	return max(0, min(100, s))
}

// Explain builds a short reason for a scored track from at most two
// matching observations.
func Explain(a mood.Analysis, measured Features, score int) string {
	var reasons []string

	switch level := a.Recommendations.EnergyLevel; {
	case measured.Energy > 0.6 && level == mood.High:
		reasons = append(reasons, "high energy matches your current state")
	case measured.Energy < 0.4 && level == mood.Low:
		reasons = append(reasons, "calming energy for relaxation")
	}

	switch {
	case measured.Valence > 0.6 && a.Mood != mood.Stressed:
		reasons = append(reasons, "uplifting mood")
	case measured.Valence < 0.4 && (a.Mood == mood.Melancholy || a.Mood == mood.Stressed):
		reasons = append(reasons, "reflective tone matching your mood")
	}

	switch {
	case score > 85:
		reasons = append(reasons, "perfect match for your current mood")
	case score > 70:
		reasons = append(reasons, "good alignment with your emotional state")
	}

	if len(reasons) == 0 {
		return "recommended based on your mood profile"
	}
	if len(reasons) > 2 {
		reasons = reasons[:2]
	}
	return strings.Join(reasons, " and ")
}

// Rank scores candidates against the analysis and returns them sorted by
// descending score. Ties keep catalog order.
func Rank(a mood.Analysis, candidates []Candidate) []Recommendation {
	target := MapMoodToTargets(a)
	recs := make([]Recommendation, len(candidates))
	for i, c := range candidates {
		s := Score(target, c.Features, a.Confidence)
		recs[i] = Recommendation{
			ID:            c.ID,
			Name:          c.Name,
			Artist:        c.Artist,
			Album:         c.Album,
			Duration:      FormatDuration(c.DurationMs),
			MoodMatch:     s,
			Reason:        Explain(a, c.Features, s),
			AudioFeatures: c.Features,
			ExternalURL:   c.ExternalURL,
			PreviewURL:    c.PreviewURL,
		}
	}
	slices.SortStableFunc(recs, func(x, y Recommendation) int {
		return y.MoodMatch - x.MoodMatch
	})
	return recs
}

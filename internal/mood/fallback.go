package mood

import (
	"fmt"

	"github.com/justestif/go-moodtune/internal/health"
)

// genresByMood lists seed genres for each mood. Not every entry is a
// catalog genre; the genre selector aliases or drops the rest.
var genresByMood = map[string][]string{
	Energetic:  {"world-music", "indian", "new-age", "spiritual", "devotional", "pop", "electronic"},
	Calm:       {"meditation", "ambient", "new-age", "indian", "world-music", "classical", "spiritual", "flute"},
	Focused:    {"meditation", "indian", "new-age", "instrumental", "ambient", "world-music", "classical", "spiritual"},
	Melancholy: {"meditation", "new-age", "indian", "world-music", "ambient", "acoustic", "spiritual"},
	Stressed:   {"meditation", "indian", "new-age", "ambient", "world-music", "classical", "spiritual", "healing"},
	Relaxed:    {"meditation", "new-age", "indian", "world-music", "ambient", "jazz", "spiritual", "classical"},
}

var defaultGenres = []string{"meditation", "new-age", "indian", "world-music"}

// GenresForMood returns a copy of the seed genres for mood. Unknown moods
// get a generic default list.
func GenresForMood(mood string) []string {
	g, ok := genresByMood[mood]
	if !ok {
		g = defaultGenres
	}
	return append([]string(nil), g...)
}

// Fallback classifies a snapshot with fixed thresholds. Rules run in order
// heart rate, steps, sleep; later rules overwrite mood and energy level
// while factors and confidence accumulate. A metric with value 0 counts as
// missing.
func Fallback(snap health.Snapshot) Analysis {
	mood := Calm
	energy := Medium
	confidence := 65.0
	factors := []string{}

	value := func(metricType string) (float64, bool) {
		v, ok := snap.Value(metricType)
		return v, ok && v != 0
	}

	if hr, ok := value(health.HeartRate); ok {
		switch {
		case hr > 90:
			mood, energy = Energetic, High
			factors = append(factors, "Elevated heart rate")
		case hr < 65:
			mood, energy = Relaxed, Low
			factors = append(factors, "Low resting heart rate")
		}
	}

	if steps, ok := value(health.Steps); ok {
		switch {
		case steps > 8000:
			mood, energy = Energetic, High
			factors = append(factors, "High activity level")
			confidence += 10
		case steps < 3000:
			energy = Low
			factors = append(factors, "Low activity level")
		}
	}

	if sleep, ok := value(health.SleepScore); ok {
		switch {
		case sleep < 70:
			mood = Stressed
			factors = append(factors, "Poor sleep quality")
			confidence += 5
		case sleep > 85:
			factors = append(factors, "Good sleep quality")
			confidence += 10
		}
	}

	if len(factors) == 0 {
		factors = append(factors, "Limited health data available")
	}

	return Analysis{
		Mood:        mood,
		Confidence:  min(confidence, 85),
		Factors:     factors,
		Description: describe(mood, len(factors)),
		Recommendations: Hints{
			EnergyLevel: energy,
			MusicGenres: GenresForMood(mood),
			Tempo:       tempoFor(energy),
			Valence:     valenceFor(mood),
		},
		Source: SourceHeuristic,
	}
}

func describe(mood string, nFactors int) string {
	lead := "Key indicators"
	if nFactors > 1 {
		lead = "Multiple factors"
	}
	return fmt.Sprintf("Based on available health metrics, you appear to be in a %s state. %s suggest this mood pattern.", mood, lead)
}

func tempoFor(energy string) string {
	switch energy {
	case High:
		return Fast
	case Low:
		return Slow
	default:
		return Medium
	}
}

func valenceFor(mood string) string {
	if mood == Stressed || mood == Melancholy {
		return Low
	}
	return Medium
}

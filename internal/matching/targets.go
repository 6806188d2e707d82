package matching

import "github.com/justestif/go-moodtune/internal/mood"

// MapMoodToTargets derives the target feature vector for an analysis.
// Energy level sets energy, danceability and tempo; the valence hint sets
// valence; then mood-specific bounds are applied on top.
func MapMoodToTargets(a mood.Analysis) Features {
	f := Features{Energy: 0.5, Valence: 0.5, Danceability: 0.5, Tempo: 120}

	switch a.Recommendations.EnergyLevel {
	case mood.High:
		f.Energy, f.Danceability, f.Tempo = 0.7, 0.7, 140
	case mood.Low:
		f.Energy, f.Danceability, f.Tempo = 0.3, 0.3, 90
	}

	switch a.Recommendations.Valence {
	case mood.High:
		f.Valence = 0.7
	case mood.Low:
		f.Valence = 0.3
	}

	switch a.Mood {
	case mood.Energetic:
		f.Energy = max(f.Energy, 0.7)
		f.Valence = max(f.Valence, 0.6)
		f.Danceability = max(f.Danceability, 0.6)
	case mood.Calm, mood.Relaxed:
		f.Energy = min(f.Energy, 0.4)
		f.Tempo = min(f.Tempo, 100)
	case mood.Focused:
		f.Danceability = min(f.Danceability, 0.4)
		f.Valence = 0.5
	case mood.Stressed:
		f.Energy = min(f.Energy, 0.3)
		f.Valence = max(f.Valence, 0.4)
		f.Tempo = min(f.Tempo, 90)
	}

	return f
}

package clustering

import "github.com/justestif/go-moodtune/internal/matching"

// generateMoodName names a centroid by its energy/valence quadrant.
//
// Quadrants:
//   - High Energy + High Valence = "Upbeat Party"
//   - High Energy + Low Valence  = "Intense & Dark"
//   - Low Energy  + High Valence = "Chill & Happy"
//   - Low Energy  + Low Valence  = "Reflective & Melancholy"
//
// Danceability above 0.7 appends "(Danceable)".
func generateMoodName(centroid matching.Features) string {
	var baseName string

	highEnergy := centroid.Energy > 0.6
	highValence := centroid.Valence > 0.5

	switch {
	case highEnergy && highValence:
		baseName = "Upbeat Party"
	case highEnergy && !highValence:
		baseName = "Intense & Dark"
	case !highEnergy && highValence:
		baseName = "Chill & Happy"
	default: // low energy, low valence
		baseName = "Reflective & Melancholy"
	}

	if centroid.Danceability > 0.7 {
		return baseName + " (Danceable)"
	}

	return baseName
}

// MoodCategory represents a mood classification for display purposes.
type MoodCategory struct {
	Name        string  // Display name
	Energy      float64 // Average energy level
	Valence     float64 // Average positivity
	Description string  // Brief description of the mood
}

// GetMoodCategory returns a detailed mood category for a centroid.
func GetMoodCategory(centroid matching.Features) MoodCategory {
	var description string
	switch {
	case centroid.Energy > 0.6 && centroid.Valence > 0.5:
		description = "High-energy, positive vibes - perfect for dancing and celebrations"
	case centroid.Energy > 0.6 && centroid.Valence <= 0.5:
		description = "Intense, driving energy with darker emotional tones"
	case centroid.Energy <= 0.6 && centroid.Valence > 0.5:
		description = "Relaxed and uplifting - great for unwinding"
	default:
		description = "Contemplative and introspective - ideal for quiet moments"
	}

	return MoodCategory{
		Name:        generateMoodName(centroid),
		Energy:      centroid.Energy,
		Valence:     centroid.Valence,
		Description: description,
	}
}

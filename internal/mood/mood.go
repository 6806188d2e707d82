// Package mood infers a mood classification from a health snapshot.
//
// An Engine tries an optional AI Classifier first and falls back to a
// deterministic heuristic whenever the classifier is missing, fails, or
// returns a payload that does not decode into an Analysis.
package mood

// Mood labels.
const (
	Energetic  = "energetic"
	Calm       = "calm"
	Focused    = "focused"
	Melancholy = "melancholy"
	Stressed   = "stressed"
	Relaxed    = "relaxed"
)

// Levels used by energyLevel and valence hints.
const (
	Low    = "low"
	Medium = "medium"
	High   = "high"
)

// Tempo hints.
const (
	Slow = "slow"
	Fast = "fast"
)

// Sources reported on an Analysis.
const (
	SourceAI        = "ai"
	SourceHeuristic = "heuristic"
)

// Confidence bounds for accepted results.
const (
	MinConfidence = 60
	MaxConfidence = 95
)

// Hints are the target musical qualities attached to an analysis.
type Hints struct {
	EnergyLevel string   `json:"energyLevel" validate:"required,oneof=low medium high"`
	MusicGenres []string `json:"musicGenres"`
	Tempo       string   `json:"tempo" validate:"required,oneof=slow medium fast"`
	Valence     string   `json:"valence" validate:"required,oneof=low medium high"`
}

// Analysis is the result of one mood inference. Mood is usually one of the
// six known labels, but classifiers may answer with any other label.
type Analysis struct {
	Mood            string   `json:"mood" validate:"required"`
	Confidence      float64  `json:"confidence" validate:"required"`
	Factors         []string `json:"factors" validate:"required"`
	Description     string   `json:"description" validate:"required"`
	Recommendations Hints    `json:"recommendations"`

	// Source is SourceAI or SourceHeuristic. Not part of the payload.
	Source string `json:"-"`
}

// Preferences are the user's stated music tastes.
type Preferences struct {
	MusicGenres     []string            `json:"musicGenres"`
	HealthGoals     []string            `json:"healthGoals"`
	MoodPreferences map[string][]string `json:"moodPreferences"`
}

// ClampConfidence bounds c to [MinConfidence, MaxConfidence].
func ClampConfidence(c float64) float64 {
	return max(MinConfidence, min(MaxConfidence, c))
}

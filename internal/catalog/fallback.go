package catalog

import (
	"github.com/justestif/go-moodtune/internal/matching"
	"github.com/justestif/go-moodtune/internal/mood"
)

const (
	previewKalimba = "https://www.learningcontainer.com/wp-content/uploads/2020/02/Kalimba.mp3"
	previewShort   = "https://samplelib.com/lib/preview/mp3/sample-6s.mp3"
	previewLong    = "https://samplelib.com/lib/preview/mp3/sample-15s.mp3"
)

type fallbackTrack struct {
	id, name, artist, album string
	durationMs              int
	reason                  string
	previewURL              string
}

var fallbackTracks = []fallbackTrack{
	{"fallback-1", "Bansuri Flute Meditation", "Pandit Hariprasad Chaurasia", "Sacred Flute Meditations", 455000,
		"Therapeutic bamboo flute for deep meditation and chakra balancing", previewKalimba},
	{"fallback-2", "Veena Raga Bhairav", "S. Balachander", "Classical Veena Ragas", 552000,
		"Morning raga on veena for spiritual awakening and focus", previewShort},
	{"fallback-3", "Carnatic Raga Meditation", "Indian Classical Artists", "Therapeutic Ragas", 375000,
		"Traditional Carnatic music for deep meditation and healing", previewKalimba},
	{"fallback-4", "Raga Yaman - Peaceful", "Classical Indian Ensemble", "Healing Ragas", 500000,
		"Soothing Carnatic composition for stress relief and focus", previewLong},
	{"fallback-5", "Sitar Meditation - Raga Darbari", "Pandit Ravi Shankar", "Healing Ragas Collection", 705000,
		"Deep healing raga on sitar for stress relief and inner peace", previewKalimba},
	{"fallback-6", "Tanpura Drone - Om Meditation", "Spiritual Sound Healers", "Sacred Drone Meditations", 900000,
		"Continuous tanpura drone with Om chanting for deep meditation", previewLong},
	{"fallback-7", "Tabla & Flute Devotional", "Bhajan Ensemble", "Spiritual Rhythms", 330000,
		"Uplifting devotional music with tabla rhythms and flute melodies", previewKalimba},
	{"fallback-8", "Tibetan Singing Bowls & Flute", "Meditation Masters", "Chakra Healing Sounds", 740000,
		"Healing vibrations from Tibetan bowls combined with flute meditation", previewShort},
	{"fallback-9", "Gayatri Mantra - Traditional", "Sanskrit Chanting Collective", "Sacred Mantras for Healing", 480000,
		"Sacred Gayatri mantra chanting for spiritual purification and peace", previewKalimba},
	{"fallback-10", "Santoor Mountain Meditation", "Pandit Shivkumar Sharma", "Himalayan Sounds", 615000,
		"Ethereal santoor melodies inspired by Himalayan spirituality", previewLong},
}

// fallbackOrder lists catalog indices per mood, best first.
var fallbackOrder = map[string][]int{
	mood.Calm:       {0, 5, 7, 2, 3, 9, 1, 6, 8, 4},
	mood.Relaxed:    {0, 5, 7, 2, 3, 9, 1, 6, 8, 4},
	mood.Energetic:  {6, 1, 8, 0, 3, 7, 2, 4, 5, 9},
	"happy":         {6, 1, 8, 0, 3, 7, 2, 4, 5, 9},
	mood.Focused:    {1, 4, 0, 9, 2, 3, 5, 7, 8, 6},
	mood.Stressed:   {4, 5, 0, 2, 7, 8, 3, 9, 1, 6},
	mood.Melancholy: {8, 5, 0, 2, 9, 7, 3, 4, 1, 6},
}

var defaultFallbackOrder = []int{0, 2, 1, 4, 5, 7, 8, 9, 3, 6}

// FallbackSize is the number of tracks in the fallback catalog.
func FallbackSize() int {
	return len(fallbackTracks)
}

// Fallback returns up to limit tracks from the fixed catalog in the order
// preset for the mood. Tracks are not scored: the i-th track gets a match
// of 75-5i (never below 0) and features estimated from the mood alone.
func Fallback(moodLabel string, limit int) []matching.Recommendation {
	order, ok := fallbackOrder[moodLabel]
	if !ok {
		order = defaultFallbackOrder
	}
	if limit < len(order) {
		order = order[:max(0, limit)]
	}

	features := matching.Features{
		Energy:       fallbackEnergy(moodLabel),
		Valence:      fallbackValence(moodLabel),
		Danceability: 0.5,
		Tempo:        120,
	}

	recs := make([]matching.Recommendation, len(order))
	for i, idx := range order {
		t := fallbackTracks[idx]
		recs[i] = matching.Recommendation{
			ID:            t.id,
			Name:          t.name,
			Artist:        t.artist,
			Album:         t.album,
			Duration:      matching.FormatDuration(t.durationMs),
			MoodMatch:     max(0, 75-5*i),
			Reason:        t.reason,
			AudioFeatures: features,
			ExternalURL:   "#",
			PreviewURL:    t.previewURL,
		}
	}
	return recs
}

func fallbackEnergy(m string) float64 {
	switch m {
	case mood.Energetic, "happy":
		return 0.8
	case mood.Calm, mood.Relaxed:
		return 0.3
	default:
		return 0.5
	}
}

func fallbackValence(m string) float64 {
	switch m {
	case mood.Energetic, "happy":
		return 0.8
	case mood.Stressed, "anxious":
		return 0.4
	case mood.Calm, mood.Focused:
		return 0.6
	default:
		return 0.5
	}
}

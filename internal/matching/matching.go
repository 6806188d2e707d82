// Package matching maps moods onto acoustic targets, picks seed genres and
// scores candidate tracks against the targets.
package matching

import "fmt"

// Features is an acoustic feature vector. Energy, Valence and Danceability
// are in [0,1]; Tempo is in BPM.
type Features struct {
	Energy       float64 `json:"energy"`
	Valence      float64 `json:"valence"`
	Danceability float64 `json:"danceability"`
	Tempo        float64 `json:"tempo"`
}

// Candidate is a track returned by a catalog, with measured features.
type Candidate struct {
	ID          string
	Name        string
	Artist      string
	Album       string
	DurationMs  int
	Features    Features
	ExternalURL string
	PreviewURL  string
}

// Recommendation is a scored, explained track.
type Recommendation struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Artist        string   `json:"artist"`
	Album         string   `json:"album"`
	Duration      string   `json:"duration"`
	MoodMatch     int      `json:"moodMatch"`
	Reason        string   `json:"reason"`
	AudioFeatures Features `json:"audioFeatures"`
	ExternalURL   string   `json:"externalUrl"`
	PreviewURL    string   `json:"previewUrl,omitempty"`
}

// FormatDuration renders milliseconds as m:ss.
func FormatDuration(ms int) string {
	if ms < 0 {
		ms = 0
	}
	minutes := ms / 60000
	seconds := (ms % 60000) / 1000
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

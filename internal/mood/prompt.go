package mood

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/justestif/go-moodtune/internal/health"
)

const promptHeader = `You are a health and mood analysis assistant working in music therapy, with a focus on meditation, spirituality and healing through sound. Read the health data below, decide the person's current mood, and suggest therapeutic music qualities. Favor Indian classical music, meditation and spiritual wellness.`

const promptShape = `Respond with a JSON object of exactly this shape:
{
  "mood": "energetic|calm|focused|melancholy|stressed|relaxed",
  "confidence": 85,
  "factors": ["factor1", "factor2"],
  "description": "Short explanation of the mood analysis",
  "recommendations": {
    "energyLevel": "low|medium|high",
    "musicGenres": ["genre1", "genre2"],
    "tempo": "slow|medium|fast",
    "valence": "low|medium|high"
  }
}`

const promptGuidelines = `Guidelines:
- Heart rate 60-100 bpm is normal; above 100 may indicate stress or energy, below 60 calm or rest.
- Sleep quality strongly affects mood.
- Step count correlates with energy.
- Confidence reflects how clearly the data indicates the mood, between 60 and 95.
- Factors name the specific metrics that drove the analysis.
- The description is empathetic and actionable, two or three sentences.
- Prefer meditative and spiritual genres: ambient, new-age, classical, Carnatic and Hindustani ragas, bansuri, veena, sitar, tanpura.
- For stressed moods lean on healing ragas such as Darbari and Bageshri; for energetic moods include uplifting devotional music.

Respond only with valid JSON, no additional text.`

// BuildPrompt renders the classifier prompt for a snapshot. Metrics are
// listed in name order so the prompt is stable for a given input.
func BuildPrompt(snap health.Snapshot, prefs *Preferences, now time.Time) string {
	var b strings.Builder
	b.WriteString(promptHeader)
	b.WriteString("\n\nCurrent health metrics:\n")

	types := make([]string, 0, len(snap))
	for t := range snap {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		m := snap[t]
		fmt.Fprintf(&b, "%s: %s %s (recorded %s)\n", t, strconv.FormatFloat(m.Value, 'f', -1, 64), m.Unit, timeAgo(now.Sub(m.Timestamp)))
	}

	if prefs != nil {
		b.WriteString("\n")
		fmt.Fprintf(&b, "User music preferences: %s\n", strings.Join(prefs.MusicGenres, ", "))
		fmt.Fprintf(&b, "Health goals: %s\n", strings.Join(prefs.HealthGoals, ", "))

		moods := make([]string, 0, len(prefs.MoodPreferences))
		for m := range prefs.MoodPreferences {
			moods = append(moods, m)
		}
		sort.Strings(moods)
		parts := make([]string, len(moods))
		for i, m := range moods {
			parts[i] = m + ": " + strings.Join(prefs.MoodPreferences[m], ", ")
		}
		fmt.Fprintf(&b, "Previous mood preferences: %s\n", strings.Join(parts, "; "))
	}

	b.WriteString("\n")
	b.WriteString(promptShape)
	b.WriteString("\n\n")
	b.WriteString(promptGuidelines)
	return b.String()
}

func timeAgo(d time.Duration) string {
	minutes := int(d / time.Minute)
	switch {
	case minutes < 60:
		return fmt.Sprintf("%d minutes ago", minutes)
	case minutes < 1440:
		return fmt.Sprintf("%d hours ago", minutes/60)
	default:
		return fmt.Sprintf("%d days ago", minutes/1440)
	}
}

package clustering

import (
	"fmt"
	"strings"
)

const dateFormat = "2006-01-02"

// FormatProfile returns a human-readable summary of a profile.
func FormatProfile(p Profile) string {
	var sb strings.Builder

	if len(p.Clusters) == 0 {
		sb.WriteString(fmt.Sprintf("No listening clusters from %d tracks", p.TotalTracks))
		if p.Outliers > 0 {
			sb.WriteString(fmt.Sprintf(" (%d outliers skipped)", p.Outliers))
		}
		sb.WriteString("\n")
		return sb.String()
	}

	word := "cluster"
	if len(p.Clusters) > 1 {
		word = "clusters"
	}

	sb.WriteString(fmt.Sprintf("Found %d %s from %d tracks", len(p.Clusters), word, p.TotalTracks))
	if p.Outliers > 0 {
		sb.WriteString(fmt.Sprintf(" (%d outliers skipped)", p.Outliers))
	}
	sb.WriteString("\n")

	for _, c := range p.Clusters {
		trackWord := "track"
		if len(c.TrackIDs) > 1 {
			trackWord = "tracks"
		}
		sb.WriteString(fmt.Sprintf("\n%s: %d %s, %.0f%% (%s to %s)\n",
			c.Name, len(c.TrackIDs), trackWord, c.Share*100,
			c.FirstSeen.Format(dateFormat), c.LastSeen.Format(dateFormat)))
		sb.WriteString(fmt.Sprintf("  energy %.2f, valence %.2f, danceability %.2f, %.0f BPM\n",
			c.Centroid.Energy, c.Centroid.Valence, c.Centroid.Danceability, c.Centroid.Tempo))
	}

	return sb.String()
}

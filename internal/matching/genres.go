package matching

import (
	"strings"

	"github.com/justestif/go-moodtune/internal/mood"
)

// MaxSeedGenres is the most seeds a catalog request accepts.
const MaxSeedGenres = 5

// DefaultSeedGenres is used when no candidate genre survives filtering.
var DefaultSeedGenres = []string{"ambient", "new-age", "classical"}

// validGenres is the catalog's seed genre vocabulary.
var validGenres = map[string]bool{
	"acoustic": true, "afrobeat": true, "alt-rock": true, "alternative": true,
	"ambient": true, "blues": true, "bossanova": true, "brazil": true,
	"breakbeat": true, "british": true, "chill": true, "classical": true,
	"club": true, "country": true, "dance": true, "dancehall": true,
	"deep-house": true, "disco": true, "drum-and-bass": true, "dub": true,
	"dubstep": true, "electronic": true, "folk": true, "funk": true,
	"garage": true, "gospel": true, "groove": true, "hip-hop": true,
	"house": true, "indie": true, "jazz": true, "latin": true,
	"lo-fi": true, "new-age": true, "pop": true, "r-n-b": true,
	"reggae": true, "rock": true, "soul": true, "techno": true,
	"trance": true,
}

// genreAliases rewrites common non-catalog genres onto catalog ones.
var genreAliases = map[string]string{
	"world-music": "ambient",
	"indian":      "new-age",
	"meditation":  "ambient",
}

// IsValidGenre reports whether g is in the catalog vocabulary, ignoring case.
func IsValidGenre(g string) bool {
	return validGenres[strings.ToLower(strings.TrimSpace(g))]
}

// SelectGenres picks up to MaxSeedGenres catalog genres. Mood-specific
// preferences win over general ones; when fewer than three are found the
// analysis' own suggestions are appended. The result is never empty.
func SelectGenres(a mood.Analysis, prefs *mood.Preferences) []string {
	var genres []string
	if prefs != nil {
		if g := prefs.MoodPreferences[a.Mood]; len(g) > 0 {
			genres = append(genres, g...)
		} else {
			genres = append(genres, prefs.MusicGenres...)
		}
	}
	if len(genres) < 3 {
		genres = append(genres, a.Recommendations.MusicGenres...)
	}

	seen := make(map[string]bool, len(genres))
	out := make([]string, 0, MaxSeedGenres)
	for _, g := range genres {
		g = strings.ToLower(strings.TrimSpace(g))
		if alias, ok := genreAliases[g]; ok {
			g = alias
		}
		if seen[g] {
			continue
		}
		seen[g] = true
		if !validGenres[g] {
			continue
		}
		out = append(out, g)
		if len(out) == MaxSeedGenres {
			break
		}
	}

	if len(out) == 0 {
		return append([]string(nil), DefaultSeedGenres...)
	}
	return out
}

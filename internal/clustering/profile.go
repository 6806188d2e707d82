package clustering

import (
	"math"
	"slices"
	"time"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"

	"github.com/justestif/go-moodtune/internal/logging"
	"github.com/justestif/go-moodtune/internal/matching"
)

// Config holds profile clustering parameters.
type Config struct {
	NumClusters    int // Number of clusters to create (default: 3)
	MinClusterSize int // Smaller clusters are counted as outliers
}

// DefaultConfig returns the recommended default configuration.
func DefaultConfig() Config {
	return Config{
		NumClusters:    3,
		MinClusterSize: 2,
	}
}

// Cluster is a group of tracks with a similar sound.
type Cluster struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Centroid    matching.Features `json:"centroid"`
	Share       float64           `json:"share"` // fraction of clustered tracks
	TrackIDs    []string          `json:"trackIds"`
	FirstSeen   time.Time         `json:"firstSeen"`
	LastSeen    time.Time         `json:"lastSeen"`
}

// Profile summarizes a listening history.
type Profile struct {
	Clusters    []Cluster `json:"clusters"`
	Outliers    int       `json:"outliers"`
	TotalTracks int       `json:"totalTracks"`
}

// trackObservation wraps a Track to implement clusters.Observation interface.
type trackObservation struct {
	track  *Track
	coords clusters.Coordinates
}

func (o trackObservation) Coordinates() clusters.Coordinates {
	return o.coords
}

func (o trackObservation) Distance(point clusters.Coordinates) float64 {
	return o.coords.Distance(point)
}

// BuildProfile clusters tracks by energy, valence, danceability and
// normalized tempo. Repeated track IDs count once, keeping the latest
// recommendation. Clusters are ordered largest first.
func BuildProfile(tracks []Track, cfg Config) Profile {
	if cfg.NumClusters <= 0 {
		cfg.NumClusters = DefaultConfig().NumClusters
	}

	unique := dedupe(tracks)
	profile := Profile{TotalTracks: len(unique)}
	if len(unique) == 0 {
		return profile
	}

	// Fewer tracks than clusters: shrink k rather than reporting nothing
	k := min(cfg.NumClusters, len(unique))

	var obs clusters.Observations
	for i := range unique {
		obs = append(obs, trackObservation{
			track:  &unique[i],
			coords: extractFeatures(unique[i].Features),
		})
	}

	result, err := kmeans.New().Partition(obs, k)
	if err != nil {
		logging.Component("clustering").Warn().Err(err).Int("tracks", len(unique)).Msg("k-means partition failed")
		profile.Outliers = len(unique)
		return profile
	}

	clustered := 0
	for _, c := range result {
		var members []*Track
		for _, o := range c.Observations {
			if to, ok := o.(trackObservation); ok {
				members = append(members, to.track)
			}
		}
		if len(members) == 0 {
			continue
		}
		if len(members) < cfg.MinClusterSize {
			profile.Outliers += len(members)
			continue
		}
		clustered += len(members)
		profile.Clusters = append(profile.Clusters, newCluster(members))
	}

	for i := range profile.Clusters {
		profile.Clusters[i].Share = float64(len(profile.Clusters[i].TrackIDs)) / float64(clustered)
	}

	slices.SortStableFunc(profile.Clusters, func(a, b Cluster) int {
		return len(b.TrackIDs) - len(a.TrackIDs)
	})
	return profile
}

func newCluster(members []*Track) Cluster {
	slices.SortFunc(members, func(a, b *Track) int {
		return a.RecommendedAt.Compare(b.RecommendedAt)
	})

	var sum matching.Features
	ids := make([]string, len(members))
	for i, t := range members {
		ids[i] = t.ID
		sum.Energy += t.Features.Energy
		sum.Valence += t.Features.Valence
		sum.Danceability += t.Features.Danceability
		sum.Tempo += t.Features.Tempo
	}
	n := float64(len(members))
	centroid := matching.Features{
		Energy:       round2(sum.Energy / n),
		Valence:      round2(sum.Valence / n),
		Danceability: round2(sum.Danceability / n),
		Tempo:        math.Round(sum.Tempo / n),
	}

	category := GetMoodCategory(centroid)
	return Cluster{
		Name:        category.Name,
		Description: category.Description,
		Centroid:    centroid,
		TrackIDs:    ids,
		FirstSeen:   members[0].RecommendedAt,
		LastSeen:    members[len(members)-1].RecommendedAt,
	}
}

// dedupe keeps the most recent entry per track ID, preserving first-seen order.
func dedupe(tracks []Track) []Track {
	index := make(map[string]int, len(tracks))
	var out []Track
	for _, t := range tracks {
		if i, ok := index[t.ID]; ok {
			if t.RecommendedAt.After(out[i].RecommendedAt) {
				out[i] = t
			}
			continue
		}
		index[t.ID] = len(out)
		out = append(out, t)
	}
	return out
}

// extractFeatures builds the coordinate vector used for clustering.
func extractFeatures(f matching.Features) clusters.Coordinates {
	return clusters.Coordinates{
		f.Energy,
		f.Valence,
		f.Danceability,
		min(f.Tempo, maxTempo) / maxTempo,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

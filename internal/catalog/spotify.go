package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/zmb3/spotify/v2"

	"github.com/justestif/go-moodtune/internal/logging"
	"github.com/justestif/go-moodtune/internal/matching"
)

// maxTracksPerRequest is the Spotify limit for audio-feature lookups.
const maxTracksPerRequest = 100

// Invalidator drops a cached credential after the API rejects it.
type Invalidator interface {
	Invalidate()
}

// SpotifyProvider searches the Spotify recommendations endpoint and
// attaches measured audio features.
type SpotifyProvider struct {
	api   *spotify.Client
	creds Invalidator
	log   zerolog.Logger
}

// NewSpotifyProvider wraps an authenticated API client. creds may be nil.
func NewSpotifyProvider(api *spotify.Client, creds Invalidator) *SpotifyProvider {
	return &SpotifyProvider{
		api:   api,
		creds: creds,
		log:   logging.Component("catalog"),
	}
}

// NewSpotifyClient builds an API client over an authorized HTTP client.
// baseURL may be empty for the public API. Rate-limited requests are not
// retried: a 429 fails the search so the caller can serve fallback tracks.
func NewSpotifyClient(httpClient *http.Client, baseURL string) *spotify.Client {
	var opts []spotify.ClientOption
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		opts = append(opts, spotify.WithBaseURL(baseURL))
	}
	return spotify.New(httpClient, opts...)
}

// Search asks for tracks near the target features within the tempo window.
// Tracks Spotify has no audio features for are dropped.
func (p *SpotifyProvider) Search(ctx context.Context, req SearchRequest) ([]matching.Candidate, error) {
	attrs := spotify.NewTrackAttributes().
		TargetEnergy(req.Target.Energy).
		TargetValence(req.Target.Valence).
		TargetDanceability(req.Target.Danceability).
		MinTempo(req.Target.Tempo - TempoWindow).
		MaxTempo(req.Target.Tempo + TempoWindow)

	seeds := spotify.Seeds{Genres: req.SeedGenres}
	if len(seeds.Genres) > matching.MaxSeedGenres {
		seeds.Genres = seeds.Genres[:matching.MaxSeedGenres]
	}

	recs, err := p.api.GetRecommendations(ctx, seeds, attrs, spotify.Limit(clampLimit(req.Limit)))
	if err != nil {
		p.checkAuth(err)
		return nil, fmt.Errorf("%w: getting recommendations: %w", ErrProvider, err)
	}
	if len(recs.Tracks) == 0 {
		return []matching.Candidate{}, nil
	}

	features, err := p.fetchAudioFeatures(ctx, recs.Tracks)
	if err != nil {
		p.checkAuth(err)
		return nil, fmt.Errorf("%w: %w", ErrProvider, err)
	}

	candidates := make([]matching.Candidate, 0, len(recs.Tracks))
	for _, t := range recs.Tracks {
		f, ok := features[t.ID.String()]
		if !ok {
			p.log.Debug().Str("track", t.ID.String()).Msg("no audio features, skipping")
			continue
		}
		candidates = append(candidates, convertTrack(t, f))
	}
	return candidates, nil
}

// fetchAudioFeatures looks up features for tracks in batches, keyed by ID.
func (p *SpotifyProvider) fetchAudioFeatures(ctx context.Context, tracks []spotify.SimpleTrack) (map[string]matching.Features, error) {
	ids := make([]spotify.ID, len(tracks))
	for i, t := range tracks {
		ids[i] = t.ID
	}

	out := make(map[string]matching.Features, len(ids))
	for i := 0; i < len(ids); i += maxTracksPerRequest {
		end := min(i+maxTracksPerRequest, len(ids))

		batch, err := p.api.GetAudioFeatures(ctx, ids[i:end]...)
		if err != nil {
			return nil, fmt.Errorf("fetching audio features (batch %d-%d): %w", i+1, end, err)
		}
		for _, f := range batch {
			if f == nil {
				continue
			}
			out[f.ID.String()] = toFeatures(f)
		}
	}
	return out, nil
}

// checkAuth drops the credential when Spotify rejects it.
func (p *SpotifyProvider) checkAuth(err error) {
	if p.creds == nil {
		return
	}
	var apiErr spotify.Error
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		p.log.Warn().Msg("spotify rejected token, invalidating")
		p.creds.Invalidate()
	}
}

func toFeatures(f *spotify.AudioFeatures) matching.Features {
	return matching.Features{
		Energy:       float64(f.Energy),
		Valence:      float64(f.Valence),
		Danceability: float64(f.Danceability),
		Tempo:        float64(f.Tempo),
	}
}

// convertTrack converts a Spotify track to a candidate. Only the first
// artist is kept.
func convertTrack(t spotify.SimpleTrack, f matching.Features) matching.Candidate {
	artist := "Unknown Artist"
	if len(t.Artists) > 0 {
		artist = t.Artists[0].Name
	}
	return matching.Candidate{
		ID:          t.ID.String(),
		Name:        t.Name,
		Artist:      artist,
		Album:       t.Album.Name,
		DurationMs:  int(t.Duration),
		Features:    f,
		ExternalURL: t.ExternalURLs["spotify"],
		PreviewURL:  t.PreviewURL,
	}
}

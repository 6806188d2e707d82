package recommend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/justestif/go-moodtune/internal/catalog"
	"github.com/justestif/go-moodtune/internal/db"
	"github.com/justestif/go-moodtune/internal/health"
	"github.com/justestif/go-moodtune/internal/logging"
	"github.com/justestif/go-moodtune/internal/matching"
	"github.com/justestif/go-moodtune/internal/mood"
)

var fixedNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

type fakeCatalog struct {
	candidates []matching.Candidate
	err        error
	got        catalog.SearchRequest
	calls      int
}

func (f *fakeCatalog) Search(_ context.Context, req catalog.SearchRequest) ([]matching.Candidate, error) {
	f.calls++
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return f.candidates, nil
}

type countingEngine struct {
	calls int
}

func (e *countingEngine) Infer(_ context.Context, snap health.Snapshot, _ *mood.Preferences) mood.Analysis {
	e.calls++
	return mood.Fallback(snap)
}

func newStore(t *testing.T) *db.BadgerStore {
	t.Helper()
	s, err := db.OpenBadger("")
	if err != nil {
		t.Fatalf("OpenBadger() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newOrchestrator(store db.Store, engine Inferer, opts ...Option) *Orchestrator {
	opts = append([]Option{
		WithClock(func() time.Time { return fixedNow }),
		WithLogger(logging.NewTestLogger(io.Discard)),
	}, opts...)
	return New(store, engine, opts...)
}

// seedEnergetic stores Scenario A readings for user "demo".
func seedEnergetic(t *testing.T, s db.Store) {
	t.Helper()
	at := fixedNow.Add(-time.Hour)
	err := s.AddHealthMetrics(context.Background(), []db.HealthMetric{
		{UserID: "demo", MetricType: health.HeartRate, Value: 95, Unit: "bpm", Timestamp: at},
		{UserID: "demo", MetricType: health.Steps, Value: 9000, Unit: "steps", Timestamp: at},
		{UserID: "demo", MetricType: health.SleepScore, Value: 90, Unit: "score", Timestamp: at},
	})
	if err != nil {
		t.Fatalf("AddHealthMetrics() error = %v", err)
	}
}

func candidate(id string, energy, valence float64) matching.Candidate {
	return matching.Candidate{
		ID:         id,
		Name:       "Track " + id,
		Artist:     "Artist",
		Album:      "Album",
		DurationMs: 200000,
		Features:   matching.Features{Energy: energy, Valence: valence, Danceability: 0.7, Tempo: 140},
	}
}

func TestRecommend_NoHealthData(t *testing.T) {
	store := newStore(t)
	engine := &countingEngine{}
	cat := &fakeCatalog{}
	o := newOrchestrator(store, engine, WithCatalog(cat))

	_, err := o.Recommend(context.Background(), "demo", 5)
	if !errors.Is(err, ErrNoHealthData) {
		t.Fatalf("Recommend() error = %v, want ErrNoHealthData", err)
	}
	if engine.calls != 0 {
		t.Errorf("engine called %d times before health check", engine.calls)
	}
	if cat.calls != 0 {
		t.Errorf("catalog called %d times", cat.calls)
	}

	analyses, err := store.ListMoodAnalyses(context.Background(), "demo", 0)
	if err != nil {
		t.Fatalf("ListMoodAnalyses() error = %v", err)
	}
	if len(analyses) != 0 {
		t.Errorf("persisted %d analyses, want 0", len(analyses))
	}
}

func TestRecommend_CatalogRankedAndPersisted(t *testing.T) {
	store := newStore(t)
	seedEnergetic(t, store)

	cat := &fakeCatalog{candidates: []matching.Candidate{
		candidate("far", 0.1, 0.1),
		candidate("close", 0.8, 0.8),
		candidate("mid", 0.5, 0.5),
		candidate("close-2", 0.8, 0.8),
	}}
	o := newOrchestrator(store, mood.NewEngine(), WithCatalog(cat))

	res, err := o.Recommend(context.Background(), "demo", 3)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	if res.Source != SourceCatalog {
		t.Errorf("Source = %q, want catalog", res.Source)
	}
	if res.Analysis.Analysis.Mood != mood.Energetic {
		t.Errorf("mood = %q, want energetic", res.Analysis.Analysis.Mood)
	}

	// Request carries the mapped targets and selected genres
	if cat.got.Limit != 3 {
		t.Errorf("search limit = %d, want 3", cat.got.Limit)
	}
	if cat.got.Target != matching.MapMoodToTargets(res.Analysis.Analysis) {
		t.Errorf("search target = %+v", cat.got.Target)
	}
	if len(cat.got.SeedGenres) == 0 || len(cat.got.SeedGenres) > matching.MaxSeedGenres {
		t.Errorf("seed genres = %v", cat.got.SeedGenres)
	}

	wantIDs := []string{"close", "close-2", "mid"}
	if len(res.Recommendations) != len(wantIDs) {
		t.Fatalf("len = %d, want %d", len(res.Recommendations), len(wantIDs))
	}
	for i, r := range res.Recommendations {
		if r.Track.ID != wantIDs[i] {
			t.Errorf("[%d] = %s, want %s", i, r.Track.ID, wantIDs[i])
		}
		if r.Rank != i || r.MoodAnalysisID != res.Analysis.ID || !r.CreatedAt.Equal(fixedNow) {
			t.Errorf("[%d] record = %+v", i, r)
		}
		if i > 0 && r.Track.MoodMatch > res.Recommendations[i-1].Track.MoodMatch {
			t.Errorf("not sorted at %d", i)
		}
	}

	stored, err := o.Recommendations(context.Background(), "demo", res.Analysis.ID)
	if err != nil {
		t.Fatalf("Recommendations() error = %v", err)
	}
	if len(stored) != 3 || stored[0].Track.ID != "close" {
		t.Errorf("stored = %+v", stored)
	}

	latest, err := o.LatestAnalysis(context.Background(), "demo")
	if err != nil {
		t.Fatalf("LatestAnalysis() error = %v", err)
	}
	if latest.ID != res.Analysis.ID || latest.Source != mood.SourceHeuristic {
		t.Errorf("latest = %+v", latest)
	}
	if latest.HealthSnapshot[health.HeartRate].Value != 95 {
		t.Errorf("snapshot not persisted: %+v", latest.HealthSnapshot)
	}
}

func TestRecommend_FallbackOnCatalogFailure(t *testing.T) {
	tests := []struct {
		name    string
		catalog catalog.Provider
		limit   int
		want    int
	}{
		{"provider error", &fakeCatalog{err: fmt.Errorf("%w: quota exceeded", catalog.ErrProvider)}, 5, 5},
		{"empty result", &fakeCatalog{}, 4, 4},
		{"no catalog", nil, 0, DefaultLimit},
		{"limit above fallback size", &fakeCatalog{err: errors.New("dial tcp: refused")}, 30, catalog.FallbackSize()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(t)
			seedEnergetic(t, store)

			var opts []Option
			if tt.catalog != nil {
				opts = append(opts, WithCatalog(tt.catalog))
			}
			o := newOrchestrator(store, mood.NewEngine(), opts...)

			res, err := o.Recommend(context.Background(), "demo", tt.limit)
			if err != nil {
				t.Fatalf("Recommend() error = %v", err)
			}
			if res.Source != SourceFallback {
				t.Errorf("Source = %q, want fallback", res.Source)
			}
			if len(res.Recommendations) != tt.want {
				t.Fatalf("len = %d, want %d", len(res.Recommendations), tt.want)
			}
			if first := res.Recommendations[0].Track; first.ID != "fallback-7" || first.MoodMatch != 75 {
				t.Errorf("first = %s (%d), want energetic ordering", first.ID, first.MoodMatch)
			}
			for i := 1; i < len(res.Recommendations); i++ {
				if res.Recommendations[i].Track.MoodMatch > res.Recommendations[i-1].Track.MoodMatch {
					t.Errorf("not sorted at %d", i)
				}
			}
		})
	}
}

type staticClassifier string

func (c staticClassifier) Classify(context.Context, string) ([]byte, error) {
	return []byte(c), nil
}

func TestRecommend_FreeFormMood(t *testing.T) {
	const resp = `{"mood":"reflective","confidence":70,"factors":["Quiet evening"],
		"description":"You seem reflective.",
		"recommendations":{"energyLevel":"medium","musicGenres":["ambient"],"tempo":"medium","valence":"medium"}}`
	engine := mood.NewEngine(mood.WithClassifier(staticClassifier(resp)), mood.WithLogger(logging.NewTestLogger(io.Discard)))

	t.Run("catalog uses default targets", func(t *testing.T) {
		store := newStore(t)
		seedEnergetic(t, store)
		cat := &fakeCatalog{candidates: []matching.Candidate{candidate("a", 0.5, 0.5)}}

		res, err := newOrchestrator(store, engine, WithCatalog(cat)).Recommend(context.Background(), "demo", 5)
		if err != nil {
			t.Fatalf("Recommend() error = %v", err)
		}
		if res.Analysis.Analysis.Mood != "reflective" || res.Analysis.Source != mood.SourceAI {
			t.Errorf("analysis = %+v", res.Analysis)
		}
		want := matching.Features{Energy: 0.5, Valence: 0.5, Danceability: 0.5, Tempo: 120}
		if cat.got.Target != want {
			t.Errorf("Target = %+v, want %+v", cat.got.Target, want)
		}
		if res.Source != SourceCatalog || len(res.Recommendations) != 1 {
			t.Errorf("result = %s with %d tracks", res.Source, len(res.Recommendations))
		}
	})

	t.Run("fallback uses default ordering", func(t *testing.T) {
		store := newStore(t)
		seedEnergetic(t, store)

		res, err := newOrchestrator(store, engine).Recommend(context.Background(), "demo", 3)
		if err != nil {
			t.Fatalf("Recommend() error = %v", err)
		}
		got := []string{res.Recommendations[0].Track.ID, res.Recommendations[1].Track.ID, res.Recommendations[2].Track.ID}
		want := []string{"fallback-1", "fallback-3", "fallback-2"}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("order = %v, want %v", got, want)
			}
		}
		if f := res.Recommendations[0].Track.AudioFeatures; f.Energy != 0.5 || f.Valence != 0.5 {
			t.Errorf("features = %+v, want neutral", f)
		}
	})
}

func TestNormalizeLimit(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, DefaultLimit},
		{-1, DefaultLimit},
		{7, 7},
		{50, 50},
		{200, catalog.MaxLimit},
	}
	for _, tt := range tests {
		if got := normalizeLimit(tt.in); got != tt.want {
			t.Errorf("normalizeLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestAnalyze(t *testing.T) {
	store := newStore(t)
	o := newOrchestrator(store, mood.NewEngine())

	if _, err := o.LatestAnalysis(context.Background(), "demo"); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("LatestAnalysis() error = %v, want ErrNotFound", err)
	}
	if _, err := o.Analyze(context.Background(), "demo"); !errors.Is(err, ErrNoHealthData) {
		t.Errorf("Analyze() error = %v, want ErrNoHealthData", err)
	}

	seedEnergetic(t, store)
	a, err := o.Analyze(context.Background(), "demo")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if a.ID == uuid.Nil || a.Analysis.Confidence != 85 {
		t.Errorf("analysis = %+v", a)
	}

	all, err := o.Analyses(context.Background(), "demo", 10)
	if err != nil || len(all) != 1 {
		t.Errorf("Analyses() = %v, %v", all, err)
	}
}

func TestRecordInteraction(t *testing.T) {
	store := newStore(t)
	seedEnergetic(t, store)
	o := newOrchestrator(store, mood.NewEngine())

	res, err := o.Recommend(context.Background(), "demo", 3)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	recID := res.Recommendations[0].ID

	tests := []struct {
		name    string
		in      db.Interaction
		wantErr error
	}{
		{"liked", db.Interaction{UserID: "demo", RecommendationID: recID, Action: db.ActionLiked}, nil},
		{"bad action", db.Interaction{UserID: "demo", RecommendationID: recID, Action: "loved"}, ErrInvalidAction},
		{"unknown recommendation", db.Interaction{UserID: "demo", RecommendationID: uuid.New(), Action: db.ActionPlayed}, db.ErrNotFound},
		{"another user's recommendation", db.Interaction{UserID: "other", RecommendationID: recID, Action: db.ActionPlayed}, db.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.in
			err := o.RecordInteraction(context.Background(), &in)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("RecordInteraction() error = %v", err)
				}
				if in.ID == uuid.Nil || !in.CreatedAt.Equal(fixedNow) {
					t.Errorf("interaction = %+v", in)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("RecordInteraction() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestProfileSkipsDisliked(t *testing.T) {
	store := newStore(t)
	seedEnergetic(t, store)
	o := newOrchestrator(store, mood.NewEngine())

	res, err := o.Recommend(context.Background(), "demo", 10)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	before, err := o.Profile(context.Background(), "demo")
	if err != nil {
		t.Fatalf("Profile() error = %v", err)
	}
	if before.TotalTracks != 10 {
		t.Errorf("TotalTracks = %d, want 10", before.TotalTracks)
	}

	in := &db.Interaction{UserID: "demo", RecommendationID: res.Recommendations[0].ID, Action: db.ActionDisliked}
	if err := o.RecordInteraction(context.Background(), in); err != nil {
		t.Fatalf("RecordInteraction() error = %v", err)
	}

	after, err := o.Profile(context.Background(), "demo")
	if err != nil {
		t.Fatalf("Profile() error = %v", err)
	}
	if after.TotalTracks != 9 {
		t.Errorf("TotalTracks = %d, want 9 after dislike", after.TotalTracks)
	}
}

func TestPreferences(t *testing.T) {
	store := newStore(t)
	defaults := mood.Preferences{MusicGenres: []string{"pop"}}
	o := newOrchestrator(store, mood.NewEngine(), WithDefaultPreferences(defaults))

	got, err := o.Preferences(context.Background(), "demo")
	if err != nil {
		t.Fatalf("Preferences() error = %v", err)
	}
	if len(got.MusicGenres) != 1 || got.MusicGenres[0] != "pop" {
		t.Errorf("defaults = %+v", got)
	}

	updated := mood.Preferences{MusicGenres: []string{"jazz", "blues"}, HealthGoals: []string{"reduce_stress"}}
	user, err := o.UpdatePreferences(context.Background(), "demo", updated)
	if err != nil {
		t.Fatalf("UpdatePreferences() error = %v", err)
	}
	if user.ID != "demo" || user.CreatedAt.IsZero() {
		t.Errorf("user = %+v", user)
	}

	got, err = o.Preferences(context.Background(), "demo")
	if err != nil {
		t.Fatalf("Preferences() error = %v", err)
	}
	if len(got.MusicGenres) != 2 || got.MusicGenres[0] != "jazz" {
		t.Errorf("stored = %+v", got)
	}
}

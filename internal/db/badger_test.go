package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/justestif/go-moodtune/internal/health"
	"github.com/justestif/go-moodtune/internal/matching"
	"github.com/justestif/go-moodtune/internal/mood"
)

func setupBadgerStore(t *testing.T) *BadgerStore {
	t.Helper()

	opts := badger.DefaultOptions(t.TempDir())
	opts.Logger = nil

	bdb, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("Failed to open BadgerDB: %v", err)
	}
	t.Cleanup(func() { bdb.Close() })

	return NewBadgerStore(bdb)
}

func TestBadgerStore_User(t *testing.T) {
	s := setupBadgerStore(t)
	ctx := context.Background()

	if _, err := s.GetUser(ctx, "demo"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetUser() error = %v, want ErrNotFound", err)
	}

	u := &User{ID: "demo", DisplayName: "Demo", Preferences: mood.Preferences{MusicGenres: []string{"pop"}}}
	if err := s.UpsertUser(ctx, u); err != nil {
		t.Fatalf("UpsertUser() error = %v", err)
	}
	created := u.CreatedAt

	u2 := &User{ID: "demo", DisplayName: "Renamed"}
	if err := s.UpsertUser(ctx, u2); err != nil {
		t.Fatalf("UpsertUser() error = %v", err)
	}

	got, err := s.GetUser(ctx, "demo")
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if got.DisplayName != "Renamed" {
		t.Errorf("DisplayName = %q, want Renamed", got.DisplayName)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt changed on update: %v -> %v", created, got.CreatedAt)
	}
	if len(got.Preferences.MusicGenres) != 0 {
		t.Errorf("Preferences not replaced: %+v", got.Preferences)
	}
}

func TestBadgerStore_HealthMetrics(t *testing.T) {
	s := setupBadgerStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	metrics := []HealthMetric{
		{UserID: "demo", MetricType: health.HeartRate, Value: 60, Unit: "bpm", Timestamp: base},
		{UserID: "demo", MetricType: health.HeartRate, Value: 72, Unit: "bpm", Timestamp: base.Add(time.Hour)},
		{UserID: "demo", MetricType: health.Steps, Value: 4000, Unit: "steps", Timestamp: base.Add(30 * time.Minute)},
		{UserID: "other", MetricType: health.Steps, Value: 9999, Unit: "steps", Timestamp: base.Add(2 * time.Hour)},
	}
	if err := s.AddHealthMetrics(ctx, metrics); err != nil {
		t.Fatalf("AddHealthMetrics() error = %v", err)
	}
	for _, m := range metrics {
		if m.ID == uuid.Nil {
			t.Error("metric ID not assigned")
		}
	}

	all, err := s.ListHealthMetrics(ctx, "demo", MetricFilter{})
	if err != nil {
		t.Fatalf("ListHealthMetrics() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	if all[0].Value != 72 || all[2].Value != 60 {
		t.Errorf("not newest first: %v, %v, %v", all[0].Value, all[1].Value, all[2].Value)
	}

	hr, err := s.ListHealthMetrics(ctx, "demo", MetricFilter{MetricType: health.HeartRate, Limit: 1})
	if err != nil {
		t.Fatalf("ListHealthMetrics() error = %v", err)
	}
	if len(hr) != 1 || hr[0].Value != 72 {
		t.Errorf("filtered = %+v", hr)
	}

	snap, err := s.LatestByType(ctx, "demo")
	if err != nil {
		t.Fatalf("LatestByType() error = %v", err)
	}
	if len(snap) != 2 {
		t.Fatalf("snapshot len = %d, want 2", len(snap))
	}
	if snap[health.HeartRate].Value != 72 || snap[health.Steps].Value != 4000 {
		t.Errorf("snapshot = %+v", snap)
	}

	empty, err := s.LatestByType(ctx, "nobody")
	if err != nil {
		t.Fatalf("LatestByType() error = %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("snapshot for unknown user = %+v", empty)
	}
}

func TestBadgerStore_TimestampRange(t *testing.T) {
	ok := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		ts      time.Time
		wantErr bool
	}{
		{"epoch", MinTimestamp, false},
		{"last representable", MaxTimestamp, false},
		{"before 1970", time.Date(1969, 12, 31, 23, 0, 0, 0, time.UTC), true},
		{"after 2262", time.Date(2300, 1, 1, 0, 0, 0, 0, time.UTC), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := setupBadgerStore(t)
			ctx := context.Background()

			err := s.AddHealthMetrics(ctx, []HealthMetric{
				{UserID: "demo", MetricType: health.HeartRate, Value: 70, Timestamp: ok},
				{UserID: "demo", MetricType: health.Steps, Value: 100, Timestamp: tt.ts},
			})
			if tt.wantErr != errors.Is(err, ErrTimestampRange) {
				t.Fatalf("AddHealthMetrics() error = %v, wantErr %v", err, tt.wantErr)
			}

			all, err := s.ListHealthMetrics(ctx, "demo", MetricFilter{})
			if err != nil {
				t.Fatalf("ListHealthMetrics() error = %v", err)
			}
			if tt.wantErr && len(all) != 0 {
				t.Errorf("rejected batch stored %d readings", len(all))
			}
			if !tt.wantErr && len(all) != 2 {
				t.Errorf("list = %+v", all)
			}
		})
	}
}

func TestBadgerStore_UserIDsSharingAPrefix(t *testing.T) {
	s := setupBadgerStore(t)
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	for _, user := range []string{"a", "a:b"} {
		if err := s.AddHealthMetrics(ctx, []HealthMetric{{UserID: user, MetricType: health.HeartRate, Value: 70, Timestamp: at}}); err != nil {
			t.Fatalf("AddHealthMetrics(%q) error = %v", user, err)
		}
		a := &MoodAnalysis{UserID: user, CreatedAt: at}
		if err := s.SaveMoodAnalysis(ctx, a); err != nil {
			t.Fatalf("SaveMoodAnalysis(%q) error = %v", user, err)
		}
		recs := []Recommendation{{UserID: user, MoodAnalysisID: a.ID, CreatedAt: at}}
		if err := s.SaveRecommendations(ctx, recs); err != nil {
			t.Fatalf("SaveRecommendations(%q) error = %v", user, err)
		}
		if err := s.SaveInteraction(ctx, &Interaction{UserID: user, RecommendationID: recs[0].ID, Action: ActionLiked, CreatedAt: at}); err != nil {
			t.Fatalf("SaveInteraction(%q) error = %v", user, err)
		}
	}

	metrics, _ := s.ListHealthMetrics(ctx, "a", MetricFilter{})
	analyses, _ := s.ListMoodAnalyses(ctx, "a", 0)
	recs, _ := s.ListRecommendations(ctx, "a", RecommendationFilter{})
	interactions, _ := s.ListInteractions(ctx, "a", 0)

	if len(metrics) != 1 || len(analyses) != 1 || len(recs) != 1 || len(interactions) != 1 {
		t.Fatalf("user a sees metrics=%d analyses=%d recs=%d interactions=%d, want 1 each",
			len(metrics), len(analyses), len(recs), len(interactions))
	}
	if metrics[0].UserID != "a" || analyses[0].UserID != "a" || recs[0].UserID != "a" || interactions[0].UserID != "a" {
		t.Error("user a listed another user's records")
	}
}

func TestBadgerStore_MoodAnalyses(t *testing.T) {
	s := setupBadgerStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	older := &MoodAnalysis{UserID: "demo", Source: mood.SourceHeuristic, Analysis: mood.Analysis{Mood: mood.Calm}, CreatedAt: base}
	newer := &MoodAnalysis{UserID: "demo", Source: mood.SourceAI, Analysis: mood.Analysis{Mood: mood.Energetic}, CreatedAt: base.Add(time.Minute)}
	for _, a := range []*MoodAnalysis{older, newer} {
		if err := s.SaveMoodAnalysis(ctx, a); err != nil {
			t.Fatalf("SaveMoodAnalysis() error = %v", err)
		}
	}

	list, err := s.ListMoodAnalyses(ctx, "demo", 0)
	if err != nil {
		t.Fatalf("ListMoodAnalyses() error = %v", err)
	}
	if len(list) != 2 || list[0].ID != newer.ID {
		t.Fatalf("list = %+v, want newer first", list)
	}

	latest, err := s.ListMoodAnalyses(ctx, "demo", 1)
	if err != nil || len(latest) != 1 {
		t.Fatalf("ListMoodAnalyses(1) = %v, %v", latest, err)
	}

	got, err := s.GetMoodAnalysis(ctx, older.ID)
	if err != nil {
		t.Fatalf("GetMoodAnalysis() error = %v", err)
	}
	if got.Analysis.Mood != mood.Calm || got.Source != mood.SourceHeuristic {
		t.Errorf("got = %+v", got)
	}

	if _, err := s.GetMoodAnalysis(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetMoodAnalysis(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestBadgerStore_Recommendations(t *testing.T) {
	s := setupBadgerStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	first, second := uuid.New(), uuid.New()
	batch := func(analysis uuid.UUID, at time.Time, names ...string) []Recommendation {
		recs := make([]Recommendation, len(names))
		for i, n := range names {
			recs[i] = Recommendation{
				UserID:         "demo",
				MoodAnalysisID: analysis,
				Rank:           i,
				Source:         "catalog",
				Track:          matching.Recommendation{ID: n, Name: n, MoodMatch: 90 - i},
				CreatedAt:      at,
			}
		}
		return recs
	}

	old := batch(first, base, "a", "b", "c")
	recent := batch(second, base.Add(time.Hour), "x", "y")
	if err := s.SaveRecommendations(ctx, old); err != nil {
		t.Fatalf("SaveRecommendations() error = %v", err)
	}
	if err := s.SaveRecommendations(ctx, recent); err != nil {
		t.Fatalf("SaveRecommendations() error = %v", err)
	}

	all, err := s.ListRecommendations(ctx, "demo", RecommendationFilter{})
	if err != nil {
		t.Fatalf("ListRecommendations() error = %v", err)
	}
	var ids []string
	for _, r := range all {
		ids = append(ids, r.Track.ID)
	}
	want := []string{"x", "y", "a", "b", "c"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}

	byRun, err := s.ListRecommendations(ctx, "demo", RecommendationFilter{MoodAnalysisID: first, Limit: 2})
	if err != nil {
		t.Fatalf("ListRecommendations(filter) error = %v", err)
	}
	if len(byRun) != 2 || byRun[0].Track.ID != "a" || byRun[1].Track.ID != "b" {
		t.Errorf("byRun = %+v", byRun)
	}

	got, err := s.GetRecommendation(ctx, old[2].ID)
	if err != nil {
		t.Fatalf("GetRecommendation() error = %v", err)
	}
	if got.Track.ID != "c" || got.MoodAnalysisID != first {
		t.Errorf("got = %+v", got)
	}

	if _, err := s.GetRecommendation(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetRecommendation(unknown) error = %v, want ErrNotFound", err)
	}

	others, err := s.ListRecommendations(ctx, "other", RecommendationFilter{MoodAnalysisID: first})
	if err != nil {
		t.Fatalf("ListRecommendations(other) error = %v", err)
	}
	if len(others) != 0 {
		t.Errorf("other user sees %d recommendations", len(others))
	}
}

func TestBadgerStore_Interactions(t *testing.T) {
	s := setupBadgerStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	recID := uuid.New()
	for i, action := range []string{ActionPlayed, ActionLiked} {
		in := &Interaction{UserID: "demo", RecommendationID: recID, Action: action, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := s.SaveInteraction(ctx, in); err != nil {
			t.Fatalf("SaveInteraction() error = %v", err)
		}
	}

	got, err := s.ListInteractions(ctx, "demo", 10)
	if err != nil {
		t.Fatalf("ListInteractions() error = %v", err)
	}
	if len(got) != 2 || got[0].Action != ActionLiked {
		t.Errorf("got = %+v, want liked first", got)
	}
}

func TestOpenBadgerInMemory(t *testing.T) {
	s, err := OpenBadger("")
	if err != nil {
		t.Fatalf("OpenBadger() error = %v", err)
	}
	defer s.Close()

	if err := s.UpsertUser(context.Background(), &User{ID: "demo"}); err != nil {
		t.Fatalf("UpsertUser() error = %v", err)
	}
}

// Package recommend runs the analyze-then-recommend flow: read the latest
// health snapshot, infer a mood, fetch and rank catalog candidates (or the
// fallback list), and persist everything.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/justestif/go-moodtune/internal/catalog"
	"github.com/justestif/go-moodtune/internal/clustering"
	"github.com/justestif/go-moodtune/internal/db"
	"github.com/justestif/go-moodtune/internal/health"
	"github.com/justestif/go-moodtune/internal/logging"
	"github.com/justestif/go-moodtune/internal/matching"
	"github.com/justestif/go-moodtune/internal/metrics"
	"github.com/justestif/go-moodtune/internal/mood"
)

// DefaultLimit is used when a caller asks for zero or fewer tracks.
const DefaultLimit = 10

// profileHistory bounds how many past recommendations feed the profile.
const profileHistory = 500

// Recommendation sources.
const (
	SourceCatalog  = "catalog"
	SourceFallback = "fallback"
)

var (
	// ErrNoHealthData means the user has no readings to analyze.
	ErrNoHealthData = errors.New("no health data available for mood analysis")
	// ErrInvalidAction is returned for unknown interaction actions.
	ErrInvalidAction = errors.New("invalid interaction action")
)

// Inferer produces a mood analysis. *mood.Engine implements it.
type Inferer interface {
	Infer(ctx context.Context, snap health.Snapshot, prefs *mood.Preferences) mood.Analysis
}

// Result is the outcome of one Recommend call.
type Result struct {
	Analysis        *db.MoodAnalysis    `json:"moodAnalysis"`
	Source          string              `json:"source"`
	Recommendations []db.Recommendation `json:"recommendations"`
}

// Orchestrator coordinates inference, candidate search, ranking and
// persistence.
type Orchestrator struct {
	store    db.Store
	engine   Inferer
	catalog  catalog.Provider
	now      func() time.Time
	log      zerolog.Logger
	defaults mood.Preferences
	profile  clustering.Config
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithCatalog sets the candidate source. Without one every request uses
// the fallback list.
func WithCatalog(p catalog.Provider) Option {
	return func(o *Orchestrator) {
		o.catalog = p
	}
}

// WithClock sets the time source for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// WithLogger sets the orchestrator logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Orchestrator) {
		o.log = l
	}
}

// WithDefaultPreferences sets the preferences used for users that have not
// saved their own.
func WithDefaultPreferences(p mood.Preferences) Option {
	return func(o *Orchestrator) {
		o.defaults = p
	}
}

// WithProfileConfig sets the listening profile clustering parameters.
func WithProfileConfig(cfg clustering.Config) Option {
	return func(o *Orchestrator) {
		o.profile = cfg
	}
}

// New creates an orchestrator.
func New(store db.Store, engine Inferer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:   store,
		engine:  engine,
		now:     time.Now,
		log:     logging.Component("recommend"),
		profile: clustering.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Analyze infers and persists the user's current mood.
func (o *Orchestrator) Analyze(ctx context.Context, userID string) (*db.MoodAnalysis, error) {
	prefs, err := o.Preferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	return o.analyze(ctx, userID, &prefs)
}

func (o *Orchestrator) analyze(ctx context.Context, userID string, prefs *mood.Preferences) (*db.MoodAnalysis, error) {
	snap, err := o.store.LatestByType(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading health snapshot: %w", err)
	}
	if snap.Empty() {
		return nil, ErrNoHealthData
	}

	a := o.engine.Infer(ctx, snap, prefs)
	metrics.MoodInferences.WithLabelValues(a.Source).Inc()

	record := &db.MoodAnalysis{
		UserID:         userID,
		Source:         a.Source,
		Analysis:       a,
		HealthSnapshot: snap,
		CreatedAt:      o.now().UTC(),
	}
	if err := o.store.SaveMoodAnalysis(ctx, record); err != nil {
		return nil, fmt.Errorf("saving mood analysis: %w", err)
	}

	o.log.Info().
		Str("user", userID).
		Str("mood", a.Mood).
		Float64("confidence", a.Confidence).
		Str("source", a.Source).
		Msg("mood analyzed")
	return record, nil
}

// Recommend analyzes the user's mood and returns up to limit ranked tracks.
// Only ErrNoHealthData and persistence errors are returned; catalog
// failures switch to the fallback list.
func (o *Orchestrator) Recommend(ctx context.Context, userID string, limit int) (*Result, error) {
	limit = normalizeLimit(limit)

	prefs, err := o.Preferences(ctx, userID)
	if err != nil {
		return nil, err
	}

	analysis, err := o.analyze(ctx, userID, &prefs)
	if err != nil {
		return nil, err
	}

	tracks, source := o.candidates(ctx, analysis.Analysis, &prefs, limit)

	// One timestamp per batch; Rank keeps the order
	createdAt := o.now().UTC()
	recs := make([]db.Recommendation, len(tracks))
	for i, t := range tracks {
		recs[i] = db.Recommendation{
			UserID:         userID,
			MoodAnalysisID: analysis.ID,
			Rank:           i,
			Source:         source,
			Track:          t,
			CreatedAt:      createdAt,
		}
	}
	if err := o.store.SaveRecommendations(ctx, recs); err != nil {
		return nil, fmt.Errorf("saving recommendations: %w", err)
	}
	metrics.RecordRecommendations(source, len(recs))

	return &Result{
		Analysis:        analysis,
		Source:          source,
		Recommendations: recs,
	}, nil
}

func (o *Orchestrator) candidates(ctx context.Context, a mood.Analysis, prefs *mood.Preferences, limit int) ([]matching.Recommendation, string) {
	if o.catalog == nil {
		return catalog.Fallback(a.Mood, limit), SourceFallback
	}

	req := catalog.SearchRequest{
		SeedGenres: matching.SelectGenres(a, prefs),
		Target:     matching.MapMoodToTargets(a),
		Limit:      limit,
	}
	found, err := o.catalog.Search(ctx, req)
	if err != nil {
		o.log.Warn().Err(err).Str("mood", a.Mood).Msg("catalog search failed, using fallback tracks")
		return catalog.Fallback(a.Mood, limit), SourceFallback
	}
	if len(found) == 0 {
		o.log.Info().Strs("genres", req.SeedGenres).Msg("catalog returned no tracks, using fallback tracks")
		return catalog.Fallback(a.Mood, limit), SourceFallback
	}

	ranked := matching.Rank(a, found)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, SourceCatalog
}

// Analyses returns up to limit past analyses, newest first.
func (o *Orchestrator) Analyses(ctx context.Context, userID string, limit int) ([]db.MoodAnalysis, error) {
	analyses, err := o.store.ListMoodAnalyses(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing mood analyses: %w", err)
	}
	return analyses, nil
}

// LatestAnalysis returns the newest analysis or db.ErrNotFound.
func (o *Orchestrator) LatestAnalysis(ctx context.Context, userID string) (*db.MoodAnalysis, error) {
	analyses, err := o.Analyses(ctx, userID, 1)
	if err != nil {
		return nil, err
	}
	if len(analyses) == 0 {
		return nil, db.ErrNotFound
	}
	return &analyses[0], nil
}

// Recommendations returns persisted recommendations, optionally only those
// produced for one analysis (uuid.Nil for all).
func (o *Orchestrator) Recommendations(ctx context.Context, userID string, analysisID uuid.UUID) ([]db.Recommendation, error) {
	recs, err := o.store.ListRecommendations(ctx, userID, db.RecommendationFilter{MoodAnalysisID: analysisID})
	if err != nil {
		return nil, fmt.Errorf("listing recommendations: %w", err)
	}
	return recs, nil
}

// RecordInteraction stores a user's reaction to one of their recommendations.
func (o *Orchestrator) RecordInteraction(ctx context.Context, in *db.Interaction) error {
	switch in.Action {
	case db.ActionLiked, db.ActionDisliked, db.ActionPlayed, db.ActionSkipped:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidAction, in.Action)
	}

	rec, err := o.store.GetRecommendation(ctx, in.RecommendationID)
	if err != nil {
		return fmt.Errorf("loading recommendation: %w", err)
	}
	if rec.UserID != in.UserID {
		return fmt.Errorf("loading recommendation: %w", db.ErrNotFound)
	}

	if in.CreatedAt.IsZero() {
		in.CreatedAt = o.now().UTC()
	}
	if err := o.store.SaveInteraction(ctx, in); err != nil {
		return fmt.Errorf("saving interaction: %w", err)
	}
	return nil
}

// Profile clusters the user's recommendation history, leaving out tracks
// they disliked.
func (o *Orchestrator) Profile(ctx context.Context, userID string) (clustering.Profile, error) {
	recs, err := o.store.ListRecommendations(ctx, userID, db.RecommendationFilter{Limit: profileHistory})
	if err != nil {
		return clustering.Profile{}, fmt.Errorf("listing recommendations: %w", err)
	}
	interactions, err := o.store.ListInteractions(ctx, userID, 0)
	if err != nil {
		return clustering.Profile{}, fmt.Errorf("listing interactions: %w", err)
	}

	disliked := make(map[uuid.UUID]bool)
	for _, in := range interactions {
		if in.Action == db.ActionDisliked {
			disliked[in.RecommendationID] = true
		}
	}

	tracks := make([]clustering.Track, 0, len(recs))
	for _, r := range recs {
		if disliked[r.ID] {
			continue
		}
		tracks = append(tracks, clustering.Track{
			ID:            r.Track.ID,
			Name:          r.Track.Name,
			Artist:        r.Track.Artist,
			Features:      r.Track.AudioFeatures,
			RecommendedAt: r.CreatedAt,
		})
	}
	return clustering.BuildProfile(tracks, o.profile), nil
}

// Preferences returns the user's saved preferences, or the defaults when
// the user has none.
func (o *Orchestrator) Preferences(ctx context.Context, userID string) (mood.Preferences, error) {
	user, err := o.store.GetUser(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		return o.defaults, nil
	}
	if err != nil {
		return mood.Preferences{}, fmt.Errorf("loading user: %w", err)
	}
	return user.Preferences, nil
}

// UpdatePreferences replaces the user's preferences, creating the user if
// needed.
func (o *Orchestrator) UpdatePreferences(ctx context.Context, userID string, prefs mood.Preferences) (*db.User, error) {
	user, err := o.store.GetUser(ctx, userID)
	switch {
	case errors.Is(err, db.ErrNotFound):
		user = &db.User{ID: userID}
	case err != nil:
		return nil, fmt.Errorf("loading user: %w", err)
	}

	user.Preferences = prefs
	if err := o.store.UpsertUser(ctx, user); err != nil {
		return nil, fmt.Errorf("saving user: %w", err)
	}
	return user, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return min(limit, catalog.MaxLimit)
}

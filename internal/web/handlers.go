package web

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/justestif/go-moodtune/internal/clustering"
	"github.com/justestif/go-moodtune/internal/db"
	"github.com/justestif/go-moodtune/internal/health"
	"github.com/justestif/go-moodtune/internal/mood"
	"github.com/justestif/go-moodtune/internal/recommend"
)

// Trigger requests an out-of-band scheduler run. *scheduler.Scheduler
// implements it.
type Trigger interface {
	Trigger() bool
}

// Handlers contains HTTP handlers for the API. Every request acts on the
// configured user.
type Handlers struct {
	orch   *recommend.Orchestrator
	store  db.Store
	sched  Trigger
	userID string
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(orch *recommend.Orchestrator, store db.Store, sched Trigger, userID string) *Handlers {
	return &Handlers{
		orch:   orch,
		store:  store,
		sched:  sched,
		userID: userID,
	}
}

// Healthz reports liveness (GET /healthz).
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type healthMetricRequest struct {
	DeviceType string     `json:"deviceType"`
	MetricType string     `json:"metricType" validate:"required,max=64"`
	Value      *float64   `json:"value" validate:"required"`
	Unit       string     `json:"unit"`
	Timestamp  *time.Time `json:"timestamp" validate:"omitempty,storetime"`
}

// AddHealthMetric stores one reading (POST /api/health/metrics).
func (h *Handlers) AddHealthMetric(w http.ResponseWriter, r *http.Request) {
	var req healthMetricRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	m := db.HealthMetric{
		UserID:     h.userID,
		DeviceType: req.DeviceType,
		MetricType: req.MetricType,
		Value:      *req.Value,
		Unit:       req.Unit,
		Timestamp:  time.Now().UTC(),
	}
	if m.Unit == "" {
		m.Unit = health.DefaultUnit(m.MetricType)
	}
	if req.Timestamp != nil {
		m.Timestamp = req.Timestamp.UTC()
	}

	metrics := []db.HealthMetric{m}
	if err := h.store.AddHealthMetrics(r.Context(), metrics); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, metrics[0])
}

// ListHealthMetrics returns readings, newest first
// (GET /api/health/metrics?type=&limit=).
func (h *Handlers) ListHealthMetrics(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 100)
	if err != nil {
		respondError(w, r, err)
		return
	}

	metrics, err := h.store.ListHealthMetrics(r.Context(), h.userID, db.MetricFilter{
		MetricType: r.URL.Query().Get("type"),
		Limit:      limit,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	if metrics == nil {
		metrics = []db.HealthMetric{}
	}
	respondJSON(w, http.StatusOK, metrics)
}

// LatestHealthMetrics returns the newest reading per type
// (GET /api/health/metrics/latest).
func (h *Handlers) LatestHealthMetrics(w http.ResponseWriter, r *http.Request) {
	snap, err := h.store.LatestByType(r.Context(), h.userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// ListMoodAnalyses returns past analyses (GET /api/mood/analysis?limit=).
func (h *Handlers) ListMoodAnalyses(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 20)
	if err != nil {
		respondError(w, r, err)
		return
	}

	analyses, err := h.orch.Analyses(r.Context(), h.userID, limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if analyses == nil {
		analyses = []db.MoodAnalysis{}
	}
	respondJSON(w, http.StatusOK, analyses)
}

// LatestMoodAnalysis returns the newest analysis (GET /api/mood/analysis/latest).
func (h *Handlers) LatestMoodAnalysis(w http.ResponseWriter, r *http.Request) {
	a, err := h.orch.LatestAnalysis(r.Context(), h.userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}

// AnalyzeMood runs a new analysis (POST /api/mood/analyze).
func (h *Handlers) AnalyzeMood(w http.ResponseWriter, r *http.Request) {
	a, err := h.orch.Analyze(r.Context(), h.userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, a)
}

// ListRecommendations returns stored recommendations
// (GET /api/music/recommendations?moodAnalysisId=).
func (h *Handlers) ListRecommendations(w http.ResponseWriter, r *http.Request) {
	var analysisID uuid.UUID
	if raw := r.URL.Query().Get("moodAnalysisId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(w, r, fmt.Errorf("%w: invalid moodAnalysisId", errBadRequest))
			return
		}
		analysisID = id
	}

	recs, err := h.orch.Recommendations(r.Context(), h.userID, analysisID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if recs == nil {
		recs = []db.Recommendation{}
	}
	respondJSON(w, http.StatusOK, recs)
}

// CreateRecommendations analyzes the current mood and recommends tracks
// (POST /api/music/recommendations?limit=).
func (h *Handlers) CreateRecommendations(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", recommend.DefaultLimit)
	if err != nil {
		respondError(w, r, err)
		return
	}

	res, err := h.orch.Recommend(r.Context(), h.userID, limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, res)
}

type profileResponse struct {
	clustering.Profile
	Summary string `json:"summary"`
}

// Profile returns the listening profile (GET /api/music/profile).
func (h *Handlers) Profile(w http.ResponseWriter, r *http.Request) {
	p, err := h.orch.Profile(r.Context(), h.userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if p.Clusters == nil {
		p.Clusters = []clustering.Cluster{}
	}
	respondJSON(w, http.StatusOK, profileResponse{Profile: p, Summary: clustering.FormatProfile(p)})
}

type interactionRequest struct {
	RecommendationID uuid.UUID `json:"recommendationId" validate:"required"`
	Action           string    `json:"action" validate:"required"`
}

// RecordInteraction stores a reaction to a recommendation
// (POST /api/music/interaction).
func (h *Handlers) RecordInteraction(w http.ResponseWriter, r *http.Request) {
	var req interactionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	in := &db.Interaction{
		UserID:           h.userID,
		RecommendationID: req.RecommendationID,
		Action:           req.Action,
	}
	if err := h.orch.RecordInteraction(r.Context(), in); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, in)
}

// GetPreferences returns the user's music preferences (GET /api/user/preferences).
func (h *Handlers) GetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.orch.Preferences(r.Context(), h.userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, prefs)
}

type preferencesRequest struct {
	MusicGenres     []string            `json:"musicGenres" validate:"max=20,dive,required,max=64"`
	HealthGoals     []string            `json:"healthGoals" validate:"max=20,dive,required,max=64"`
	MoodPreferences map[string][]string `json:"moodPreferences"`
}

// UpdatePreferences replaces the user's preferences (PUT /api/user/preferences).
func (h *Handlers) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req preferencesRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	user, err := h.orch.UpdatePreferences(r.Context(), h.userID, mood.Preferences{
		MusicGenres:     req.MusicGenres,
		HealthGoals:     req.HealthGoals,
		MoodPreferences: req.MoodPreferences,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user.Preferences)
}

// TriggerRun asks the scheduler for an immediate run (POST /api/scheduler/run).
func (h *Handlers) TriggerRun(w http.ResponseWriter, r *http.Request) {
	if h.sched == nil {
		respondJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "scheduler disabled"})
		return
	}
	if !h.sched.Trigger() {
		respondJSON(w, http.StatusConflict, errorResponse{Error: "run already pending"})
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "scheduled"})
}

package mood

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/justestif/go-moodtune/internal/health"
	"github.com/justestif/go-moodtune/internal/logging"
)

// Classifier sends a prompt to an inference backend and returns the raw
// response text.
type Classifier interface {
	Classify(ctx context.Context, prompt string) ([]byte, error)
}

// Engine infers moods. The zero value is not usable; call NewEngine.
type Engine struct {
	classifier Classifier
	now        func() time.Time
	log        zerolog.Logger
	onFallback func(reason error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithClassifier sets the primary classifier. Without one the engine only
// runs the heuristic.
func WithClassifier(c Classifier) Option {
	return func(e *Engine) {
		e.classifier = c
	}
}

// WithClock sets the time source used for prompt timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithLogger sets the engine logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithFallbackHook registers fn to be called with the cause each time the
// classifier result is discarded in favor of the heuristic.
func WithFallbackHook(fn func(reason error)) Option {
	return func(e *Engine) {
		e.onFallback = fn
	}
}

// NewEngine creates an engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		now: time.Now,
		log: logging.Component("mood"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// HasClassifier reports whether a primary classifier is configured.
func (e *Engine) HasClassifier() bool {
	return e.classifier != nil
}

// Infer classifies the snapshot. It never fails: classifier errors and
// malformed responses are logged and the heuristic result is returned.
// The classifier is tried once.
func (e *Engine) Infer(ctx context.Context, snap health.Snapshot, prefs *Preferences) Analysis {
	if e.classifier == nil {
		return Fallback(snap)
	}

	a, err := e.classify(ctx, snap, prefs)
	if err != nil {
		event := e.log.Warn().Err(err)
		var de *DecodeError
		if errors.As(err, &de) {
			event = event.Str("raw", truncate(de.Raw, 200))
		}
		event.Msg("mood classifier failed, using heuristic")
		if e.onFallback != nil {
			e.onFallback(err)
		}
		return Fallback(snap)
	}
	return a
}

func (e *Engine) classify(ctx context.Context, snap health.Snapshot, prefs *Preferences) (Analysis, error) {
	raw, err := e.classifier.Classify(ctx, BuildPrompt(snap, prefs, e.now()))
	if err != nil {
		return Analysis{}, fmt.Errorf("%w: %w", ErrInferenceBackend, err)
	}

	a, err := Decode(raw)
	if err != nil {
		return Analysis{}, err
	}

	a.Confidence = ClampConfidence(a.Confidence)
	if a.Factors == nil {
		a.Factors = []string{}
	}
	a.Source = SourceAI
	return a, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

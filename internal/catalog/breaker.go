package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/justestif/go-moodtune/internal/logging"
	"github.com/justestif/go-moodtune/internal/matching"
	"github.com/justestif/go-moodtune/internal/metrics"
)

// BreakerSettings tunes the circuit breaker.
type BreakerSettings struct {
	Name        string
	MaxRequests uint32        // requests allowed while half-open
	Interval    time.Duration // closed-state count reset period
	Timeout     time.Duration // open duration before half-open
	MinRequests uint32        // requests observed before tripping is considered
	FailureRate float64       // trip at or above this ratio
}

// DefaultBreakerSettings returns settings for the Spotify breaker.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Name:        "spotify",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		MinRequests: 3,
		FailureRate: 0.6,
	}
}

// BreakerProvider wraps a provider with a circuit breaker. While the
// circuit is open searches fail fast with ErrProvider.
type BreakerProvider struct {
	next Provider
	cb   *gobreaker.CircuitBreaker[[]matching.Candidate]
	name string
	log  zerolog.Logger
}

// NewBreakerProvider wraps next.
func NewBreakerProvider(next Provider, s BreakerSettings) *BreakerProvider {
	log := logging.Component("catalog").With().Str("breaker", s.Name).Logger()

	metrics.CircuitBreakerState.WithLabelValues(s.Name).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]matching.Candidate](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= s.FailureRate
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
		// Cancellation by the caller says nothing about provider health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &BreakerProvider{next: next, cb: cb, name: s.Name, log: log}
}

// Search runs the wrapped search through the breaker.
func (b *BreakerProvider) Search(ctx context.Context, req SearchRequest) ([]matching.Candidate, error) {
	start := time.Now()
	out, err := b.cb.Execute(func() ([]matching.Candidate, error) {
		return b.next.Search(ctx, req)
	})
	metrics.RecordCatalogSearch(time.Since(start))

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
			return nil, fmt.Errorf("%w: %w", ErrProvider, err)
		}
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		if !errors.Is(err, ErrProvider) {
			err = fmt.Errorf("%w: %w", ErrProvider, err)
		}
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	return out, nil
}

// State returns the current breaker state.
func (b *BreakerProvider) State() gobreaker.State {
	return b.cb.State()
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// Package scheduler runs periodic mood analysis and recommendation for the
// configured user. Runs never overlap: a tick or trigger that arrives while
// a run is in flight is dropped.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/justestif/go-moodtune/internal/logging"
	"github.com/justestif/go-moodtune/internal/metrics"
	"github.com/justestif/go-moodtune/internal/recommend"
)

// Common errors.
var (
	ErrAlreadyStarted = errors.New("scheduler already started")
)

// DefaultInterval is the time between automatic runs.
const DefaultInterval = 30 * time.Minute

// DefaultLimit is the number of tracks requested per run.
const DefaultLimit = 10

// Trigger kinds reported on events.
const (
	TriggerTick   = "tick"
	TriggerManual = "manual"
)

// Runner performs one analysis-and-recommend cycle. *recommend.Orchestrator
// implements it.
type Runner interface {
	Recommend(ctx context.Context, userID string, limit int) (*recommend.Result, error)
}

// Event reports the outcome of one run or one dropped request.
type Event struct {
	Trigger   string
	Skipped   bool // dropped because a run was in flight
	StartedAt time.Time
	Duration  time.Duration
	Mood      string
	Source    string
	Tracks    int
	Err       error
}

// Scheduler owns the periodic run loop. The zero value is not usable; call New.
type Scheduler struct {
	runner   Runner
	userID   string
	limit    int
	interval time.Duration
	clock    Clock
	log      zerolog.Logger

	trigger chan struct{}
	events  chan Event
	running atomic.Bool
	wg      sync.WaitGroup

	mu     sync.Mutex
	cancel context.CancelFunc
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithInterval sets the time between automatic runs.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		s.interval = d
	}
}

// WithLimit sets how many tracks each run requests.
func WithLimit(n int) Option {
	return func(s *Scheduler) {
		s.limit = n
	}
}

// WithClock sets the clock, mainly for tests.
func WithClock(c Clock) Option {
	return func(s *Scheduler) {
		s.clock = c
	}
}

// WithLogger sets the scheduler logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Scheduler) {
		s.log = l
	}
}

// WithEventBuffer sets the capacity of the Events channel. Events are
// dropped when the buffer is full.
func WithEventBuffer(n int) Option {
	return func(s *Scheduler) {
		s.events = make(chan Event, n)
	}
}

// New creates a scheduler for userID.
func New(runner Runner, userID string, opts ...Option) *Scheduler {
	s := &Scheduler{
		runner:   runner,
		userID:   userID,
		limit:    DefaultLimit,
		interval: DefaultInterval,
		clock:    realClock{},
		log:      logging.Component("scheduler"),
		trigger:  make(chan struct{}, 1),
		events:   make(chan Event, 16),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Events delivers run outcomes.
func (s *Scheduler) Events() <-chan Event {
	return s.events
}

// Start launches the run loop. It returns immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	ticker := s.clock.NewTicker(s.interval)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer ticker.Stop()
		s.loop(ctx, ticker)
	}()

	s.log.Info().Dur("interval", s.interval).Str("user", s.userID).Msg("scheduler started")
	return nil
}

// Stop cancels the loop and waits for any in-flight run to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
	s.log.Info().Msg("scheduler stopped")
}

// Trigger requests a run outside the interval. It reports false if a
// request is already pending.
func (s *Scheduler) Trigger() bool {
	select {
	case s.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

func (s *Scheduler) loop(ctx context.Context, ticker Ticker) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			s.dispatch(ctx, TriggerTick)
		case <-s.trigger:
			s.dispatch(ctx, TriggerManual)
		}
	}
}

func (s *Scheduler) dispatch(ctx context.Context, trigger string) {
	if !s.running.CompareAndSwap(false, true) {
		metrics.SchedulerRuns.WithLabelValues("skipped").Inc()
		s.log.Debug().Str("trigger", trigger).Msg("run in flight, dropping request")
		s.publish(Event{Trigger: trigger, Skipped: true, StartedAt: s.clock.Now()})
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.running.Store(false)
		s.publish(s.run(ctx, trigger))
	}()
}

func (s *Scheduler) run(ctx context.Context, trigger string) Event {
	ev := Event{Trigger: trigger, StartedAt: s.clock.Now()}

	res, err := s.runner.Recommend(ctx, s.userID, s.limit)
	ev.Duration = s.clock.Now().Sub(ev.StartedAt)

	switch {
	case errors.Is(err, recommend.ErrNoHealthData):
		ev.Err = err
		metrics.SchedulerRuns.WithLabelValues("skipped").Inc()
		s.log.Info().Str("trigger", trigger).Msg("no health data yet, skipping run")
	case err != nil:
		ev.Err = err
		metrics.SchedulerRuns.WithLabelValues("error").Inc()
		s.log.Error().Err(err).Str("trigger", trigger).Msg("auto-analysis failed")
	default:
		ev.Mood = res.Analysis.Analysis.Mood
		ev.Source = res.Source
		ev.Tracks = len(res.Recommendations)
		metrics.SchedulerRuns.WithLabelValues("success").Inc()
		s.log.Info().
			Str("trigger", trigger).
			Str("mood", ev.Mood).
			Int("tracks", ev.Tracks).
			Dur("duration", ev.Duration).
			Msg("auto-analysis complete")
	}
	return ev
}

func (s *Scheduler) publish(ev Event) {
	select {
	case s.events <- ev:
	default:
		s.log.Debug().Str("trigger", ev.Trigger).Msg("event buffer full, dropping event")
	}
}

// Command moodtune serves mood-matched music recommendations from wearable
// health metrics.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/justestif/go-moodtune/internal/auth"
	"github.com/justestif/go-moodtune/internal/catalog"
	"github.com/justestif/go-moodtune/internal/config"
	"github.com/justestif/go-moodtune/internal/db"
	"github.com/justestif/go-moodtune/internal/logging"
	"github.com/justestif/go-moodtune/internal/metrics"
	"github.com/justestif/go-moodtune/internal/mood"
	"github.com/justestif/go-moodtune/internal/openai"
	"github.com/justestif/go-moodtune/internal/recommend"
	"github.com/justestif/go-moodtune/internal/scheduler"
	"github.com/justestif/go-moodtune/internal/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Caller: cfg.Log.Caller,
	})
	log := logging.Component("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	prefs := mood.Preferences{
		MusicGenres: cfg.User.MusicGenres,
		HealthGoals: cfg.User.HealthGoals,
	}
	if err := ensureUser(ctx, store, cfg.User, prefs); err != nil {
		return err
	}

	// Mood engine: OpenAI when a key is configured, heuristic otherwise
	engineOpts := []mood.Option{mood.WithFallbackHook(recordFallback)}
	if cfg.OpenAI.Enabled() {
		engineOpts = append(engineOpts, mood.WithClassifier(openai.NewClient(openai.Config{
			APIKey:      cfg.OpenAI.APIKey,
			BaseURL:     cfg.OpenAI.BaseURL,
			Model:       cfg.OpenAI.Model,
			Temperature: cfg.OpenAI.Temperature,
			MaxTokens:   cfg.OpenAI.MaxTokens,
			Timeout:     cfg.OpenAI.Timeout,
		})))
	} else {
		log.Info().Msg("no OpenAI key configured, using heuristic mood analysis")
	}
	engine := mood.NewEngine(engineOpts...)

	orchOpts := []recommend.Option{recommend.WithDefaultPreferences(prefs)}
	if cfg.Spotify.Enabled() {
		provider, err := newCatalog(ctx, cfg.Spotify)
		if err != nil {
			return err
		}
		orchOpts = append(orchOpts, recommend.WithCatalog(provider))
	} else {
		log.Info().Msg("no Spotify credentials configured, using fallback catalog")
	}
	orch := recommend.New(store, engine, orchOpts...)

	var trigger web.Trigger
	if cfg.Scheduler.Enabled {
		sched := scheduler.New(orch, cfg.User.ID,
			scheduler.WithInterval(cfg.Scheduler.Interval),
			scheduler.WithLimit(cfg.Scheduler.Limit),
		)
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("starting scheduler: %w", err)
		}
		defer sched.Stop()
		trigger = sched
	}

	server := web.NewServer(web.ServerConfig{
		Addr:            cfg.Server.Addr,
		UserID:          cfg.User.ID,
		CORSOrigins:     cfg.Server.CORSOrigins,
		RateLimit:       cfg.Server.RateLimit,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, orch, store, trigger)

	return server.Run(ctx)
}

func openStore(ctx context.Context, cfg config.StoreConfig) (db.Store, error) {
	switch cfg.Driver {
	case "postgres":
		pg, err := db.New(ctx, cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, fmt.Errorf("migrating database: %w", err)
		}
		return pg, nil
	default:
		store, err := db.OpenBadger(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("opening store: %w", err)
		}
		return store, nil
	}
}

// ensureUser creates the configured user on first start. Saved preferences
// are left alone afterwards.
func ensureUser(ctx context.Context, store db.Store, cfg config.UserConfig, prefs mood.Preferences) error {
	_, err := store.GetUser(ctx, cfg.ID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("loading user: %w", err)
	}
	user := &db.User{ID: cfg.ID, DisplayName: cfg.DisplayName, Preferences: prefs}
	if err := store.UpsertUser(ctx, user); err != nil {
		return fmt.Errorf("creating user: %w", err)
	}
	return nil
}

func newCatalog(ctx context.Context, cfg config.SpotifyConfig) (catalog.Provider, error) {
	var opts []auth.Option
	cache, err := tokenCache(cfg.TokenCachePath)
	if err != nil {
		logging.Warn().Err(err).Msg("spotify token cache unavailable")
	} else {
		opts = append(opts, auth.WithTokenCache(cache))
	}

	creds, err := auth.NewCredentialSource(cfg.ClientID, cfg.ClientSecret, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating spotify credentials: %w", err)
	}

	api := catalog.NewSpotifyClient(creds.Client(ctx, cfg.RequestTimeout), "")

	settings := catalog.DefaultBreakerSettings()
	settings.Timeout = cfg.BreakerTimeout
	return catalog.NewBreakerProvider(catalog.NewSpotifyProvider(api, creds), settings), nil
}

func tokenCache(path string) (*auth.TokenCache, error) {
	if path != "" {
		return auth.NewTokenCache(path), nil
	}
	return auth.DefaultTokenCache()
}

func recordFallback(reason error) {
	label := "backend"
	if errors.Is(reason, mood.ErrMalformedResponse) {
		label = "malformed"
	}
	metrics.MoodFallbacks.WithLabelValues(label).Inc()
}

// Package auth obtains and refreshes Spotify app credentials using the
// client credentials grant.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/justestif/go-moodtune/internal/logging"
)

// defaultLeeway refreshes tokens slightly before they expire.
const defaultLeeway = 30 * time.Second

// ErrMissingCredentials is returned when the client ID or secret is empty.
var ErrMissingCredentials = errors.New("missing Spotify client ID or secret")

// CredentialSource holds the current app token and its expiry. Token
// refreshes it synchronously once it has expired.
type CredentialSource struct {
	mu     sync.Mutex
	token  *oauth2.Token
	config *clientcredentials.Config
	cache  *TokenCache
	now    func() time.Time
	leeway time.Duration
	log    zerolog.Logger
}

// Option configures a CredentialSource.
type Option func(*CredentialSource)

// WithTokenURL overrides the token endpoint.
func WithTokenURL(url string) Option {
	return func(s *CredentialSource) {
		s.config.TokenURL = url
	}
}

// WithTokenCache persists tokens to c and seeds the source from it.
func WithTokenCache(c *TokenCache) Option {
	return func(s *CredentialSource) {
		s.cache = c
	}
}

// WithClock sets the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *CredentialSource) {
		s.now = now
	}
}

// NewCredentialSource creates a source for the given app credentials.
// Returns ErrMissingCredentials if either is empty.
func NewCredentialSource(clientID, clientSecret string, opts ...Option) (*CredentialSource, error) {
	if clientID == "" || clientSecret == "" {
		return nil, ErrMissingCredentials
	}

	s := &CredentialSource{
		config: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     spotifyauth.TokenURL,
		},
		now:    time.Now,
		leeway: defaultLeeway,
		log:    logging.Component("auth"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.cache != nil {
		token, err := s.cache.Load()
		if err != nil {
			s.log.Warn().Err(err).Str("path", s.cache.Path()).Msg("ignoring unreadable token cache")
		} else {
			s.token = token
		}
	}

	return s, nil
}

// Token returns a valid access token, fetching a new one if the current
// token is missing or expired.
func (s *CredentialSource) Token(ctx context.Context) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.validLocked() {
		return s.token, nil
	}

	token, err := s.config.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching client credentials token: %w", err)
	}
	s.token = token
	s.log.Debug().Time("expiry", token.Expiry).Msg("refreshed spotify token")

	if s.cache != nil {
		if err := s.cache.Save(token); err != nil {
			s.log.Warn().Err(err).Msg("failed to cache token")
		}
	}
	return token, nil
}

// Expiry returns the expiry of the current token, or the zero time if
// there is none.
func (s *CredentialSource) Expiry() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == nil {
		return time.Time{}
	}
	return s.token.Expiry
}

// Invalidate drops the current token so the next call to Token fetches a
// new one. Used when the API rejects a token before its expiry.
func (s *CredentialSource) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = nil
	if s.cache != nil {
		if err := s.cache.Delete(); err != nil {
			s.log.Warn().Err(err).Msg("failed to delete cached token")
		}
	}
}

// Client returns an HTTP client that asks s for a token on every request,
// so a refresh or Invalidate takes effect immediately.
func (s *CredentialSource) Client(ctx context.Context, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &oauth2.Transport{
			Source: tokenSource{ctx: ctx, src: s},
			Base:   http.DefaultTransport,
		},
	}
}

func (s *CredentialSource) validLocked() bool {
	if s.token == nil || s.token.AccessToken == "" {
		return false
	}
	if s.token.Expiry.IsZero() {
		return true
	}
	return s.now().Add(s.leeway).Before(s.token.Expiry)
}

// tokenSource adapts CredentialSource to oauth2.TokenSource.
type tokenSource struct {
	ctx context.Context
	src *CredentialSource
}

func (t tokenSource) Token() (*oauth2.Token, error) {
	return t.src.Token(t.ctx)
}

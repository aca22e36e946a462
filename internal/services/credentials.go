package services

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songshare/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"

	// tokenSafetyMargin is subtracted from the reported token lifetime.
	tokenSafetyMargin = 60 * time.Second
)

// CredentialCache memoizes an app-only bearer token obtained with the OAuth2 client-credentials grant.
//
// A cached token is reused until its expiry (net of a 60 second margin).
// The mutex guards the cached fields only and is released during the exchange,
// so concurrent refreshes may race and the last writer wins.
type CredentialCache struct {
	config     clientcredentials.Config
	httpClient *http.Client
	now        func() time.Time
	logger     *log.Logger

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewCredentialCache creates a cache for the "client_id" and "client_secret" credentials.
//
// "token_url" defaults to the Spotify accounts endpoint. A nil client uses [http.DefaultClient].
func NewCredentialCache(credentials map[string]string, client *http.Client) (*CredentialCache, error) {
	clientID, err := requireCredential(credentials, "client_id")
	if err != nil {
		return nil, err
	}

	clientSecret, err := requireCredential(credentials, "client_secret")
	if err != nil {
		return nil, err
	}

	if client == nil {
		client = http.DefaultClient
	}

	return &CredentialCache{
		config: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     credentialOr(credentials, "token_url", spotifyTokenURL),
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		httpClient: client,
		now:        time.Now,
		logger:     shared.NewLogger(nil),
	}, nil
}

// SetLogger replaces the cache's logger.
func (c *CredentialCache) SetLogger(l *log.Logger) {
	c.logger = l
}

// SetClock replaces the time source used for expiry checks.
func (c *CredentialCache) SetClock(now func() time.Time) {
	c.now = now
}

// Token returns a valid bearer token, exchanging client credentials when the cached one is missing or expired.
//
// Failures clear the cache and wrap [shared.ErrAuthFailed]. There is no automatic retry.
func (c *CredentialCache) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.token != "" && c.now().Before(c.expiresAt) {
		token := c.token
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	tok, err := c.config.Token(ctx)
	if err != nil || tok == nil || tok.AccessToken == "" {
		c.reset()
		if err == nil {
			err = fmt.Errorf("token response missing access_token")
		}
		c.logger.Error("client-credentials exchange failed", "error", err)
		return "", fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	var lifetime time.Duration
	if !tok.Expiry.IsZero() {
		lifetime = time.Until(tok.Expiry)
	}

	c.mu.Lock()
	c.token = tok.AccessToken
	c.expiresAt = c.now().Add(lifetime - tokenSafetyMargin)
	c.mu.Unlock()

	c.logger.Debug("obtained catalog access token", "lifetime", lifetime.Round(time.Second))
	return tok.AccessToken, nil
}

// ExpiresAt returns when the cached token stops being reused. The zero time means nothing is cached.
func (c *CredentialCache) ExpiresAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expiresAt
}

// Invalidate drops the cached token so the next call to [CredentialCache.Token] performs an exchange.
func (c *CredentialCache) Invalidate() {
	c.reset()
}

func (c *CredentialCache) reset() {
	c.mu.Lock()
	c.token = ""
	c.expiresAt = time.Time{}
	c.mu.Unlock()
}

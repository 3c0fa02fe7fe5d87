package amadeus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"flightbook/pkg/logger"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// exchanger performs one client-credentials exchange against the auth endpoint.
type exchanger interface {
	Exchange(ctx context.Context) (*oauth2.Token, error)
}

type clientCredentialsExchanger struct {
	conf *clientcredentials.Config
}

func (e *clientCredentialsExchanger) Exchange(ctx context.Context) (*oauth2.Token, error) {
	return e.conf.Token(ctx)
}

// TokenCache holds a single cached bearer token and refreshes it on demand.
// The refresh runs under the cache mutex, so concurrent callers arriving
// during an in-flight exchange wait for it instead of triggering their own.
type TokenCache struct {
	mu        sync.Mutex
	exchange  exchanger
	value     string
	expiresAt time.Time
	now       func() time.Time
	logger    logger.Client
}

func NewTokenCache(authURL, clientID, clientSecret string, log logger.Client) *TokenCache {
	conf := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     authURL,
	}
	return &TokenCache{
		exchange: &clientCredentialsExchanger{conf: conf},
		now:      time.Now,
		logger:   log,
	}
}

// GetValidToken returns the cached token while it is still live, otherwise
// performs one blocking exchange and caches the result. A token is treated
// as expired once now >= expiry.
func (t *TokenCache) GetValidToken(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.value != "" && t.now().Before(t.expiresAt) {
		return t.value, nil
	}

	tok, err := t.exchange.Exchange(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthFailure, err)
	}

	t.value = tok.AccessToken
	t.expiresAt = tok.Expiry
	t.logger.Debug("refreshed access token", logger.Field{Key: "expires_at", Value: tok.Expiry.Format(time.RFC3339)})
	return t.value, nil
}

// Invalidate drops the cached token so the next call performs a fresh
// exchange. Used when the upstream rejects a token that looked live.
func (t *TokenCache) Invalidate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.value = ""
	t.expiresAt = time.Time{}
}

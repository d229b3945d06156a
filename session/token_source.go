package session

import (
	"context"
	"net/http"

	"github.com/jrsteele09/farma-console/internal/errors"
	"golang.org/x/oauth2"
)

// managerTokenSource exposes the live session token to oauth2-aware HTTP clients
type managerTokenSource struct {
	m   *Manager
	ctx context.Context
}

// TokenSource returns an oauth2.TokenSource that always reflects the current
// session. It must not be wrapped in oauth2.ReuseTokenSource, which would keep
// serving a token after logout. The context is used for the storage fallback read.
func (m *Manager) TokenSource(ctx context.Context) oauth2.TokenSource {
	return managerTokenSource{m: m, ctx: ctx}
}

func (ts managerTokenSource) Token() (*oauth2.Token, error) {
	token := ts.m.Token(ts.ctx)
	if token == "" {
		return nil, errors.ErrNotLoggedIn
	}

	t := &oauth2.Token{AccessToken: token, TokenType: "Bearer"}
	if s := ts.m.State(); s.AccessToken == token && !s.ExpiresAt.IsZero() {
		t.Expiry = s.ExpiresAt
	} else {
		t.Expiry = expiryFromToken(token)
	}
	return t, nil
}

// HTTPClient returns a client that sends the current session token as a bearer
// on every request. base may be nil for http.DefaultTransport.
func (m *Manager) HTTPClient(ctx context.Context, base http.RoundTripper) *http.Client {
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: m.TokenSource(ctx),
			Base:   base,
		},
	}
}

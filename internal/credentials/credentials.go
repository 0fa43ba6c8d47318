// Package credentials turns configured Webflow credentials into an
// authenticated *http.Client. Every request made through the client carries
// an "Authorization: Bearer <token>" header; refreshable credentials are
// renewed by golang.org/x/oauth2.
package credentials

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// Endpoint is the Webflow OAuth2 authorization server.
var Endpoint = oauth2.Endpoint{
	AuthURL:   "https://webflow.com/oauth/authorize",
	TokenURL:  "https://api.webflow.com/oauth/access_token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// ErrNoCredentials is returned when neither an access token nor a
// refreshable OAuth2 grant is configured.
var ErrNoCredentials = errors.New("no Webflow credentials configured: set an access token or an OAuth2 client with a refresh token")

// Credentials mirrors the fields of a stored Webflow OAuth2 credential.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// OAuth2Config returns the authorization-code configuration for these
// credentials.
func (c Credentials) OAuth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     Endpoint,
		Scopes:       c.Scopes,
	}
}

// TokenSource picks a static source for a bare access token, and a
// refreshing source when a client id and refresh token are present.
func (c Credentials) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	tok := &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    "Bearer",
	}

	switch {
	case c.RefreshToken != "" && c.ClientID != "":
		if c.AccessToken == "" {
			// Force a refresh on first use.
			tok.Expiry = time.Unix(1, 0)
		}
		return c.OAuth2Config().TokenSource(ctx, tok), nil
	case c.AccessToken != "":
		return oauth2.StaticTokenSource(tok), nil
	default:
		return nil, ErrNoCredentials
	}
}

// HTTPClient returns an http.Client that authenticates every request.
// base may be nil, in which case http.DefaultTransport is used.
func (c Credentials) HTTPClient(ctx context.Context, base *http.Client) (*http.Client, error) {
	ts, err := c.TokenSource(ctx)
	if err != nil {
		return nil, err
	}

	client := &http.Client{}
	var transport http.RoundTripper
	if base != nil {
		client.Timeout = base.Timeout
		transport = base.Transport
	}
	client.Transport = &oauth2.Transport{Source: ts, Base: transport}
	return client, nil
}

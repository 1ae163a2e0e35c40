package auth

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ClientCredentials exchanges a client id and secret for a bearer token.
// The token is fetched once in Prepare and reused for the whole run.
type ClientCredentials struct {
	cfg   clientcredentials.Config
	hc    *http.Client
	token string
}

func NewClientCredentials(cfg Config, hc *http.Client) (*ClientCredentials, error) {
	if err := required("client id", cfg.ClientID); err != nil {
		return nil, err
	}
	if err := required("client secret", cfg.ClientSecret); err != nil {
		return nil, err
	}
	if err := required("token url", cfg.TokenURL); err != nil {
		return nil, err
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{DefaultScope}
	}

	return &ClientCredentials{
		cfg: clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       scopes,
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		hc: hc,
	}, nil
}

func (c *ClientCredentials) Prepare(ctx context.Context) error {
	if c.hc != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.hc)
	}

	tok, err := c.cfg.Token(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoToken, err)
	}
	if tok.AccessToken == "" {
		return ErrNoToken
	}

	c.token = tok.AccessToken
	return nil
}

func (c *ClientCredentials) Headers(context.Context) (map[string]string, error) {
	if c.token == "" {
		return nil, ErrNotPrepared
	}

	return map[string]string{
		"Authorization": "Bearer " + c.token,
	}, nil
}

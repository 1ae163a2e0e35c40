// Package auth supplies the authentication headers sent with every vendor
// API request.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const (
	APIKeyMode            Mode = "apikey"
	ClientCredentialsMode Mode = "oauth"

	DefaultScope = "https://api.addons.microsoftedge.microsoft.com/.default"
)

var (
	ErrNotPrepared     = errors.New("credentials have not been prepared")
	ErrNoToken         = errors.New("token response did not contain an access token")
	ErrUnsupportedMode = errors.New("unsupported auth mode")
)

type (
	Mode string

	// Provider is the single capability the rest of the tool sees. Prepare
	// runs once before the first request; Headers is called per request.
	Provider interface {
		Prepare(ctx context.Context) error
		Headers(ctx context.Context) (map[string]string, error)
	}

	Config struct {
		Mode         Mode
		APIKey       string
		ClientID     string
		ClientSecret string
		TokenURL     string
		Scopes       []string
	}
)

// New returns the provider matching cfg.Mode. The http client is only used
// for the token exchange and may be nil.
func New(cfg Config, hc *http.Client) (Provider, error) {
	switch cfg.Mode {
	case APIKeyMode, "":
		return NewStaticKey(cfg.APIKey, cfg.ClientID)
	case ClientCredentialsMode:
		return NewClientCredentials(cfg, hc)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMode, cfg.Mode)
	}
}

func required(name, v string) error {
	if len(strings.TrimSpace(v)) == 0 {
		return fmt.Errorf("%s is required", name)
	}
	return nil
}

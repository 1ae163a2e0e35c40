package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
)

const (
	DefaultTimeout      = 5 * time.Minute
	DefaultRetryWaitMin = 1 * time.Second
	DefaultRetryWaitMax = 30 * time.Second

	maxBodySize = 4 << 20
)

func NewHTTPClient(cfg Config, auth HeaderProvider, logger zerolog.Logger) (Client, error) {
	if strings.TrimSpace(cfg.ServerURL) == "" {
		return nil, fmt.Errorf("api server url is required")
	}
	u, err := url.Parse(cfg.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse api server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api server url must be http or https (got %q)", cfg.ServerURL)
	}
	if strings.TrimSpace(cfg.ProductID) == "" {
		return nil, fmt.Errorf("product id is required")
	}
	if auth == nil {
		return nil, fmt.Errorf("an auth header provider is required")
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.RetryMax
	rc.RetryWaitMin = valueOr(cfg.RetryWaitMin, DefaultRetryWaitMin)
	rc.RetryWaitMax = valueOr(cfg.RetryWaitMax, DefaultRetryWaitMax)
	rc.Logger = leveledLogger{logger}
	// -- hand the last response back instead of an opaque "giving up" error,
	// -- the caller decides what a status code means
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	if cfg.HTTPClient != nil {
		rc.HTTPClient = cfg.HTTPClient
	} else {
		rc.HTTPClient.Timeout = valueOr(cfg.Timeout, DefaultTimeout)
	}

	return &httpClient{
		base:      strings.TrimRight(cfg.ServerURL, "/"),
		productID: url.PathEscape(cfg.ProductID),
		auth:      auth,
		rc:        rc,
		log:       logger,
	}, nil
}

type httpClient struct {
	base      string
	productID string
	auth      HeaderProvider
	rc        *retryablehttp.Client
	log       zerolog.Logger
}

// do sends an authenticated request. Any status code is returned as a
// Response; only transport failures produce an error.
func (c *httpClient) do(ctx context.Context, method, endpoint string, body any, contentType string) (*Response, error) {
	target := fmt.Sprintf("%s/%s", c.base, strings.TrimLeft(endpoint, "/"))

	req, err := retryablehttp.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("unable to create %s request: %w", method, err)
	}

	headers, err := c.auth.Headers(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to get authentication headers: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	c.log.Debug().Str("method", method).Str("url", target).Msg("sending request")

	resp, err := c.rc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("unable to read response body of %s %s: %w", method, target, err)
	}

	c.log.Debug().Str("method", method).Str("url", target).Int("status", resp.StatusCode).Msg("received response")

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       b,
	}, nil
}

func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func valueOr(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

// Package api talks to the vendor distribution REST API.
package api

import (
	"context"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/shono-io/edgeship/sdk"
)

type (
	Config struct {
		ServerURL string
		ProductID string

		// RetryMax is the number of transport-level retries for a single
		// request. Zero disables retries.
		RetryMax     int
		RetryWaitMin time.Duration
		RetryWaitMax time.Duration
		Timeout      time.Duration

		// HTTPClient overrides the underlying client, mostly for tests.
		HTTPClient *http.Client
	}

	// HeaderProvider supplies the authentication headers for each request.
	HeaderProvider interface {
		Headers(ctx context.Context) (map[string]string, error)
	}

	Client interface {
		UploadPackage(ctx context.Context, payload io.ReadSeeker) (*Response, error)
		CreateSubmission(ctx context.Context, notes string) (*Response, error)
		OperationStatus(ctx context.Context, kind sdk.OperationKind, handle sdk.OperationHandle) (*OperationResult, error)
	}

	// Response is the raw outcome of a request, whatever its status code.
	Response struct {
		StatusCode int
		Header     http.Header
		Body       []byte
	}

	OperationResult struct {
		Status sdk.OperationStatus
		Body   []byte
	}

	operationBody struct {
		Status sdk.OperationStatus `json:"status"`
	}

	submissionBody struct {
		Notes string `json:"notes"`
	}
)

// Location extracts the operation handle from the Location header. A
// path-like value yields its last segment.
func (r *Response) Location() (sdk.OperationHandle, bool) {
	loc := strings.TrimSpace(r.Header.Get("Location"))
	if loc == "" {
		return "", false
	}

	if strings.Contains(loc, "/") {
		loc = path.Base(strings.TrimRight(loc, "/"))
		if loc == "." || loc == "/" {
			return "", false
		}
	}

	return sdk.OperationHandle(loc), true
}

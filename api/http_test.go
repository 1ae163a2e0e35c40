package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shono-io/edgeship/sdk"
)

type staticHeaders map[string]string

func (h staticHeaders) Headers(context.Context) (map[string]string, error) {
	return h, nil
}

type failingHeaders struct{}

func (failingHeaders) Headers(context.Context) (map[string]string, error) {
	return nil, errors.New("no token")
}

func newTestClient(t *testing.T, server *httptest.Server, auth HeaderProvider) Client {
	t.Helper()
	c, err := NewHTTPClient(Config{
		ServerURL:  server.URL,
		ProductID:  "prod-1",
		HTTPClient: server.Client(),
	}, auth, zerolog.Nop())
	require.NoError(t, err)
	return c
}

func TestNewHTTPClient_Validation(t *testing.T) {
	auth := staticHeaders{}

	_, err := NewHTTPClient(Config{ProductID: "p"}, auth, zerolog.Nop())
	assert.Error(t, err)

	_, err = NewHTTPClient(Config{ServerURL: "ftp://example.com", ProductID: "p"}, auth, zerolog.Nop())
	assert.Error(t, err)

	_, err = NewHTTPClient(Config{ServerURL: "https://example.com"}, auth, zerolog.Nop())
	assert.Error(t, err)

	_, err = NewHTTPClient(Config{ServerURL: "https://example.com", ProductID: "p"}, nil, zerolog.Nop())
	assert.Error(t, err)

	_, err = NewHTTPClient(Config{ServerURL: "https://example.com", ProductID: "p"}, auth, zerolog.Nop())
	assert.NoError(t, err)
}

func TestUploadPackage(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/products/prod-1/submissions/draft/package", r.URL.Path)
		assert.Equal(t, "application/zip", r.Header.Get("Content-Type"))
		assert.Equal(t, "ApiKey secret", r.Header.Get("Authorization"))
		assert.Equal(t, "client", r.Header.Get("X-ClientID"))
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Location", "op-1")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "ext.zip")
	require.NoError(t, os.WriteFile(path, []byte("PK\x03\x04zip"), 0o644))
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	c := newTestClient(t, server, staticHeaders{"Authorization": "ApiKey secret", "X-ClientID": "client"})
	resp, err := c.UploadPackage(context.Background(), f)
	require.NoError(t, err)

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, []byte("PK\x03\x04zip"), gotBody)

	handle, ok := resp.Location()
	assert.True(t, ok)
	assert.Equal(t, sdk.OperationHandle("op-1"), handle)
}

func TestCreateSubmission(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/products/prod-1/submissions", r.URL.Path)
		assert.Equal(t, "application/json; charset=utf-8", r.Header.Get("Content-Type"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "please review", body["notes"])

		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"nope"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server, staticHeaders{})
	resp, err := c.CreateSubmission(context.Background(), "please review")
	require.NoError(t, err, "a non-202 status is not a transport error")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"message":"nope"}`, string(resp.Body))
}

func TestOperationStatus_Endpoints(t *testing.T) {
	tests := []struct {
		kind sdk.OperationKind
		path string
	}{
		{sdk.PayloadOperation, "/v1/products/prod-1/submissions/draft/package/operations/op-7"},
		{sdk.SubmissionOperation, "/v1/products/prod-1/submissions/operations/op-7"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, tt.path, r.URL.Path)
				_, _ = w.Write([]byte(`{"id":"op-7","status":"Succeeded"}`))
			}))
			defer server.Close()

			c := newTestClient(t, server, staticHeaders{})
			res, err := c.OperationStatus(context.Background(), tt.kind, "op-7")
			require.NoError(t, err)
			assert.Equal(t, sdk.SucceededStatus, res.Status)
			assert.Contains(t, string(res.Body), `"id":"op-7"`)
		})
	}
}

func TestOperationStatus_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/products/prod-1/submissions/operations/garbage" {
			_, _ = w.Write([]byte(`not json`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := newTestClient(t, server, staticHeaders{})

	_, err := c.OperationStatus(context.Background(), sdk.PayloadOperation, "missing")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)

	_, err = c.OperationStatus(context.Background(), sdk.SubmissionOperation, "garbage")
	assert.Error(t, err)

	_, err = c.OperationStatus(context.Background(), "bogus", "op")
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = c.OperationStatus(context.Background(), sdk.PayloadOperation, "")
	assert.ErrorIs(t, err, ErrEmptyHandle)
}

func TestDo_AuthHeaderFailure(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	c := newTestClient(t, server, failingHeaders{})
	_, err := c.CreateSubmission(context.Background(), "notes")
	assert.Error(t, err)
	assert.Zero(t, calls.Load())
}

func TestResponseLocation(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   sdk.OperationHandle
		ok     bool
	}{
		{"plain", "op-1", "op-1", true},
		{"padded", "  op-1 ", "op-1", true},
		{"path", "/v1/products/p/submissions/operations/op-2", "op-2", true},
		{"url", "https://api.example.com/v1/products/p/submissions/draft/package/operations/op-3/", "op-3", true},
		{"empty", "", "", false},
		{"slash", "/", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Response{Header: http.Header{}}
			if tt.header != "" {
				r.Header.Set("Location", tt.header)
			}
			got, ok := r.Location()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

package cmd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shono-io/edgeship/submit"
)

func TestStatusCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "ApiKey key-1" || r.Header.Get("X-ClientID") != "client-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/v1/products/prod-1/submissions/draft/package/operations/op-1":
			_, _ = w.Write([]byte(`{"status":"Succeeded"}`))
		case "/v1/products/prod-1/submissions/operations/op-2":
			_, _ = w.Write([]byte(`{"status":"Failed"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	dir := t.TempDir()
	t.Setenv("HOME", dir)

	envPath := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envPath, []byte(
		"MPC_API_SERVER="+server.URL+"\n"+
			"MPC_PRODUCT_ID=prod-1\n"+
			"MPC_API_KEY=key-1\n"+
			"MPC_CLIENT_ID=client-1\n"), 0o644))
	for _, k := range []string{"MPC_API_SERVER", "MPC_PRODUCT_ID", "MPC_API_KEY", "MPC_CLIENT_ID"} {
		k := k
		t.Cleanup(func() { _ = os.Unsetenv(k) })
	}

	cfgPath := filepath.Join(dir, "edgeship.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("poll:\n  wait_first: false\n  max_checks: 2\n"), 0o644))

	run := func(args ...string) error {
		rootCmd.SetArgs(append(args, "--env-file", envPath, "--config", cfgPath, "--log-level", "error"))
		return rootCmd.ExecuteContext(context.Background())
	}

	assert.NoError(t, run("status", "payload", "op-1"))

	err := run("status", "submission", "op-2")
	assert.ErrorIs(t, err, submit.ErrPoll)
	assert.Equal(t, 5, submit.ExitCode(err))

	err = run("status", "draft", "op-3")
	assert.Error(t, err)
	assert.Equal(t, 1, submit.ExitCode(err))
}

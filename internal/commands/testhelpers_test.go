package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/drmind/mindtalk-cli/internal/appctx"
	"github.com/drmind/mindtalk-cli/internal/auth"
	"github.com/drmind/mindtalk-cli/internal/config"
	"github.com/drmind/mindtalk-cli/internal/output"
)

var testCreds = &auth.Credentials{
	AccessToken:  "access-1",
	RefreshToken: "refresh-1",
	User:         auth.User{ID: "1", Email: "user@example.com", Nickname: "mind"},
}

// setupTestApp builds an app against a fake API. The returned buffer holds
// JSON output. signedIn seeds a stored session.
func setupTestApp(t *testing.T, mux *http.ServeMux, signedIn bool) (*appctx.App, *bytes.Buffer) {
	t.Helper()

	// Disable keyring access during tests
	t.Setenv("MINDTALK_NO_KEYRING", "1")
	t.Setenv("MINDTALK_DEBUG", "")
	t.Setenv("MINDTALK_PASSWORD", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("MINDTALK_CACHE_DIR", t.TempDir())

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.BaseURL = srv.URL

	if signedIn {
		seed := auth.NewStore(cfg.BaseURL, config.GlobalConfigDir())
		require.NoError(t, seed.Save(testCreds))
	}

	app := appctx.NewApp(cfg)
	buf := &bytes.Buffer{}
	app.Stdout = buf
	app.Stderr = io.Discard
	app.Flags.JSON = true
	app.ApplyFlags()
	return app, buf
}

// executeCommand executes a cobra command with the given args.
func executeCommand(cmd *cobra.Command, app *appctx.App, args ...string) error {
	cmd.SetArgs(args)
	cmd.SetContext(appctx.WithApp(context.Background(), app))

	// Suppress cobra's own output during tests
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	return cmd.Execute()
}

func decodeOK(t *testing.T, buf *bytes.Buffer) output.Response {
	t.Helper()
	var resp output.Response
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp), buf.String())
	require.True(t, resp.OK)
	return resp
}

// dataMap returns the response data as a generic map.
func dataMap(t *testing.T, resp output.Response) map[string]any {
	t.Helper()
	m, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data is %T", resp.Data)
	return m
}

func envelope(w http.ResponseWriter, data string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, `{"resultCode":"S-1","msg":"ok","data":`+data+`}`)
}

func readBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		t.Errorf("invalid request body: %v", err)
	}
	return body
}

func requireCode(t *testing.T, err error, code string) *output.Error {
	t.Helper()
	require.Error(t, err)
	e := output.AsError(err)
	require.Equal(t, code, e.Code, e.Message)
	return e
}

package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drmind/mindtalk-cli/internal/appctx"
	"github.com/drmind/mindtalk-cli/internal/auth"
	"github.com/drmind/mindtalk-cli/internal/config"
	"github.com/drmind/mindtalk-cli/internal/output"
)

func TestTransformCobraError(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"flag needs an argument: --host", "--host requires a value"},
		{"unknown flag: --nope", "Unknown option: --nope"},
		{"unknown shorthand flag: 'z' in -z", "Unknown option: -z"},
		{"accepts 1 arg(s), received 0", "accepts 1 arg(s), received 0"},
		{"requires at least 2 arg(s), only received 1", "requires at least 2 arg(s), only received 1"},
		{`required flag(s) "email" not set`, "email required"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			e := output.AsError(transformCobraError(errors.New(tt.in)))
			assert.Equal(t, output.CodeUsage, e.Code)
			assert.Equal(t, tt.want, e.Message)
		})
	}

	plain := errors.New("something else")
	assert.Same(t, plain, transformCobraError(plain))
}

func TestErrorFormat(t *testing.T) {
	root := NewRootCmd()
	pf := root.PersistentFlags()
	assert.Equal(t, output.FormatAuto, errorFormat(pf))

	require.NoError(t, pf.Set("json", "true"))
	assert.Equal(t, output.FormatJSON, errorFormat(pf))

	require.NoError(t, pf.Set("quiet", "true"))
	assert.Equal(t, output.FormatQuiet, errorFormat(pf), "quiet wins")
}

func TestSkipSetup(t *testing.T) {
	assert.True(t, skipSetup(&cobra.Command{Use: "version"}))
	assert.True(t, skipSetup(&cobra.Command{Use: cobra.ShellCompRequestCmd}))
	assert.True(t, skipSetup(&cobra.Command{Use: "completion"}))
	assert.False(t, skipSetup(&cobra.Command{Use: "sessions"}))
}

func TestAllCommandsRegistered(t *testing.T) {
	root := NewRootCmd()
	AddCommands(root)

	for _, name := range []string{"auth", "me", "home", "characters", "counselors", "sessions", "config", "commands", "completion", "version"} {
		found, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, found.Name())
	}
}

// runRoot executes the full command tree against a fake API server.
func runRoot(t *testing.T, handler http.Handler, args ...string) (*bytes.Buffer, *cobra.Command, error) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	t.Setenv("MINDTALK_NO_KEYRING", "1")
	t.Setenv("MINDTALK_DEBUG", "")
	t.Setenv("MINDTALK_BASE_URL", "")
	t.Setenv("MINDTALK_FORMAT", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("MINDTALK_CACHE_DIR", t.TempDir())

	store := auth.NewStore(srv.URL, config.GlobalConfigDir())
	require.NoError(t, store.Save(&auth.Credentials{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		User:         auth.User{ID: "1", Email: "user@example.com", Nickname: "mind"},
	}))

	root := NewRootCmd()
	AddCommands(root)

	var stdout bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{"--host", srv.URL}, args...))

	executed, err := root.ExecuteC()
	return &stdout, executed, err
}

func TestExecuteCharactersJSON(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /characters", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"resultCode":"S-1","msg":"ok","data":[{"id":7,"name":"Luna"}]}`))
	})

	stdout, executed, err := runRoot(t, mux, "--json", "characters")
	require.NoError(t, err)

	var resp output.Response
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, "1 character", resp.Summary)
	assert.NotNil(t, appctx.FromContext(executed.Context()))
}

func TestExecuteBusinessFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /sessions/9", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"resultCode":"F-404","msg":"no such session","data":null}`))
	})

	_, _, err := runRoot(t, mux, "--json", "sessions", "show", "9")
	require.Error(t, err)
	e := output.AsError(err)
	assert.Equal(t, output.CodeBusiness, e.Code)
	assert.Equal(t, "F-404", e.ResultCode)
	assert.Equal(t, output.ExitBusiness, e.ExitCode())
}

func TestExecuteNegativeID(t *testing.T) {
	t.Run("read as a flag", func(t *testing.T) {
		_, _, err := runRoot(t, http.NotFoundHandler(), "--json", "sessions", "show", "-4")
		require.Error(t, err)
		e := output.AsError(transformCobraError(err))
		assert.Equal(t, output.CodeUsage, e.Code)
		assert.Equal(t, "Unknown option: -4", e.Message)
	})

	t.Run("after --", func(t *testing.T) {
		_, _, err := runRoot(t, http.NotFoundHandler(), "--json", "sessions", "show", "--", "-4")
		require.Error(t, err)
		e := output.AsError(transformCobraError(err))
		assert.Equal(t, output.CodeUsage, e.Code)
		assert.Equal(t, `Invalid session ID: "-4"`, e.Message)
	})
}

func TestExecuteVersionSkipsSetup(t *testing.T) {
	_, executed, err := runRoot(t, http.NotFoundHandler(), "version")
	require.NoError(t, err)
	assert.Nil(t, appctx.FromContext(executed.Context()))
}

package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/atlasapi/atlas"
	"github.com/five82/atlasapi/internal/prefs"
	"github.com/five82/atlasapi/internal/prompt"
)

var (
	oldToken = strings.Repeat("a", atlas.TokenLength)
	newToken = strings.Repeat("b", atlas.TokenLength)
)

const objectID = "1132507360113744500"

type harness struct {
	srv        *httptest.Server
	hits       atomic.Int32
	configPath string
	stdout     bytes.Buffer
	stderr     bytes.Buffer
}

// newHarness serves a few endpoints plus auth-token/ and writes a config
// pointing at the server.
func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv(EnvUsername, "")
	t.Setenv(EnvPassword, "")

	h := &harness{}
	h.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.hits.Add(1)
		_ = r.ParseForm()
		switch r.URL.Path {
		case "/api/auth-token/":
			if r.PostForm.Get("username") != "alice" || r.PostForm.Get("password") != "hunter2" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"non_field_errors": ["Unable to log in with provided credentials."]}`))
				return
			}
			_, _ = w.Write([]byte(`{"token": "` + newToken + `"}`))
		case "/api/objects/":
			_, _ = w.Write([]byte(`[{"object": {"id": ` + r.PostForm.Get("objects") + `}}]`))
		case "/api/vratodo/":
			w.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(h.srv.Close)

	h.configPath = filepath.Join(t.TempDir(), "config.yaml")
	body := "token: " + oldToken + "\nbase_url: " + h.srv.URL + "/api\n"
	require.NoError(t, os.WriteFile(h.configPath, []byte(body), 0o600))
	return h
}

func (h *harness) run(t *testing.T, opts Options, args ...string) error {
	t.Helper()
	h.stdout.Reset()
	h.stderr.Reset()
	opts.ConfigPath = h.configPath
	opts.PrefsPath = filepath.Join(t.TempDir(), "prefs.toml")
	opts.Args = args
	opts.Stdout = &h.stdout
	opts.Stderr = &h.stderr
	opts.HTTPClient = h.srv.Client()
	if opts.Prompter == nil {
		opts.Prompter = atlas.PrompterFunc(func(context.Context, string) (atlas.Login, error) {
			return atlas.Login{}, errors.New("unexpected prompt")
		})
	}
	return Run(context.Background(), opts)
}

func TestRun_Usage(t *testing.T) {
	var stderr bytes.Buffer
	err := Run(context.Background(), Options{Stderr: &stderr, Stdout: &bytes.Buffer{}})
	require.ErrorIs(t, err, ErrUsage)
	assert.Contains(t, stderr.String(), "commands:")

	err = Run(context.Background(), Options{Args: []string{"nope"}, Stderr: &stderr, Stdout: &bytes.Buffer{}})
	require.ErrorIs(t, err, ErrUsage)
}

func TestRun_ListsNeedsNoConfig(t *testing.T) {
	var stdout bytes.Buffer
	err := Run(context.Background(), Options{
		ConfigPath: filepath.Join(t.TempDir(), "missing.yaml"),
		Args:       []string{"lists"},
		Stdout:     &stdout,
		Stderr:     &bytes.Buffer{},
	})
	require.NoError(t, err)

	var rows []listRow
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &rows))
	assert.Len(t, rows, atlas.DefaultLists().Len())
	assert.Contains(t, rows, listRow{Name: "vra", ID: 73, Custom: true})
}

func TestRun_ObjectPrintsJSON(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run(t, Options{}, "object", objectID))
	assert.Contains(t, h.stdout.String(), `"id": `+objectID, "large IDs keep every digit")
	assert.EqualValues(t, 1, h.hits.Load())
}

func TestRun_NoContent(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run(t, Options{}, "write-todo", objectID))
	var out map[string]any
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &out))
	assert.Equal(t, "No Content", out["detail"])
}

func TestRun_BadArguments(t *testing.T) {
	h := newHarness(t)

	err := h.run(t, Options{}, "object")
	require.ErrorIs(t, err, ErrUsage)

	err = h.run(t, Options{}, "cone", "-ra", "1")
	require.ErrorIs(t, err, ErrUsage)

	err = h.run(t, Options{}, "object", "123")
	var reqErr *atlas.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Zero(t, h.hits.Load())
}

func TestRun_MissingConfig(t *testing.T) {
	err := Run(context.Background(), Options{
		ConfigPath: filepath.Join(t.TempDir(), "missing.yaml"),
		Args:       []string{"object", objectID},
		Stdout:     &bytes.Buffer{},
		Stderr:     &bytes.Buffer{},
	})
	var cfgErr *atlas.ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestRun_RefreshTokenUsesPrompter(t *testing.T) {
	h := newHarness(t)
	prompted := 0
	opts := Options{Prompter: atlas.PrompterFunc(func(_ context.Context, notice string) (atlas.Login, error) {
		prompted++
		assert.Contains(t, notice, "auth-token/")
		return atlas.Login{Username: "alice", Password: "hunter2"}, nil
	})}

	require.NoError(t, h.run(t, opts, "refresh-token"))
	assert.Equal(t, 1, prompted)
	assert.Contains(t, h.stdout.String(), `"refreshed"`)

	saved, err := atlas.LoadConfig(h.configPath)
	require.NoError(t, err)
	assert.Equal(t, newToken, saved.Token())
}

func TestRun_EnvLoginSkipsPrompt(t *testing.T) {
	h := newHarness(t)
	t.Setenv(EnvUsername, "alice")
	t.Setenv(EnvPassword, "hunter2")

	require.NoError(t, h.run(t, Options{}, "refresh-token"))
	saved, err := atlas.LoadConfig(h.configPath)
	require.NoError(t, err)
	assert.Equal(t, newToken, saved.Token())
}

func TestSplitIDs(t *testing.T) {
	got := splitIDs("a,b", " c ", "", "d,,e")
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, got)
	assert.Empty(t, splitIDs())
}

func TestWriteJSON_Batch(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, &atlas.BatchResult{Items: []any{json.Number("1132507360113744500")}}))
	assert.Equal(t, "[\n  1132507360113744500\n]\n", buf.String())
}

func TestRun_TerminalLoginSavesPrefs(t *testing.T) {
	h := newHarness(t)
	prefsPath := filepath.Join(t.TempDir(), "prefs.toml")

	err := Run(context.Background(), Options{
		ConfigPath: h.configPath,
		PrefsPath:  prefsPath,
		Args:       []string{"refresh-token"},
		Stdin:      strings.NewReader("alice\rhunter2\r"),
		Stdout:     &h.stdout,
		Stderr:     &h.stderr,
		HTTPClient: h.srv.Client(),
	})
	require.NoError(t, err)

	saved, err := prefs.Load(prefsPath)
	require.NoError(t, err)
	assert.Equal(t, prefs.Prefs{Theme: prompt.DefaultTheme, Username: "alice"}, saved)

	raw, err := os.ReadFile(prefsPath)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "hunter2", "passwords are never saved")
}

func TestRun_Themes(t *testing.T) {
	prefsPath := filepath.Join(t.TempDir(), "prefs.toml")
	run := func(args ...string) (themeInfo, error) {
		var stdout bytes.Buffer
		err := Run(context.Background(), Options{
			PrefsPath: prefsPath,
			Args:      args,
			Stdout:    &stdout,
			Stderr:    &bytes.Buffer{},
		})
		var info themeInfo
		if err == nil {
			require.NoError(t, json.Unmarshal(stdout.Bytes(), &info))
		}
		return info, err
	}

	info, err := run("themes")
	require.NoError(t, err)
	assert.Equal(t, prompt.DefaultTheme, info.Current)
	assert.Equal(t, prompt.ThemeNames(), info.Available)

	info, err = run("themes", "-set", "slate")
	require.NoError(t, err)
	assert.Equal(t, "Slate", info.Current)

	saved, err := prefs.Load(prefsPath)
	require.NoError(t, err)
	assert.Equal(t, "Slate", saved.Theme)

	_, err = run("themes", "-set", "neon")
	require.ErrorIs(t, err, ErrUsage)
}

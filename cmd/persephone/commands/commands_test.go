package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type backend struct {
	*httptest.Server
	rated atomic.Int32
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"success","data":{"id":1,"firstName":"Ada","email":"ada@example.com","token":"opaque-token"}}`)
	})
	mux.HandleFunc("GET /api/v1/articles/{slug}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("slug") == "missing" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"status":"fail","data":{"message":"Article not found"}}`)
			return
		}
		_, _ = io.WriteString(w, `{"status":"success","data":{"id":7,"slug":"`+r.PathValue("slug")+`","title":"On Go","body":"Body","likesCount":1,"author":{"firstName":"Ada","lastName":"L"}}}`)
	})
	mux.HandleFunc("POST /api/v1/articles/{id}/ratings", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		b.rated.Add(1)
		_, _ = io.WriteString(w, `{"status":"success","data":{"rating":"4","articleId":7}}`)
	})
	b.Server = httptest.NewServer(mux)
	t.Cleanup(b.Close)
	return b
}

func setup(t *testing.T) *backend {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	b := newBackend(t)
	t.Setenv("PERSEPHONE_CONFIG", "")
	t.Setenv("PERSEPHONE_API_URL", b.URL)
	t.Setenv("PERSEPHONE_DATA_DIR", t.TempDir())
	t.Setenv("PERSEPHONE_SESSION", "bolt")
	t.Setenv("PERSEPHONE_SNAPSHOT_EVERY", "3")
	return b
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCommand()
	var out, errw bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errw)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), errw.String(), err
}

func TestRoot_ShowsHelp(t *testing.T) {
	out, _, err := run(t)
	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "persephone")

	_, _, err = run(t, "--unknown-flag")
	assert.Error(t, err)
}

func TestReadRateAcrossInvocations(t *testing.T) {
	b := setup(t)

	out, errOut, err := run(t, "login", "--email", "ada@example.com", "--password", "secret")
	require.NoError(t, err, errOut)
	assert.Contains(t, out, "Signed in as Ada <ada@example.com>")

	out, errOut, err = run(t, "read", "on-go")
	require.NoError(t, err, errOut)
	assert.Contains(t, out, "On Go")
	assert.Contains(t, out, "Ada L")

	// The open article and the token come back from the journal.
	out, errOut, err = run(t, "rate", "4")
	require.NoError(t, err, errOut)
	assert.Contains(t, out, "You rated this article 4 stars")
	assert.EqualValues(t, 1, b.rated.Load())

	out, _, err = run(t, "state", "readArticle")
	require.NoError(t, err)
	var slice struct {
		Article struct {
			Slug   string `json:"slug"`
			Rating struct {
				Response map[string]any `json:"ratingResponse"`
			} `json:"rating"`
		} `json:"article"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &slice))
	assert.Equal(t, "on-go", slice.Article.Slug)
	assert.NotNil(t, slice.Article.Rating.Response)
	assert.Empty(t, slice.Article.Rating.Response)

	out, errOut, err = run(t, "journal", "--limit", "0")
	require.NoError(t, err)
	assert.Contains(t, errOut, "run default:")
	for _, kind := range []string{"LOGIN_START", "LOGIN_SUCCESS", "GET_SINGLE_ARTICLE_SUCCESS", "RATE_ARTICLE", "CLEAN_UP_RATING"} {
		assert.Contains(t, out, kind)
	}
	assert.Less(t, strings.Index(out, "RATE_ARTICLE "), strings.Index(out, "CLEAN_UP_RATING"))
}

func TestRateRequiresSignIn(t *testing.T) {
	b := setup(t)

	_, _, err := run(t, "read", "on-go")
	require.NoError(t, err)

	_, errOut, err := run(t, "rate", "5")
	require.Error(t, err)
	assert.Contains(t, errOut, "You need to sign in to rate this article")
	assert.Contains(t, errOut, "persephone login")
	assert.Zero(t, b.rated.Load())
}

func TestRateWithoutOpenArticle(t *testing.T) {
	setup(t)
	_, errOut, err := run(t, "rate", "3")
	require.Error(t, err)
	assert.Contains(t, errOut, "No article open")
}

func TestRateRejectsNonNumericStars(t *testing.T) {
	b := setup(t)
	_, errOut, err := run(t, "rate", "five")
	require.Error(t, err)
	assert.Contains(t, errOut, "Invalid rating")
	assert.Zero(t, b.rated.Load())
}

func TestReadMissingArticle(t *testing.T) {
	setup(t)
	_, errOut, err := run(t, "read", "missing")
	require.Error(t, err)
	assert.Contains(t, errOut, "Article not found")
}

func TestLogoutForgetsSession(t *testing.T) {
	setup(t)
	_, _, err := run(t, "login", "--email", "ada@example.com", "--password", "secret")
	require.NoError(t, err)

	out, _, err := run(t, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Not signed in")

	out, _, err = run(t, "state", "user")
	require.NoError(t, err)
	assert.Contains(t, out, `"isAuthenticated": false`)
}

func TestThemeToggles(t *testing.T) {
	setup(t)
	out, _, err := run(t, "theme")
	require.NoError(t, err)
	assert.Contains(t, out, "dark theme")

	out, _, err = run(t, "theme", "--show")
	require.NoError(t, err)
	assert.Contains(t, out, "dark theme")

	out, _, err = run(t, "theme")
	require.NoError(t, err)
	assert.Contains(t, out, "light theme")
}

func TestStateUnknownKey(t *testing.T) {
	setup(t)
	_, errOut, err := run(t, "state", "nope")
	require.Error(t, err)
	assert.Contains(t, errOut, "readArticle")
}

func TestInvalidConfig(t *testing.T) {
	setup(t)
	t.Setenv("PERSEPHONE_SESSION", "cookie")
	_, errOut, err := run(t, "theme")
	require.Error(t, err)
	assert.Contains(t, errOut, "Invalid configuration")
}

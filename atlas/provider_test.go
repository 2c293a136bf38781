package atlas

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/api/auth-token/" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		_ = r.ParseForm()
		if r.PostForm.Get("username") != "alice" || r.PostForm.Get("password") != "hunter2" {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

var alice = Login{Username: "alice", Password: "hunter2"}

func TestExchangeLogin_Success(t *testing.T) {
	srv, hits := authServer(t, http.StatusOK, `{"token": "`+tokenB+`"}`)

	tok, err := ExchangeLogin(context.Background(), srv.Client(), srv.URL+"/api", alice)
	require.NoError(t, err)
	assert.Equal(t, tokenB, tok.String())
	assert.EqualValues(t, 1, hits.Load())
}

func TestExchangeLogin_Failures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"no token", http.StatusOK, `{"other": 1}`, "does not contain a token"},
		{"token not string", http.StatusOK, `{"token": 12}`, "not a string"},
		{"short token", http.StatusOK, `{"token": "abc"}`, "40 characters"},
		{"bad credentials", http.StatusBadRequest, `{"non_field_errors": ["Unable to log in with provided credentials."]}`, "Unable to log in"},
		{"no username", http.StatusBadRequest, `{"username": ["This field may not be blank."]}`, "no username"},
		{"no password", http.StatusBadRequest, `{"password": ["This field may not be blank."]}`, "no password"},
		{"other 400", http.StatusBadRequest, `{"weird": true}`, "unspecified 400"},
		{"server error", http.StatusInternalServerError, `boom`, "status 500: boom"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, hits := authServer(t, tc.status, tc.body)

			_, err := ExchangeLogin(context.Background(), srv.Client(), srv.URL+"/api/", alice)
			var authErr *AuthError
			require.ErrorAs(t, err, &authErr)
			assert.Contains(t, authErr.Error(), tc.want)
			assert.EqualValues(t, 1, hits.Load(), "exchange must not retry")
		})
	}
}

func TestExchangeLogin_BadBaseURL(t *testing.T) {
	_, err := ExchangeLogin(context.Background(), nil, "x.test", alice)
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
}

func TestPasswordProvider(t *testing.T) {
	srv, _ := authServer(t, http.StatusOK, `{"token": "`+tokenB+`"}`)
	p := PasswordProvider{Login: alice, HTTP: srv.Client()}

	tok, err := p.Refresh(context.Background(), srv.URL+"/api/")
	require.NoError(t, err)
	assert.Equal(t, tokenB, tok.String())
}

func TestInteractiveProvider_ShowsAuthURL(t *testing.T) {
	srv, _ := authServer(t, http.StatusOK, `{"token": "`+tokenB+`"}`)
	var notice string
	p := InteractiveProvider{
		HTTP: srv.Client(),
		Prompter: PrompterFunc(func(_ context.Context, n string) (Login, error) {
			notice = n
			return alice, nil
		}),
	}

	tok, err := p.Refresh(context.Background(), srv.URL+"/api/")
	require.NoError(t, err)
	assert.Equal(t, tokenB, tok.String())
	assert.Contains(t, notice, srv.URL+"/api/auth-token/")
}

func TestInteractiveProvider_PromptFailure(t *testing.T) {
	cancelled := errors.New("cancelled")
	p := InteractiveProvider{Prompter: PrompterFunc(func(context.Context, string) (Login, error) {
		return Login{}, cancelled
	})}

	_, err := p.Refresh(context.Background(), "http://x.test/")
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.ErrorIs(t, err, cancelled)
}

func TestInteractiveProvider_NoPrompter(t *testing.T) {
	_, err := InteractiveProvider{}.Refresh(context.Background(), "http://x.test/")
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
}

package atlas

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

const authTokenPath = "auth-token/"

// CredentialProvider obtains a fresh token from the server rooted at baseURL.
// baseURL is already normalised.
type CredentialProvider interface {
	Refresh(ctx context.Context, baseURL string) (Token, error)
}

// Login is a username and password pair used for a single exchange.
type Login struct {
	Username string
	Password string
}

// Prompter collects a Login from a human. notice explains why the prompt is
// shown. Implementations must not echo the password.
type Prompter interface {
	Prompt(ctx context.Context, notice string) (Login, error)
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func(ctx context.Context, notice string) (Login, error)

// Prompt calls f.
func (f PrompterFunc) Prompt(ctx context.Context, notice string) (Login, error) {
	return f(ctx, notice)
}

// RefreshNotice is shown before asking for a username and password.
const RefreshNotice = `Your token has expired, now attempting to automatically refresh it.

You will need to enter your username and password to refresh your token.
These will not be stored or saved anywhere, but if you do not wish to enter
them here, you can refresh your token manually at the endpoint:

    %s

or request a member of staff to do so on your behalf.`

// InteractiveProvider refreshes the token by asking a human for their
// username and password. It blocks for the duration of the prompt.
type InteractiveProvider struct {
	Prompter Prompter
	HTTP     HTTPDoer
}

// Refresh prompts for a login and exchanges it for a new token.
func (p InteractiveProvider) Refresh(ctx context.Context, baseURL string) (Token, error) {
	if p.Prompter == nil {
		return Token{}, authErr("no prompter configured for interactive refresh")
	}
	authURL := baseURL + authTokenPath
	login, err := p.Prompter.Prompt(ctx, fmt.Sprintf(RefreshNotice, authURL))
	if err != nil {
		return Token{}, &AuthError{Msg: "read username and password", Err: err}
	}
	return ExchangeLogin(ctx, p.HTTP, baseURL, login)
}

// PasswordProvider refreshes the token with a fixed login, for deployments
// where nobody is around to answer a prompt.
type PasswordProvider struct {
	Login Login
	HTTP  HTTPDoer
}

// Refresh exchanges the configured login for a new token.
func (p PasswordProvider) Refresh(ctx context.Context, baseURL string) (Token, error) {
	return ExchangeLogin(ctx, p.HTTP, baseURL, p.Login)
}

// ExchangeLogin posts login to {baseURL}auth-token/ once and returns the
// validated token from the response. It never retries.
func ExchangeLogin(ctx context.Context, doer HTTPDoer, baseURL string, login Login) (Token, error) {
	if doer == nil {
		doer = http.DefaultClient
	}
	base, err := NormalizeBaseURL(baseURL)
	if err != nil {
		return Token{}, &AuthError{Msg: "invalid base URL", Err: err}
	}
	form := url.Values{}
	form.Set("username", login.Username)
	form.Set("password", login.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+authTokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, &AuthError{Msg: "create refresh request", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := doer.Do(req)
	if err != nil {
		return Token{}, &AuthError{Msg: "failed to refresh token", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Token{}, &AuthError{Msg: "read refresh response", StatusCode: resp.StatusCode, Err: err}
	}
	return parseRefreshResponse(resp.StatusCode, body)
}

func parseRefreshResponse(status int, body []byte) (Token, error) {
	switch status {
	case http.StatusOK:
		tok := gjson.GetBytes(body, "token")
		if !tok.Exists() {
			return Token{}, &AuthError{Msg: "failed to refresh token, response does not contain a token", StatusCode: status}
		}
		if tok.Type != gjson.String {
			return Token{}, &AuthError{Msg: "failed to refresh token, token is not a string", StatusCode: status}
		}
		return NewToken(tok.String())

	case http.StatusBadRequest:
		if v := gjson.GetBytes(body, "non_field_errors"); v.Exists() {
			return Token{}, &AuthError{Msg: "failed to refresh token: " + fieldMessage(v), StatusCode: status}
		}
		if gjson.GetBytes(body, "username").Exists() {
			return Token{}, &AuthError{Msg: "failed to refresh token: no username was provided", StatusCode: status}
		}
		if gjson.GetBytes(body, "password").Exists() {
			return Token{}, &AuthError{Msg: "failed to refresh token: no password was provided", StatusCode: status}
		}
		return Token{}, &AuthError{Msg: "failed to refresh token, unspecified 400 error: " + strings.TrimSpace(string(body)), StatusCode: status}

	default:
		return Token{}, &AuthError{
			Msg:        fmt.Sprintf("failed to refresh token, status %d: %s", status, strings.TrimSpace(string(body))),
			StatusCode: status,
		}
	}
}

// fieldMessage flattens a Django REST style error field, which is either a
// string or a list of strings.
func fieldMessage(v gjson.Result) string {
	if !v.IsArray() {
		return v.String()
	}
	var parts []string
	for _, item := range v.Array() {
		parts = append(parts, item.String())
	}
	return strings.Join(parts, "; ")
}

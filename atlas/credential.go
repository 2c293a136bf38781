package atlas

import (
	"context"
	"net/http"
	"unicode/utf8"
)

// TokenLength is the exact length of an ATLAS API token.
const TokenLength = 40

// Token is a validated ATLAS API token. The zero value is not usable; build
// one with NewToken.
type Token struct {
	val string
}

// NewToken validates raw and wraps it.
func NewToken(raw string) (Token, error) {
	val, err := validateToken(raw)
	if err != nil {
		return Token{}, err
	}
	return Token{val: val}, nil
}

func validateToken(raw string) (string, error) {
	if raw == "" {
		return "", authErr("candidate token must be a non-empty string")
	}
	if n := utf8.RuneCountInString(raw); n != TokenLength {
		return "", authErr("candidate token must be %d characters long, got %d", TokenLength, n)
	}
	return raw, nil
}

// String returns the raw token value.
func (t Token) String() string { return t.val }

// GoString keeps the value out of %#v output.
func (t Token) GoString() string { return "atlas.Token{[REDACTED]}" }

// Valid reports whether t holds a validated value.
func (t Token) Valid() bool { return utf8.RuneCountInString(t.val) == TokenLength }

// AuthHeader renders the value expected in the Authorization header.
func (t Token) AuthHeader() string { return "Token " + t.val }

// BearerHeader renders t as a bearer credential.
func (t Token) BearerHeader() string { return "Bearer " + t.val }

// QueryParam renders t for use as a query string value.
func (t Token) QueryParam() string { return t.val }

// CookieMap renders t as the cookie mapping the server accepts.
func (t Token) CookieMap() map[string]string { return map[string]string{"token": t.val} }

// Cookie renders t as an HTTP cookie.
func (t Token) Cookie() *http.Cookie { return &http.Cookie{Name: "token", Value: t.val} }

// Refresh asks provider for a fresh token from the server at baseURL and
// replaces t only when the new value validates.
func (t *Token) Refresh(ctx context.Context, baseURL string, provider CredentialProvider) error {
	if provider == nil {
		return authErr("no credential provider configured")
	}
	base, err := NormalizeBaseURL(baseURL)
	if err != nil {
		return &AuthError{Msg: "invalid base URL", Err: err}
	}
	fresh, err := provider.Refresh(ctx, base)
	if err != nil {
		return err
	}
	val, err := validateToken(fresh.val)
	if err != nil {
		return err
	}
	t.val = val
	return nil
}

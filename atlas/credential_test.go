package atlas

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewToken_Length(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		ok   bool
	}{
		{"empty", "", false},
		{"short", strings.Repeat("a", 39), false},
		{"exact", strings.Repeat("a", 40), true},
		{"long", strings.Repeat("a", 41), false},
		{"multibyte", strings.Repeat("é", 40), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tok, err := NewToken(tc.raw)
			if tc.ok {
				require.NoError(t, err)
				assert.Equal(t, tc.raw, tok.String())
				assert.True(t, tok.Valid())
				return
			}
			var authErr *AuthError
			require.ErrorAs(t, err, &authErr)
			assert.ErrorIs(t, err, ErrAtlas)
			assert.False(t, tok.Valid())
		})
	}
}

func TestToken_Renderings(t *testing.T) {
	tok := mustToken(t, tokenA)

	assert.Equal(t, "Token "+tokenA, tok.AuthHeader())
	assert.Equal(t, "Bearer "+tokenA, tok.BearerHeader())
	assert.Equal(t, tokenA, tok.QueryParam())
	assert.Equal(t, map[string]string{"token": tokenA}, tok.CookieMap())

	c := tok.Cookie()
	assert.Equal(t, "token", c.Name)
	assert.Equal(t, tokenA, c.Value)
}

func TestToken_GoStringRedacts(t *testing.T) {
	tok := mustToken(t, tokenA)
	assert.NotContains(t, tok.GoString(), tokenA)
}

func TestToken_RefreshReplacesValue(t *testing.T) {
	tok := mustToken(t, tokenA)
	p := &stubProvider{token: mustToken(t, tokenB)}

	require.NoError(t, tok.Refresh(context.Background(), "http://x.test/api", p))
	assert.Equal(t, tokenB, tok.String())
	assert.Equal(t, []string{"http://x.test/api/"}, p.bases)
}

func TestToken_RefreshKeepsValueOnFailure(t *testing.T) {
	cases := []struct {
		name     string
		base     string
		provider CredentialProvider
	}{
		{"nil provider", "http://x.test/", nil},
		{"empty base", "", &stubProvider{token: mustToken(t, tokenB)}},
		{"relative base", "x.test/api", &stubProvider{token: mustToken(t, tokenB)}},
		{"ftp base", "ftp://x.test/", &stubProvider{token: mustToken(t, tokenB)}},
		{"provider error", "http://x.test/", &stubProvider{err: authErr("denied")}},
		{"invalid new token", "http://x.test/", &stubProvider{token: Token{val: "short"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tok := mustToken(t, tokenA)
			err := tok.Refresh(context.Background(), tc.base, tc.provider)
			var authErr *AuthError
			require.True(t, errors.As(err, &authErr), "err = %v", err)
			assert.Equal(t, tokenA, tok.String())
		})
	}
}

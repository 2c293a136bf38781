package atlas

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

var (
	tokenA = strings.Repeat("A", TokenLength)
	tokenB = strings.Repeat("B", TokenLength)
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

// writeConfig writes a YAML config holding token and baseURL and returns its
// path.
func writeConfig(t *testing.T, token, baseURL string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "token: "+token+"\nbase_url: "+baseURL+"\n")
	return path
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// stubProvider returns a fixed token and records the base URL it was asked
// for.
type stubProvider struct {
	token Token
	err   error
	calls int
	bases []string
}

func (p *stubProvider) Refresh(_ context.Context, baseURL string) (Token, error) {
	p.calls++
	p.bases = append(p.bases, baseURL)
	if p.err != nil {
		return Token{}, p.err
	}
	return p.token, nil
}

func mustToken(t *testing.T, raw string) Token {
	t.Helper()
	tok, err := NewToken(raw)
	require.NoError(t, err)
	return tok
}

// sentCall is one request captured by recordingSender.
type sentCall struct {
	suffix  string
	payload url.Values
}

// recordingSender answers every Send with the next queued response.
type recordingSender struct {
	calls     []sentCall
	responses []*Response
	err       error
}

func (s *recordingSender) Send(_ context.Context, suffix string, payload url.Values) (*Response, error) {
	s.calls = append(s.calls, sentCall{suffix: suffix, payload: payload})
	if s.err != nil {
		return nil, s.err
	}
	if len(s.responses) == 0 {
		return &Response{StatusCode: 200, Raw: []byte("[]"), Data: []any{}}, nil
	}
	resp := s.responses[0]
	if len(s.responses) > 1 {
		s.responses = s.responses[1:]
	}
	return resp, nil
}

func jsonResponse(t *testing.T, status int, body string) *Response {
	t.Helper()
	data, err := decodeBody([]byte(body))
	require.NoError(t, err)
	return &Response{StatusCode: status, Raw: []byte(body), Data: data}
}

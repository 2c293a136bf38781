package atlas

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/five82/atlasapi/internal/prompt"
)

// Server detail strings on 401 responses.
const (
	DetailTokenExpired   = "Token has expired."
	DetailTokenInvalid   = "Invalid token."
	DetailNoCredentials  = "Authentication credentials were not provided."
	defaultUserAgent     = "atlasapi/0.1"
	maxAuthRetries       = 1
	requestIDHeader      = "X-Request-ID"
	formContentType      = "application/x-www-form-urlencoded"
	acceptJSON           = "application/json"
	authorizationHeader  = "Authorization"
	noContentDescription = "No Content"
)

type noContent struct{}

func (noContent) String() string { return noContentDescription }

// NoContent is the Data of a 204 response.
var NoContent any = noContent{}

// Response is the outcome of one HTTP exchange. Raw holds the body as
// received; Data holds the decoded JSON for 200/201 and NoContent for 204.
type Response struct {
	StatusCode int
	Raw        []byte
	Data       any
	RequestID  string
	// PersistErr is set when a token refreshed during this call could not
	// be written back to the config file. The call itself succeeded.
	PersistErr error
}

// IsNoContent reports whether the server answered 204.
func (r *Response) IsNoContent() bool { return r != nil && r.Data == NoContent }

// Decode unmarshals the raw body into v.
func (r *Response) Decode(v any) error {
	if r == nil {
		return requestErr("no response to decode")
	}
	if r.IsNoContent() {
		return &RequestError{StatusCode: r.StatusCode, Msg: "response has no content to decode"}
	}
	if err := json.Unmarshal(r.Raw, v); err != nil {
		return &RequestError{StatusCode: r.StatusCode, Msg: "decode response", Body: r.Raw, Err: err}
	}
	return nil
}

// Executor sends authenticated requests and recovers from an expired or
// rotated token by retrying once. An Executor is not safe for concurrent use;
// run one per goroutine.
type Executor struct {
	cfg       *Config
	token     Token
	baseURL   string
	http      HTTPDoer
	backoff   *Backoff
	provider  CredentialProvider
	prompter  Prompter
	log       logrus.FieldLogger
	notices   io.Writer
	userAgent string

	lastStatus int
	last       *Response
	retries    int
}

// Open loads the config at path and builds an Executor from it.
func Open(path string, opts ...Option) (*Executor, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return NewExecutor(cfg, opts...)
}

// NewExecutor validates the token and base URL held by cfg and returns an
// Executor that owns cfg from here on.
func NewExecutor(cfg *Config, opts ...Option) (*Executor, error) {
	if cfg == nil {
		return nil, configErr("", "config is nil")
	}
	tok, err := NewToken(cfg.Token())
	if err != nil {
		return nil, err
	}
	base, err := cfg.BaseURL()
	if err != nil {
		return nil, err
	}
	e := &Executor{
		cfg:       cfg,
		token:     tok,
		baseURL:   base,
		http:      &http.Client{},
		log:       logrus.StandardLogger(),
		notices:   defaultNoticeWriter(),
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	// the login exchange sends a password and must stay one-shot, so it
	// keeps the plain transport
	plain := e.http
	if e.backoff != nil {
		e.http = NewBackoffClient(*e.backoff, plain)
	}
	if e.provider == nil {
		p := e.prompter
		if p == nil {
			p = terminalPrompter()
		}
		e.provider = InteractiveProvider{Prompter: p, HTTP: plain}
	}
	return e, nil
}

func terminalPrompter() Prompter {
	return PrompterFunc(func(ctx context.Context, notice string) (Login, error) {
		res, err := prompt.Run(ctx, prompt.Options{Notice: notice, Output: os.Stderr})
		if err != nil {
			return Login{}, err
		}
		return Login{Username: res.Username, Password: res.Password}, nil
	})
}

// BaseURL returns the normalised server base URL.
func (e *Executor) BaseURL() string { return e.baseURL }

// Token returns the token currently in use.
func (e *Executor) Token() Token { return e.token }

// Config returns the backing config.
func (e *Executor) Config() *Config { return e.cfg }

// LastStatus returns the status code of the most recent exchange.
func (e *Executor) LastStatus() int { return e.lastStatus }

// LastResponse returns the most recent response, successful or not.
func (e *Executor) LastResponse() *Response { return e.last }

// Retried reports whether the most recent logical call used its retry.
func (e *Executor) Retried() bool { return e.retries > 0 }

type authFailure int

const (
	authOther authFailure = iota
	authExpired
	authInvalid
	authMissing
)

func (a authFailure) String() string {
	switch a {
	case authExpired:
		return "expired"
	case authInvalid:
		return "invalid"
	case authMissing:
		return "missing"
	default:
		return "rejected"
	}
}

func classifyUnauthorized(body []byte) (authFailure, string) {
	detail := gjson.GetBytes(body, "detail").String()
	switch detail {
	case DetailTokenExpired:
		return authExpired, detail
	case DetailTokenInvalid:
		return authInvalid, detail
	case DetailNoCredentials:
		return authMissing, detail
	}
	if detail == "" {
		detail = strings.TrimSpace(string(body))
	}
	return authOther, detail
}

// Send posts payload to {base}{suffix}. 200 and 201 return the decoded body,
// 204 returns NoContent. An expired token is refreshed through the credential
// provider and persisted; an invalid token is reloaded from the config file.
// Either way the request is retried at most once. If a refreshed token
// cannot be saved, the call still completes and the save error is reported
// on Response.PersistErr, or joined to the returned error.
func (e *Executor) Send(ctx context.Context, suffix string, payload url.Values) (*Response, error) {
	requestID := uuid.NewString()
	logger := e.log.WithFields(logrus.Fields{"request_id": requestID, "endpoint": suffix})

	e.retries = 0
	e.last = nil
	e.lastStatus = 0

	// a persist failure is reported with whatever the call returns
	var persistErr error
	fail := func(err error) (*Response, error) {
		if persistErr != nil {
			return nil, errors.Join(err, persistErr)
		}
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		resp, err := e.post(ctx, suffix, payload, requestID)
		if err != nil {
			return fail(err)
		}
		e.last = resp
		e.lastStatus = resp.StatusCode
		logger.WithFields(logrus.Fields{"attempt": attempt, "status": resp.StatusCode}).Debug("atlas response")

		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated:
			data, err := decodeBody(resp.Raw)
			if err != nil {
				return fail(&RequestError{URL: e.endpointURL(suffix), StatusCode: resp.StatusCode, Msg: "decode response", Body: resp.Raw, Err: err})
			}
			if data == nil {
				return fail(&RequestError{URL: e.endpointURL(suffix), StatusCode: resp.StatusCode, Msg: "bad response from the server", Body: resp.Raw})
			}
			resp.Data = data
			resp.PersistErr = persistErr
			return resp, nil

		case http.StatusNoContent:
			resp.Data = NoContent
			resp.PersistErr = persistErr
			return resp, nil

		case http.StatusUnauthorized:
			failure, detail := classifyUnauthorized(resp.Raw)
			switch failure {
			case authExpired, authInvalid:
				if e.retries >= maxAuthRetries {
					e.noticef("The server rejected the token again (%q) after it was %s.\n"+
						"Refresh it manually at %s or ask a member of staff to do so.\n",
						detail, recoveryVerb(failure), e.baseURL+authTokenPath)
					return fail(&AuthError{Msg: fmt.Sprintf("token %s after retry: %s", failure, detail), StatusCode: resp.StatusCode})
				}
				e.retries++
				logger.WithField("reason", failure.String()).Info("atlas token rejected, recovering")
				perr, err := e.recover(ctx, failure)
				if err != nil {
					return nil, err
				}
				if perr != nil {
					logger.WithError(perr).Warn("failed to persist refreshed token")
					persistErr = perr
				}
				continue

			case authMissing:
				e.noticef("The server says no authentication credentials were sent.\n"+
					"Refreshing cannot fix this; check that %s holds a %q entry.\n", e.cfg.Path(), KeyToken)
				return fail(&AuthError{Msg: detail, StatusCode: resp.StatusCode})

			default:
				e.noticef("The server rejected the request as unauthorized (%q).\n"+
					"The token cannot be recovered automatically; refresh it at %s or ask a member of staff.\n",
					detail, e.baseURL+authTokenPath)
				return fail(&AuthError{Msg: "unauthorized: " + detail, StatusCode: resp.StatusCode})
			}

		default:
			return fail(&RequestError{
				URL:        e.endpointURL(suffix),
				StatusCode: resp.StatusCode,
				Msg:        fmt.Sprintf("status code is %d", resp.StatusCode),
				Body:       resp.Raw,
			})
		}
	}
}

func recoveryVerb(f authFailure) string {
	if f == authExpired {
		return "refreshed"
	}
	return "reloaded from disk"
}

// recover fixes the token for the retry. persistErr reports a refreshed
// token that is in use but could not be saved.
func (e *Executor) recover(ctx context.Context, failure authFailure) (persistErr, err error) {
	switch failure {
	case authExpired:
		if err := e.token.Refresh(ctx, e.baseURL, e.provider); err != nil {
			return nil, err
		}
		e.cfg.Set(KeyToken, e.token.String())
		return e.cfg.Persist(), nil

	case authInvalid:
		if err := e.cfg.Reload(); err != nil {
			return nil, err
		}
		tok, err := NewToken(e.cfg.Token())
		if err != nil {
			return nil, err
		}
		base, err := e.cfg.BaseURL()
		if err != nil {
			return nil, err
		}
		e.token = tok
		e.baseURL = base
		return nil, nil
	}
	return nil, authErr("no recovery for %s token", failure)
}

// RefreshToken fetches a new token through the credential provider and
// persists it, without waiting for the server to reject the current one.
// Unlike the automatic path, a persist failure is returned.
func (e *Executor) RefreshToken(ctx context.Context) error {
	if err := e.token.Refresh(ctx, e.baseURL, e.provider); err != nil {
		return err
	}
	e.cfg.Set(KeyToken, e.token.String())
	return e.cfg.Persist()
}

func (e *Executor) endpointURL(suffix string) string {
	return e.baseURL + strings.TrimPrefix(suffix, "/")
}

func (e *Executor) post(ctx context.Context, suffix string, payload url.Values, requestID string) (*Response, error) {
	target := e.endpointURL(suffix)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(payload.Encode()))
	if err != nil {
		return nil, &RequestError{URL: target, Msg: "create request", Err: err}
	}
	req.Header.Set(authorizationHeader, e.token.AuthHeader())
	req.Header.Set("Content-Type", formContentType)
	req.Header.Set("Accept", acceptJSON)
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set(requestIDHeader, requestID)

	resp, err := e.http.Do(req)
	if err != nil {
		return nil, &RequestError{URL: target, Msg: "execute request", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{URL: target, StatusCode: resp.StatusCode, Msg: "read response", Err: err}
	}
	return &Response{StatusCode: resp.StatusCode, Raw: body, RequestID: requestID}, nil
}

// decodeBody keeps numbers as json.Number; ATLAS IDs do not fit a float64.
func decodeBody(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func (e *Executor) noticef(format string, args ...any) {
	_, _ = fmt.Fprintf(e.notices, format, args...)
}

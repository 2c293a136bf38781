package atlas

import (
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
)

// HTTPDoer is the subset of *http.Client the executor needs.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Option customizes an Executor.
type Option func(*Executor)

// WithHTTPClient overrides the HTTP client used for every request.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(e *Executor) {
		if doer != nil {
			e.http = doer
		}
	}
}

// WithCredentialProvider sets how expired tokens are refreshed. It takes
// precedence over WithPrompter.
func WithCredentialProvider(p CredentialProvider) Option {
	return func(e *Executor) {
		if p != nil {
			e.provider = p
		}
	}
}

// WithPrompter keeps interactive refresh but collects the login through p.
func WithPrompter(p Prompter) Option {
	return func(e *Executor) {
		if p != nil {
			e.prompter = p
		}
	}
}

// WithLogger sets the logger. The default is the logrus standard logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Executor) {
		if l != nil {
			e.log = l
		}
	}
}

// WithNoticeWriter sets where user-facing explanations are printed. The
// default is os.Stderr.
func WithNoticeWriter(w io.Writer) Option {
	return func(e *Executor) {
		if w != nil {
			e.notices = w
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(e *Executor) {
		if ua != "" {
			e.userAgent = ua
		}
	}
}

// Backoff configures transport-level retries on 429 and 5xx responses. It is
// independent of the single token-recovery retry.
type Backoff struct {
	MaxRetries int
	WaitMin    time.Duration
	WaitMax    time.Duration
	Timeout    time.Duration
}

// Config keys read by BackoffFromConfig.
const (
	KeyRetryMax       = "retry_max"
	KeyRetryWaitMinMS = "retry_wait_min_ms"
	KeyRetryWaitMaxMS = "retry_wait_max_ms"
)

const (
	defaultRetryWaitMin = 500 * time.Millisecond
	defaultRetryWaitMax = 10 * time.Second
)

// BackoffFromConfig reads the optional retry keys. ok is false when
// retry_max is absent or not positive.
func BackoffFromConfig(c *Config) (b Backoff, ok bool) {
	if c == nil {
		return Backoff{}, false
	}
	maxRetries, err := strconv.Atoi(c.String(KeyRetryMax))
	if err != nil || maxRetries <= 0 {
		return Backoff{}, false
	}
	b = Backoff{MaxRetries: maxRetries, WaitMin: defaultRetryWaitMin, WaitMax: defaultRetryWaitMax}
	if ms, err := strconv.Atoi(c.String(KeyRetryWaitMinMS)); err == nil && ms > 0 {
		b.WaitMin = time.Duration(ms) * time.Millisecond
	}
	if ms, err := strconv.Atoi(c.String(KeyRetryWaitMaxMS)); err == nil && ms > 0 {
		b.WaitMax = time.Duration(ms) * time.Millisecond
	}
	if b.WaitMax < b.WaitMin {
		b.WaitMax = b.WaitMin
	}
	return b, true
}

// WithBackoff routes endpoint requests through a retrying HTTP client built
// on top of the configured one. The auth-token exchange is never retried.
func WithBackoff(b Backoff) Option {
	return func(e *Executor) {
		e.backoff = &b
	}
}

// NewBackoffClient builds an *http.Client that retries 429 and 5xx responses
// from base with exponential backoff, honouring Retry-After. A nil base uses
// the retryablehttp default client.
func NewBackoffClient(b Backoff, base HTTPDoer) *http.Client {
	rc := retryablehttp.NewClient()
	switch d := base.(type) {
	case nil:
	case *http.Client:
		rc.HTTPClient = d
	default:
		rc.HTTPClient = &http.Client{Transport: doerTransport{d}}
	}
	rc.RetryMax = b.MaxRetries
	if b.WaitMin > 0 {
		rc.RetryWaitMin = b.WaitMin
	}
	if b.WaitMax > 0 {
		rc.RetryWaitMax = b.WaitMax
	}
	// keep default CheckRetry; its per-attempt debug lines are too noisy
	rc.Logger = nil
	// hand the final response back so the executor maps its status
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client := rc.StandardClient()
	client.Timeout = b.Timeout
	return client
}

// doerTransport lets an arbitrary HTTPDoer sit under retryablehttp.
type doerTransport struct{ doer HTTPDoer }

func (t doerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.doer.Do(req)
}

func defaultNoticeWriter() io.Writer { return os.Stderr }

package atlas

import (
	"errors"
	"fmt"
)

// ErrAtlas matches every error produced by this package via errors.Is.
var ErrAtlas = errors.New("atlas")

// ConfigError reports a malformed, missing, or unreadable config file.
type ConfigError struct {
	Path string
	Msg  string
	Err  error
}

func (e *ConfigError) Error() string {
	msg := "config"
	if e.Path != "" {
		msg += " " + e.Path
	}
	msg += ": " + e.Msg
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error        { return e.Err }
func (e *ConfigError) Is(target error) bool { return target == ErrAtlas }

// AuthError reports an invalid token, a failed refresh exchange, or a 401 the
// executor could not recover from.
type AuthError struct {
	Msg        string
	StatusCode int
	Err        error
}

func (e *AuthError) Error() string {
	msg := "auth: " + e.Msg
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AuthError) Unwrap() error        { return e.Err }
func (e *AuthError) Is(target error) bool { return target == ErrAtlas }

// RequestError reports a non-2xx, non-401 status, a 2xx body that could not be
// interpreted, an invalid request built by a caller, or a transport failure.
type RequestError struct {
	URL        string
	StatusCode int
	Msg        string
	Body       []byte
	Err        error
}

func (e *RequestError) Error() string {
	msg := "request"
	if e.URL != "" {
		msg += " " + e.URL
	}
	msg += ": " + e.Msg
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RequestError) Unwrap() error        { return e.Err }
func (e *RequestError) Is(target error) bool { return target == ErrAtlas }

func configErr(path, format string, args ...any) *ConfigError {
	return &ConfigError{Path: path, Msg: fmt.Sprintf(format, args...)}
}

func authErr(format string, args ...any) *AuthError {
	return &AuthError{Msg: fmt.Sprintf(format, args...)}
}

func requestErr(format string, args ...any) *RequestError {
	return &RequestError{Msg: fmt.Sprintf(format, args...)}
}

// Package logging configures the process-wide logrus logger for the CLI.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Options selects level, format and destinations.
type Options struct {
	Level  string // logrus level name; default "warn"
	Format string // "text" (default) or "json"
	File   string // optional file appended to alongside Output
	Output io.Writer
}

const defaultLevel = log.WarnLevel

var (
	logMux        sync.Mutex
	logFileHandle *os.File
)

// Setup configures the global logrus logger. It is idempotent and can be
// called multiple times; the most recent call wins. Results are printed on
// stdout, so logs go to stderr unless Output says otherwise.
func Setup(opts Options) (*log.Logger, error) {
	logMux.Lock()
	defer logMux.Unlock()

	level := defaultLevel
	if s := strings.TrimSpace(opts.Level); s != "" {
		parsed, err := log.ParseLevel(s)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		level = parsed
	}

	var formatter log.Formatter
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "text":
		formatter = &log.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339}
	case "json":
		formatter = &log.JSONFormatter{TimestampFormat: time.RFC3339Nano}
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	writers := []io.Writer{out}

	if logFileHandle != nil {
		_ = logFileHandle.Close()
		logFileHandle = nil
	}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		file, err := os.OpenFile(opts.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		logFileHandle = file
		writers = append(writers, file)
	}

	logger := log.StandardLogger()
	logger.SetFormatter(formatter)
	logger.SetLevel(level)
	logger.SetOutput(io.MultiWriter(writers...))
	return logger, nil
}

// Close releases the log file opened by Setup, if any.
func Close() error {
	logMux.Lock()
	defer logMux.Unlock()
	if logFileHandle == nil {
		return nil
	}
	err := logFileHandle.Close()
	logFileHandle = nil
	return err
}

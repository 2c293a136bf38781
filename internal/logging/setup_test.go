package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetStandardLogger(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		_ = Close()
		std := log.StandardLogger()
		std.SetOutput(os.Stderr)
		std.SetLevel(log.InfoLevel)
		std.SetFormatter(&log.TextFormatter{})
	})
}

func TestSetup_JSONFormatAndLevel(t *testing.T) {
	resetStandardLogger(t)
	var buf bytes.Buffer

	logger, err := Setup(Options{Level: "debug", Format: "json", Output: &buf})
	require.NoError(t, err)
	assert.Equal(t, log.DebugLevel, logger.GetLevel())

	logger.WithField("endpoint", "objects/").Debug("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "objects/", entry["endpoint"])
}

func TestSetup_DefaultsToWarn(t *testing.T) {
	resetStandardLogger(t)
	var buf bytes.Buffer

	logger, err := Setup(Options{Output: &buf})
	require.NoError(t, err)

	logger.Info("quiet")
	assert.Empty(t, buf.String())
	logger.Warn("loud")
	assert.Contains(t, buf.String(), "loud")
}

func TestSetup_RejectsBadValues(t *testing.T) {
	resetStandardLogger(t)

	_, err := Setup(Options{Level: "chatty"})
	assert.Error(t, err)

	_, err = Setup(Options{Format: "xml"})
	assert.Error(t, err)
}

func TestSetup_WritesFile(t *testing.T) {
	resetStandardLogger(t)
	path := filepath.Join(t.TempDir(), "logs", "atlas.log")

	logger, err := Setup(Options{Level: "info", File: path, Output: &bytes.Buffer{}})
	require.NoError(t, err)
	logger.Info("to file")
	require.NoError(t, Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}

package atlas

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Required config keys.
const (
	KeyToken   = "token"
	KeyBaseURL = "base_url"
)

// Config is the on-disk key/value store holding the server base URL and the
// API token. Unknown keys are preserved across Persist.
type Config struct {
	path   string
	codec  codec
	values map[string]any
}

// LoadConfig reads and validates the config file at path. Files ending in
// .toml are parsed as TOML, everything else as YAML.
func LoadConfig(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return nil, configErr("", "path is empty")
	}
	c := &Config{path: path, codec: codecFor(path)}
	values, err := c.read()
	if err != nil {
		return nil, err
	}
	c.values = values
	return c, nil
}

// NewConfig builds an in-memory config bound to path without reading it.
// Persist writes it out.
func NewConfig(path string, values map[string]any) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return nil, configErr("", "path is empty")
	}
	c := &Config{path: path, codec: codecFor(path), values: cloneValues(values)}
	if err := validateValues(path, c.values); err != nil {
		return nil, err
	}
	return c, nil
}

// Path returns the backing file path.
func (c *Config) Path() string { return c.path }

// Get returns the raw value stored under key.
func (c *Config) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// String returns the value under key formatted as a string, or "" if absent.
func (c *Config) String(key string) string {
	v, ok := c.values[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Set stores value under key in memory. Nothing is written until Persist.
func (c *Config) Set(key string, value any) {
	if c.values == nil {
		c.values = make(map[string]any)
	}
	c.values[key] = value
}

// Token returns the stored token string, unvalidated.
func (c *Config) Token() string { return c.String(KeyToken) }

// BaseURL returns the stored base URL normalised to end with a slash.
func (c *Config) BaseURL() (string, error) {
	base, err := NormalizeBaseURL(c.String(KeyBaseURL))
	if err != nil {
		return "", &ConfigError{Path: c.path, Msg: "invalid base_url", Err: err}
	}
	return base, nil
}

// Keys returns the stored keys in sorted order.
func (c *Config) Keys() []string {
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Reload re-reads the backing file and replaces the in-memory state. On
// failure the current state is kept.
func (c *Config) Reload() error {
	values, err := c.read()
	if err != nil {
		return err
	}
	c.values = values
	return nil
}

// Persist validates the in-memory state and overwrites the backing file.
func (c *Config) Persist() error {
	if err := validateValues(c.path, c.values); err != nil {
		return err
	}
	data, err := c.codec.marshal(c.values)
	if err != nil {
		return &ConfigError{Path: c.path, Msg: "encode", Err: err}
	}

	dir := filepath.Dir(c.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(c.path)+".*")
	if err != nil {
		return &ConfigError{Path: c.path, Msg: "create temp file", Err: err}
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return &ConfigError{Path: c.path, Msg: "write", Err: err}
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return &ConfigError{Path: c.path, Msg: "chmod", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &ConfigError{Path: c.path, Msg: "close", Err: err}
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		return &ConfigError{Path: c.path, Msg: "replace", Err: err}
	}
	return nil
}

func (c *Config) read() (map[string]any, error) {
	info, err := os.Stat(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, configErr(c.path, "file does not exist")
		}
		return nil, &ConfigError{Path: c.path, Msg: "stat", Err: err}
	}
	if info.IsDir() {
		return nil, configErr(c.path, "is a directory")
	}
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, &ConfigError{Path: c.path, Msg: "read", Err: err}
	}
	values, err := c.codec.unmarshal(data)
	if err != nil {
		return nil, &ConfigError{Path: c.path, Msg: "parse " + c.codec.name, Err: err}
	}
	if values == nil {
		return nil, configErr(c.path, "contents must be a mapping")
	}
	if err := validateValues(c.path, values); err != nil {
		return nil, err
	}
	return values, nil
}

func validateValues(path string, values map[string]any) error {
	if len(values) == 0 {
		return configErr(path, "contents must not be empty")
	}
	if _, ok := values[KeyToken]; !ok {
		return configErr(path, "contents must contain %q", KeyToken)
	}
	raw, ok := values[KeyBaseURL]
	if !ok {
		return configErr(path, "contents must contain %q", KeyBaseURL)
	}
	s, ok := raw.(string)
	if !ok {
		return configErr(path, "%q must be a string", KeyBaseURL)
	}
	if _, err := NormalizeBaseURL(s); err != nil {
		return &ConfigError{Path: path, Msg: "invalid base_url", Err: err}
	}
	return nil
}

// NormalizeBaseURL checks that raw is an absolute http or https URL and makes
// sure it ends with exactly one trailing slash when it had none.
func NormalizeBaseURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("base URL is empty")
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("parse base URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("base URL %q must use http or https", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("base URL %q has no host", raw)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return "", fmt.Errorf("base URL %q must not carry a query or fragment", raw)
	}
	if !strings.HasSuffix(trimmed, "/") {
		trimmed += "/"
	}
	return trimmed, nil
}

type codec struct {
	name      string
	marshal   func(map[string]any) ([]byte, error)
	unmarshal func([]byte) (map[string]any, error)
}

func codecFor(path string) codec {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return tomlCodec
	}
	return yamlCodec
}

var yamlCodec = codec{
	name: "yaml",
	marshal: func(v map[string]any) ([]byte, error) {
		return yaml.Marshal(v)
	},
	unmarshal: func(data []byte) (map[string]any, error) {
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		if doc == nil {
			return map[string]any{}, nil
		}
		values, ok := doc.(map[string]any)
		if !ok {
			return nil, nil
		}
		return values, nil
	},
}

var tomlCodec = codec{
	name: "toml",
	marshal: func(v map[string]any) ([]byte, error) {
		return toml.Marshal(v)
	},
	unmarshal: func(data []byte) (map[string]any, error) {
		values := map[string]any{}
		if err := toml.Unmarshal(data, &values); err != nil {
			return nil, err
		}
		return values, nil
	},
}

func cloneValues(values map[string]any) map[string]any {
	dup := make(map[string]any, len(values))
	for k, v := range values {
		dup[k] = v
	}
	return dup
}

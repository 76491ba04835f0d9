// Package config loads the JSON settings file used by the sysock shell.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/nczempin/sysock/transport"
)

// DefaultPath is read when no -config flag is given. A missing file at
// the default path is not an error.
const DefaultPath = "sysock.json"

// Applied when a timeout field is empty.
const (
	DefaultConnectTimeout = 5 * time.Second
	DefaultReadTimeout    = 10 * time.Second
)

// Config holds transport and shell settings.
type Config struct {
	ConnectTimeout string `json:"connect_timeout"`       // e.g. "5s"
	ReadTimeout    string `json:"read_timeout"`          // per underlying read
	WriteTimeout   string `json:"write_timeout"`         // empty waits without deadline
	BufferSize     int    `json:"buffer_size,omitempty"` // read-ahead capacity
	Backend        string `json:"backend"`               // syscall, iouring or ring
	LogLevel       string `json:"log_level"`             // zap level name
	Terminator     string `json:"terminator"`            // default for readtext

	connectTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	backend        transport.BackendKind
	logLevel       zap.AtomicLevel
}

// Default returns the settings used when no file is present.
func Default() *Config {
	cfg := &Config{
		ConnectTimeout: DefaultConnectTimeout.String(),
		ReadTimeout:    DefaultReadTimeout.String(),
		BufferSize:     transport.DefaultBufferSize,
		Backend:        transport.BackendSyscall.String(),
		LogLevel:       "info",
		Terminator:     "\r\n",
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}

// LoadConfig reads and parses the config file at configPath.
func LoadConfig(configPath string) (*Config, error) {
	explicit := configPath != ""
	if !explicit {
		configPath = DefaultPath
	}

	// Get absolute path for clearer error messages
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", absPath, err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", absPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", absPath, err)
	}
	return cfg, nil
}

// Validate checks the fields and caches their parsed forms.
func (c *Config) Validate() error {
	var err error
	if c.connectTimeout, err = parseDuration("connect_timeout", c.ConnectTimeout, DefaultConnectTimeout); err != nil {
		return err
	}
	if c.readTimeout, err = parseDuration("read_timeout", c.ReadTimeout, DefaultReadTimeout); err != nil {
		return err
	}
	if c.writeTimeout, err = parseDuration("write_timeout", c.WriteTimeout, -1); err != nil {
		return err
	}
	if c.connectTimeout <= 0 {
		return fmt.Errorf("connect_timeout must be positive, got %q", c.ConnectTimeout)
	}
	if c.readTimeout <= 0 {
		return fmt.Errorf("read_timeout must be positive, got %q", c.ReadTimeout)
	}
	if c.BufferSize < 0 {
		return fmt.Errorf("buffer_size must not be negative, got %d", c.BufferSize)
	}
	if c.backend, err = transport.ParseBackendKind(c.Backend); err != nil {
		return err
	}
	if c.logLevel, err = zap.ParseAtomicLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return nil
}

func parseDuration(field, s string, empty time.Duration) (time.Duration, error) {
	if s == "" {
		return empty, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", field, s, err)
	}
	return d, nil
}

func (c *Config) ConnectTimeoutDuration() time.Duration { return c.connectTimeout }

func (c *Config) ReadTimeoutDuration() time.Duration { return c.readTimeout }

func (c *Config) Level() zap.AtomicLevel { return c.logLevel }

// TransportOptions converts the settings into transport options.
func (c *Config) TransportOptions(l *zap.Logger) []transport.Option {
	return []transport.Option{
		transport.WithBackend(c.backend),
		transport.WithBufferSize(c.BufferSize),
		transport.WithWriteTimeout(c.writeTimeout),
		transport.WithLogger(l),
	}
}

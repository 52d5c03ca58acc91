// Package config loads the steprelay configuration file.
//
// The file is YAML (or JSON, by extension) and every key is optional; missing
// keys keep the values from Default. Command-line flags are applied on top by
// the CLI.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/aretw0/steprelay/internal/logging"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the config file used when no path is given.
const EnvConfigPath = "STEPRELAY_CONFIG"

// EnvTraceKey holds the trace encryption key when the config has none.
const EnvTraceKey = "STEPRELAY_TRACE_KEY"

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Config is the full steprelay configuration.
type Config struct {
	LogLevel  string `mapstructure:"log_level" json:"log_level"`
	LogFormat string `mapstructure:"log_format" json:"log_format"`

	Engine   EngineConfig   `mapstructure:"engine" json:"engine"`
	Observer ObserverConfig `mapstructure:"observer" json:"observer"`
	Store    StoreConfig    `mapstructure:"store" json:"store"`
	Server   ServerConfig   `mapstructure:"server" json:"server"`
}

// EngineConfig bounds the producer.
type EngineConfig struct {
	// MaxSteps stops the program after this many steps; 0 means unlimited.
	MaxSteps     uint64        `mapstructure:"max_steps" json:"max_steps"`
	InputTimeout time.Duration `mapstructure:"input_timeout" json:"input_timeout"`
}

// ObserverConfig configures the interactive observer.
type ObserverConfig struct {
	Format    string        `mapstructure:"format" json:"format"` // text or json
	Auto      bool          `mapstructure:"auto" json:"auto"`
	AutoDelay time.Duration `mapstructure:"auto_delay" json:"auto_delay"`
	Record    bool          `mapstructure:"record" json:"record"`
}

// StoreConfig selects where recorded traces go.
type StoreConfig struct {
	Backend     string        `mapstructure:"backend" json:"backend"`
	Path        string        `mapstructure:"path" json:"path"`
	RedisAddr   string        `mapstructure:"redis_addr" json:"redis_addr"`
	RedisPrefix string        `mapstructure:"redis_prefix" json:"redis_prefix"`
	TTL         time.Duration `mapstructure:"ttl" json:"ttl"`

	// EncryptionKey seals recorded traces (32 bytes, hex or base64).
	// $STEPRELAY_TRACE_KEY is used when it is empty.
	EncryptionKey string `mapstructure:"encryption_key" json:"-"`
	// Redact lists regular expressions masked in recorded output and errors.
	Redact []string `mapstructure:"redact" json:"redact,omitempty"`
}

// ServerConfig configures the HTTP observer.
type ServerConfig struct {
	Addr string `mapstructure:"addr" json:"addr"`
	// StepTimeout bounds POST /step?wait=true when no timeout is given.
	StepTimeout time.Duration `mapstructure:"step_timeout" json:"step_timeout"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "text",
		Observer: ObserverConfig{
			Format:    "text",
			AutoDelay: 200 * time.Millisecond,
		},
		Store: StoreConfig{
			Backend:     BackendFile,
			Path:        ".steprelay/traces",
			RedisAddr:   "localhost:6379",
			RedisPrefix: "steprelay:trace:",
		},
		Server: ServerConfig{
			Addr:        ":8080",
			StepTimeout: 30 * time.Second,
		},
	}
}

// Load reads the config file at path over Default. An empty path falls back
// to $STEPRELAY_CONFIG; when that is unset too, Load returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	raw := map[string]any{}
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &raw); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if err := decode(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func decode(raw map[string]any, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

// Validate checks the enumerated fields.
func (c Config) Validate() error {
	var errs []error
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	switch c.Observer.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown observer format %q", c.Observer.Format))
	}
	switch c.Store.Backend {
	case BackendMemory, BackendFile, BackendRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q", c.Store.Backend))
	}
	for _, p := range c.Store.Redact {
		if _, err := regexp.Compile(p); err != nil {
			errs = append(errs, fmt.Errorf("invalid redact pattern: %w", err))
		}
	}
	if c.Engine.InputTimeout < 0 {
		errs = append(errs, errors.New("engine.input_timeout must not be negative"))
	}
	return errors.Join(errs...)
}

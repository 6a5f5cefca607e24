// Package config loads parley settings from flags, environment, an optional
// .env file and an optional config file.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. PARLEY_PROVIDER_MODEL.
const EnvPrefix = "PARLEY"

// Provider drivers.
const (
	DriverREST  = "rest"
	DriverGenAI = "genai"
	DriverEcho  = "echo"
)

// Store drivers.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Config is the decoded configuration.
type Config struct {
	APIKey   string         `mapstructure:"api_key"`
	Prompt   string         `mapstructure:"prompt"`
	Provider ProviderConfig `mapstructure:"provider"`
	Store    StoreConfig    `mapstructure:"store"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
}

type ProviderConfig struct {
	Driver      string        `mapstructure:"driver"`
	Model       string        `mapstructure:"model"`
	BaseURL     string        `mapstructure:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Temperature *float32      `mapstructure:"temperature"`
}

type StoreConfig struct {
	Driver        string        `mapstructure:"driver"`
	Dir           string        `mapstructure:"dir"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	Prefix        string        `mapstructure:"prefix"`
	TTL           time.Duration `mapstructure:"ttl"`

	// EncryptionKey is a base64 AES-256 key. Empty stores snapshots in clear.
	EncryptionKey  string   `mapstructure:"encryption_key"`
	FallbackKeys   []string `mapstructure:"fallback_keys"`
	RedactPatterns []string `mapstructure:"redact_patterns"`
}

// Keys decodes the encryption keys. A nil active key means encryption is off.
func (c StoreConfig) Keys() (active []byte, fallback [][]byte, err error) {
	if c.EncryptionKey == "" {
		return nil, nil, nil
	}
	if active, err = decodeKey(c.EncryptionKey); err != nil {
		return nil, nil, &domain.ConfigurationError{Key: "store.encryption_key", Reason: err.Error()}
	}
	for _, k := range c.FallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, nil, &domain.ConfigurationError{Key: "store.fallback_keys", Reason: err.Error()}
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, errors.New("not valid base64")
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var defaults = map[string]any{
	"api_key":               "",
	"prompt":                domain.DefaultPromptMessage,
	"provider.driver":       DriverREST,
	"provider.model":        "gemini-pro",
	"provider.base_url":     "https://generativelanguage.googleapis.com/v1beta",
	"provider.timeout":      30 * time.Second,
	"store.driver":          StoreMemory,
	"store.dir":             ".parley/sessions",
	"store.redis_addr":      "localhost:6379",
	"store.redis_password":  "",
	"store.redis_db":        0,
	"store.prefix":          "parley:session:",
	"store.ttl":             time.Duration(0),
	"store.encryption_key":  "",
	"store.fallback_keys":   []string{},
	"store.redact_patterns": []string{},
	"server.port":           8080,
	"log.level":             "info",
	"log.format":            "text",
}

// New returns a viper instance with parley defaults and environment bindings.
// The api key also falls back to GEMINI_API_KEY.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, val := range defaults {
		v.SetDefault(key, val)
		_ = v.BindEnv(key)
	}
	_ = v.BindEnv("provider.temperature")
	_ = v.BindEnv("api_key", EnvPrefix+"_API_KEY", "GEMINI_API_KEY")
	return v
}

// LoadDotEnv loads .env files into the process environment. Missing files are
// ignored; existing variables win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads the optional config file, validates the merged settings and
// decodes them. A missing api key is a *domain.ConfigurationError unless the
// offline echo driver is selected.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	cfg, err := Decode(v, configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode is Load without the cross-field checks, for commands that never
// reach the provider.
func Decode(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := ValidateSettings(v.AllSettings()); err != nil {
		return nil, err
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// Validate checks cross-field rules the schema cannot express.
func (c *Config) Validate() error {
	if c.Provider.Driver != DriverEcho && strings.TrimSpace(c.APIKey) == "" {
		return &domain.ConfigurationError{Key: "api_key", Reason: "required (set PARLEY_API_KEY or GEMINI_API_KEY)"}
	}
	if c.Provider.Timeout <= 0 {
		return &domain.ConfigurationError{Key: "provider.timeout", Reason: "must be positive"}
	}
	if c.Store.Driver == StoreRedis && c.Store.RedisAddr == "" {
		return &domain.ConfigurationError{Key: "store.redis_addr", Reason: "required for the redis store"}
	}
	if _, _, err := c.Store.Keys(); err != nil {
		return err
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return &domain.ConfigurationError{Key: "server.port", Reason: fmt.Sprintf("invalid port %d", c.Server.Port)}
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	DefaultSheetName = "WB_Stats_NM_Daily"
	DefaultBaseURL   = "https://docs.google.com/spreadsheets/d"

	// ConfigPathEnvVar overrides the config file location.
	ConfigPathEnvVar = "CONFIG_PATH"
)

var DefaultConfigPaths = []string{"config.yaml", "config.yml", "/etc/wbdash/config.yaml"}

type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Sheets  SheetsConfig  `koanf:"sheets"`
	Breaker BreakerConfig `koanf:"breaker"`
	Cache   CacheConfig   `koanf:"cache"`
	Logging LoggingConfig `koanf:"logging"`
	API     APIConfig     `koanf:"api"`
	Locale  string        `koanf:"locale" validate:"required"`
}

type ServerConfig struct {
	Port              string        `koanf:"port" validate:"required,numeric"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout" validate:"gt=0"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

type SheetsConfig struct {
	BaseURL         string        `koanf:"base_url" validate:"required,url"`
	SheetID         string        `koanf:"sheet_id"`
	SheetName       string        `koanf:"sheet_name" validate:"required"`
	HTTPTimeout     time.Duration `koanf:"http_timeout" validate:"gt=0"`
	RefreshInterval time.Duration `koanf:"refresh_interval" validate:"min=0"`
}

type BreakerConfig struct {
	Enabled     bool          `koanf:"enabled"`
	MaxFailures uint32        `koanf:"max_failures" validate:"gt=0"`
	OpenTimeout time.Duration `koanf:"open_timeout" validate:"gt=0"`
}

type CacheConfig struct {
	Driver string `koanf:"driver" validate:"oneof=badger sqlite memory"`
	Path   string `koanf:"path" validate:"required_unless=Driver memory"`
}

type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

type APIConfig struct {
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`
	// LoadRateLimit is the number of load requests allowed per minute and
	// client IP; 0 disables the limit.
	LoadRateLimit int `koanf:"load_rate_limit" validate:"min=0"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              "8080",
			ReadHeaderTimeout: 10 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Sheets: SheetsConfig{
			BaseURL:     DefaultBaseURL,
			SheetName:   DefaultSheetName,
			HTTPTimeout: 15 * time.Second,
		},
		Breaker: BreakerConfig{
			Enabled:     true,
			MaxFailures: 3,
			OpenTimeout: time.Minute,
		},
		Cache: CacheConfig{
			Driver: "badger",
			Path:   "data/snapshot",
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		API: APIConfig{
			CORSAllowedOrigins: []string{"*"},
			LoadRateLimit:      30,
		},
		Locale: "ru-RU",
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in that order of precedence.
func Load() (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	if v, ok := k.Get("api.cors_allowed_origins").(string); ok {
		if err := k.Set("api.cors_allowed_origins", splitCSV(v)); err != nil {
			return Config{}, fmt.Errorf("set cors origins: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		return p
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envMappings maps the supported environment variables to config keys.
// Anything else in the environment is ignored.
var envMappings = map[string]string{
	"port":                 "server.port",
	"read_header_timeout":  "server.read_header_timeout",
	"shutdown_timeout":     "server.shutdown_timeout",
	"sheets_base_url":      "sheets.base_url",
	"sheet_id":             "sheets.sheet_id",
	"sheet_name":           "sheets.sheet_name",
	"http_timeout":         "sheets.http_timeout",
	"refresh_interval":     "sheets.refresh_interval",
	"breaker_enabled":      "breaker.enabled",
	"breaker_max_failures": "breaker.max_failures",
	"breaker_open_timeout": "breaker.open_timeout",
	"cache_driver":         "cache.driver",
	"cache_path":           "cache.path",
	"log_level":            "logging.level",
	"log_format":           "logging.format",
	"cors_allowed_origins": "api.cors_allowed_origins",
	"load_rate_limit":      "api.load_rate_limit",
	"locale":               "locale",
}

func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

func splitCSV(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v10"
)

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via the config file or the environment.
type AppConfig struct {
	AppPort         string   `env:"APP_PORT"`
	AppURL          string   `env:"APP_URL"`
	APIPrefix       string   `env:"API_PREFIX"`
	GinMode         string   `env:"GIN_MODE"`
	AllowedOrigins  []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	MetricsDisabled bool     `env:"METRICS_DISABLED"`
	// Database
	DBDriver    string `env:"DB_DRIVER"`
	DatabaseURI string `env:"DATABASE_URI"`
	DBHost      string `env:"DB_HOST"`
	DBPort      string `env:"DB_PORT"`
	DBUser      string `env:"DB_USER"`
	DBPassword  string `env:"DB_PASSWORD"`
	DBName      string `env:"DB_NAME"`
	// Redis backs the rate-limit counters and the post cache. Empty host disables it.
	RedisHost     string `env:"REDIS_HOST"`
	RedisPort     int    `env:"REDIS_PORT"`
	RedisDB       int    `env:"REDIS_DB"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	// Logging configuration
	LogLevel      string `env:"LOG_LEVEL"`
	LogPath       string `env:"LOG_PATH"`
	LogMaxSizeMB  int    `env:"LOG_MAX_SIZE_MB"`
	LogMaxBackups int    `env:"LOG_MAX_BACKUPS"`
	LogMaxAgeDays int    `env:"LOG_MAX_AGE_DAYS"`
	LogCompress   bool   `env:"LOG_COMPRESS"`

	AppLimits  AppLimits
	RateLimits RateLimits
}

// AppLimits caps table sizes and the per-user listing page size. A zero or absent value in
// the file selects the default; an environment variable set to 0 is kept and closes the table.
type AppLimits struct {
	MaxUsers        int `json:"max_users" env:"MAX_USERS"`
	MaxPosts        int `json:"max_posts" env:"MAX_POSTS"`
	MaxComments     int `json:"max_comments" env:"MAX_COMMENTS"`
	PaginationLimit int `json:"pagination_limit" env:"PAGINATION_LIMIT"`
}

// RateLimitPolicy is a fixed window quota.
type RateLimitPolicy struct {
	Attempts      int `json:"attempts" env:"ATTEMPTS"`
	WindowSeconds int `json:"window_seconds" env:"WINDOW_SECONDS"`
}

// RateLimits holds the named throttle policies.
type RateLimits struct {
	Auth RateLimitPolicy `json:"auth" envPrefix:"RATE_LIMIT_AUTH_"`
	API  RateLimitPolicy `json:"api" envPrefix:"RATE_LIMIT_API_"`
}

const defaultConfigPath = "config/config.json"

var supportedDrivers = []string{"mysql", "postgres", "sqlite"}

// Load reads configuration once during boot.
// Precedence: config file -> defaults -> environment variable overrides.
func Load() (AppConfig, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}
	return LoadFrom(path)
}

// LoadFrom is Load with an explicit config file path. A missing file is not an error.
func LoadFrom(path string) (AppConfig, error) {
	var cfg AppConfig
	if err := loadJSONConfig(path, &cfg); err != nil {
		return cfg, fmt.Errorf("config file %s: %w", path, err)
	}

	applyDefaults(&cfg)

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("config env: %w", err)
	}
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	cfg.AllowedOrigins = splitAndTrim(cfg.AllowedOrigins)
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Default returns a configuration made of defaults only.
func Default() AppConfig {
	var cfg AppConfig
	applyDefaults(&cfg)
	return cfg
}

func (c AppConfig) validate() error {
	for _, d := range supportedDrivers {
		if c.DBDriver == d {
			return nil
		}
	}
	return fmt.Errorf("unsupported DB_DRIVER %q (want one of %s)", c.DBDriver, strings.Join(supportedDrivers, ", "))
}

// fileConfig mirrors the grouped layout of config.json.
type fileConfig struct {
	App struct {
		AppPort         string
		AppURL          string
		APIPrefix       string
		GinMode         string
		AllowedOrigins  []string
		MetricsDisabled bool
	} `json:"app"`
	Database struct {
		Driver      string
		DatabaseURI string
		DBHost      string
		DBPort      string
		DBUser      string
		DBPassword  string
		DBName      string
	} `json:"database"`
	Redis struct {
		RedisHost     string
		RedisPort     int
		RedisDB       int
		RedisPassword string
	} `json:"redis"`
	Log struct {
		Level      string
		Path       string
		MaxSizeMB  int
		MaxBackups int
		MaxAgeDays int
		Compress   bool
	} `json:"log"`
	AppLimits  AppLimits  `json:"app_limits"`
	RateLimits RateLimits `json:"rate_limits"`
}

// loadJSONConfig reads the JSON file into out if present. Returns error only for invalid JSON.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer f.Close()

	var fc fileConfig
	if err := json.NewDecoder(f).Decode(&fc); err != nil {
		return err
	}

	out.AppPort = fc.App.AppPort
	out.AppURL = fc.App.AppURL
	out.APIPrefix = fc.App.APIPrefix
	out.GinMode = fc.App.GinMode
	out.AllowedOrigins = fc.App.AllowedOrigins
	out.MetricsDisabled = fc.App.MetricsDisabled

	out.DBDriver = fc.Database.Driver
	out.DatabaseURI = fc.Database.DatabaseURI
	out.DBHost = fc.Database.DBHost
	out.DBPort = fc.Database.DBPort
	out.DBUser = fc.Database.DBUser
	out.DBPassword = fc.Database.DBPassword
	out.DBName = fc.Database.DBName

	out.RedisHost = fc.Redis.RedisHost
	out.RedisPort = fc.Redis.RedisPort
	out.RedisDB = fc.Redis.RedisDB
	out.RedisPassword = fc.Redis.RedisPassword

	out.LogLevel = fc.Log.Level
	out.LogPath = fc.Log.Path
	out.LogMaxSizeMB = fc.Log.MaxSizeMB
	out.LogMaxBackups = fc.Log.MaxBackups
	out.LogMaxAgeDays = fc.Log.MaxAgeDays
	out.LogCompress = fc.Log.Compress

	out.AppLimits = fc.AppLimits
	out.RateLimits = fc.RateLimits
	return nil
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.APIPrefix == "" {
		c.APIPrefix = "/api"
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.DBDriver == "" {
		c.DBDriver = "mysql"
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBUser == "" {
		c.DBUser = "root"
	}
	if c.DBName == "" {
		c.DBName = "forumlite"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}

	if c.AppLimits.MaxUsers == 0 {
		c.AppLimits.MaxUsers = 1000
	}
	if c.AppLimits.MaxPosts == 0 {
		c.AppLimits.MaxPosts = 5000
	}
	if c.AppLimits.MaxComments == 0 {
		c.AppLimits.MaxComments = 10000
	}
	if c.AppLimits.PaginationLimit == 0 {
		c.AppLimits.PaginationLimit = 10
	}

	if c.RateLimits.Auth.Attempts == 0 {
		c.RateLimits.Auth.Attempts = 10
	}
	if c.RateLimits.Auth.WindowSeconds == 0 {
		c.RateLimits.Auth.WindowSeconds = 60
	}
	if c.RateLimits.API.Attempts == 0 {
		c.RateLimits.API.Attempts = 60
	}
	if c.RateLimits.API.WindowSeconds == 0 {
		c.RateLimits.API.WindowSeconds = 60
	}
}

func splitAndTrim(raw []string) []string {
	items := []string{}
	for _, item := range raw {
		trimmed := strings.TrimSpace(item)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the fact-check service.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Checker   CheckerConfig   `mapstructure:"checker"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig contains HTTP server and auth settings
type ServerConfig struct {
	Address   string `mapstructure:"address"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

// GeminiConfig contains the Live API connection and generation parameters.
// APIKey may be left empty here and supplied through the settings surface
// instead.
type GeminiConfig struct {
	APIKey             string        `mapstructure:"api_key"`
	Endpoint           string        `mapstructure:"endpoint"`
	Model              string        `mapstructure:"model"`
	Temperature        float64       `mapstructure:"temperature"`
	TopP               float64       `mapstructure:"top_p"`
	ResponseModalities string        `mapstructure:"response_modalities"`
	HandshakeTimeout   time.Duration `mapstructure:"handshake_timeout"`
}

func (g GeminiConfig) Validate() error {
	if strings.TrimSpace(g.Endpoint) == "" {
		return fmt.Errorf("gemini.endpoint required")
	}
	if strings.TrimSpace(g.Model) == "" {
		return fmt.Errorf("gemini.model required")
	}
	return nil
}

// CheckerConfig contains fact-check session settings. The timeout is a
// single-shot wall-clock bound; there is no automatic retry.
type CheckerConfig struct {
	SessionTimeout     time.Duration `mapstructure:"session_timeout"`
	MinCacheableLength int           `mapstructure:"min_cacheable_length"`
}

func (c CheckerConfig) Validate() error {
	if c.SessionTimeout <= 0 {
		return fmt.Errorf("checker.session_timeout must be > 0")
	}
	if c.MinCacheableLength < 0 {
		return fmt.Errorf("checker.min_cacheable_length must be >= 0")
	}
	return nil
}

// CacheConfig contains result-cache settings.
type CacheConfig struct {
	MaxEntries      int    `mapstructure:"max_entries"`
	MaintenanceCron string `mapstructure:"maintenance_cron"`
}

func (c CacheConfig) Validate() error {
	if c.MaxEntries <= 0 {
		return fmt.Errorf("cache.max_entries must be > 0")
	}
	return nil
}

// StorageConfig contains storage and persistence settings
type StorageConfig struct {
	Redis       RedisConfig    `mapstructure:"redis"`
	Postgres    PostgresConfig `mapstructure:"postgres"`
	SearchIndex string         `mapstructure:"search_index"`
}

// RedisConfig contains the persistent cache tier settings.
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return nil // persistent tier disabled, in-memory only
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port required when host is provided")
	}
	return nil
}

// PostgresConfig contains the check-history database settings.
type PostgresConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (p PostgresConfig) Validate() error {
	if strings.TrimSpace(p.URL) != "" {
		return nil
	}
	if strings.TrimSpace(p.Host) == "" {
		return nil // history disabled
	}
	if strings.TrimSpace(p.DBName) == "" {
		return fmt.Errorf("storage.postgres.dbname required when host is provided")
	}
	return nil
}

// DSN renders a postgres connection string, preferring an explicit URL.
func (p PostgresConfig) DSN() string {
	if p.URL != "" {
		return p.URL
	}
	if p.Host == "" || p.DBName == "" {
		return ""
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl)
}

// TelemetryConfig contains metrics settings
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoadConfig loads config from file. An empty path searches the usual
// locations; a missing file falls back to defaults plus FACTLENS_* env vars.
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("json")

	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("server.address", ":10080")
	viper.SetDefault("gemini.endpoint", "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1alpha.GenerativeService.BidiGenerateContent")
	viper.SetDefault("gemini.model", "models/gemini-2.0-flash-exp")
	viper.SetDefault("gemini.temperature", 0.7)
	viper.SetDefault("gemini.top_p", 0.95)
	viper.SetDefault("gemini.response_modalities", "text")
	viper.SetDefault("gemini.handshake_timeout", 10*time.Second)
	viper.SetDefault("checker.session_timeout", 30*time.Second)
	viper.SetDefault("checker.min_cacheable_length", 200)
	viper.SetDefault("cache.max_entries", 20)
	viper.SetDefault("cache.maintenance_cron", "0 * * * *")
	viper.SetDefault("storage.redis.timeout", 5*time.Second)

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("FACTLENS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	if err := config.Gemini.Validate(); err != nil {
		panic(err)
	}
	if err := config.Checker.Validate(); err != nil {
		panic(err)
	}
	if err := config.Cache.Validate(); err != nil {
		panic(err)
	}
	if err := config.Storage.Redis.Validate(); err != nil {
		panic(err)
	}
	if err := config.Storage.Postgres.Validate(); err != nil {
		panic(err)
	}
	return &config
}

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// DefaultSpreadsheetID is the built-in lead sheet read when no identifier is
// configured.
const DefaultSpreadsheetID = "1IzRN7J-0XDJbGQGFmom-7RutxOtgcwVM0oo6d4z5dWc"

// Config represents the complete application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Security SecurityConfig `yaml:"security" envconfig:"SECURITY"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Sheets   SheetsConfig   `yaml:"sheets" envconfig:"SHEETS"`
	Refresh  RefreshConfig  `yaml:"refresh" envconfig:"REFRESH"`
	Export   ExportConfig   `yaml:"export" envconfig:"EXPORT"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// SecurityConfig contains CORS and rate limiting configuration.
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
}

// SheetsConfig identifies the backing spreadsheet and its credentials.
// CredentialsJSON carries a service-account key as a JSON string;
// CredentialsFile points at a key file instead. When both are empty the
// client falls back to application default credentials.
type SheetsConfig struct {
	SpreadsheetID   string `yaml:"spreadsheet_id" envconfig:"SPREADSHEET_ID"`
	ReadRange       string `yaml:"read_range" envconfig:"READ_RANGE" default:"A:Z"`
	CredentialsJSON string `yaml:"credentials_json" envconfig:"CREDENTIALS_JSON"`
	CredentialsFile string `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
}

// RefreshConfig controls the periodic re-fetch of raw rows.
type RefreshConfig struct {
	Enabled  bool          `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	Interval time.Duration `yaml:"interval" envconfig:"INTERVAL" default:"60s"`
}

// ExportConfig controls report and tabular exports.
type ExportConfig struct {
	Dir          string        `yaml:"dir" envconfig:"DIR" default:"exports"`
	ReportTitle  string        `yaml:"report_title" envconfig:"REPORT_TITLE" default:"Lead Management Report"`
	ChartBaseURL string        `yaml:"chart_base_url" envconfig:"CHART_BASE_URL"`
	CaptureWait  time.Duration `yaml:"capture_wait" envconfig:"CAPTURE_WAIT" default:"2s"`
}

// Load loads configuration from an optional YAML file and the environment;
// environment variables (LEADPULSE_ prefix) take precedence.
func Load() (*Config, error) {
	return LoadFromFile(configFilePath())
}

// LoadFromFile is Load with an explicit config file location.
func LoadFromFile(path string) (*Config, error) {
	var cfg Config

	// Load from environment variables first
	if err := envconfig.Process("LEADPULSE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// Load from config file if it exists; env values take precedence
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			fileCfg, err := loadFromYAML(path)
			if err != nil {
				return nil, fmt.Errorf("failed to load config from file: %w", err)
			}
			cfg = mergeConfigs(*fileCfg, cfg)
		}
	}

	if cfg.Sheets.SpreadsheetID == "" {
		cfg.Sheets.SpreadsheetID = DefaultSpreadsheetID
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func loadFromYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// mergeConfigs fills fields the environment left unset from the file config.
// Only the fields below are file-settable: sheets credentials, spreadsheet
// ID, the chart base URL and allowed origins. Everything else (server
// address, timeouts, rate limits, refresh interval) comes from envconfig
// defaults or LEADPULSE_* variables; file values for those are ignored
// because their env defaults are non-zero and unset cannot be told apart
// from deliberate.
func mergeConfigs(fileCfg, envCfg Config) Config {
	if envCfg.Sheets.SpreadsheetID == "" {
		envCfg.Sheets.SpreadsheetID = fileCfg.Sheets.SpreadsheetID
	}
	if envCfg.Sheets.CredentialsJSON == "" {
		envCfg.Sheets.CredentialsJSON = fileCfg.Sheets.CredentialsJSON
	}
	if envCfg.Sheets.CredentialsFile == "" {
		envCfg.Sheets.CredentialsFile = fileCfg.Sheets.CredentialsFile
	}
	if envCfg.Export.ChartBaseURL == "" {
		envCfg.Export.ChartBaseURL = fileCfg.Export.ChartBaseURL
	}
	if len(fileCfg.Security.AllowedOrigins) > 0 && os.Getenv("LEADPULSE_SECURITY_ALLOWED_ORIGINS") == "" {
		envCfg.Security.AllowedOrigins = fileCfg.Security.AllowedOrigins
	}
	return envCfg
}

func configFilePath() string {
	if path := os.Getenv("LEADPULSE_CONFIG"); path != "" {
		return path
	}
	return "config.yaml"
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Refresh.Enabled && c.Refresh.Interval < time.Second {
		return fmt.Errorf("refresh interval too short: %s", c.Refresh.Interval)
	}
	if c.Sheets.ReadRange == "" {
		return fmt.Errorf("sheets read range must not be empty")
	}
	return nil
}

// ListenAddr returns the server bind address.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

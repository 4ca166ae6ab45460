package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server" envconfig:"SERVER"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Paths      PathsConfig      `yaml:"paths" envconfig:"PATHS"`
	Processing ProcessingConfig `yaml:"processing" envconfig:"PROCESSING"`
	Upload     UploadConfig     `yaml:"upload" envconfig:"UPLOAD"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir      string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	UploadDir    string `yaml:"upload_dir" envconfig:"UPLOAD_DIR" default:"data/raw"`
	DatabaseFile string `yaml:"database_file" envconfig:"DATABASE_FILE" default:"data/security.db"`
}

// ProcessingConfig bounds the aggregation engine
type ProcessingConfig struct {
	PreviewRows      int           `yaml:"preview_rows" envconfig:"PREVIEW_ROWS" default:"10"`
	ProfileRows      int           `yaml:"profile_rows" envconfig:"PROFILE_ROWS" default:"1000"`
	MaxCountedRows   int           `yaml:"max_counted_rows" envconfig:"MAX_COUNTED_ROWS" default:"100000"`
	MinRows          int           `yaml:"min_rows" envconfig:"MIN_ROWS" default:"10"`
	MinHierarchy     int           `yaml:"min_hierarchy" envconfig:"MIN_HIERARCHY" default:"3"`
	ProgressBuffer   int           `yaml:"progress_buffer" envconfig:"PROGRESS_BUFFER" default:"64"`
	ProgressTimeout  time.Duration `yaml:"progress_timeout" envconfig:"PROGRESS_TIMEOUT" default:"2m"`
	OperationTimeout time.Duration `yaml:"operation_timeout" envconfig:"OPERATION_TIMEOUT" default:"30m"`
	Palette          string        `yaml:"palette" envconfig:"PALETTE" default:"ocean"`
}

// UploadConfig bounds the upload endpoint
type UploadConfig struct {
	MaxSizeBytes int64   `yaml:"max_size_bytes" envconfig:"MAX_SIZE_BYTES" default:"104857600"`
	RateRPS      float64 `yaml:"rate_rps" envconfig:"RATE_RPS" default:"2"`
	RateBurst    int     `yaml:"rate_burst" envconfig:"RATE_BURST" default:"5"`
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("SUNBURST", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	configFile := getConfigFilePath()
	if _, err := os.Stat(configFile); err == nil {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if err := cfg.ensureDirectories(); err != nil {
		return nil, fmt.Errorf("path setup failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// mergeConfigs merges file config into env config. Environment variables win
// for any field explicitly set; zero-valued env fields take the file value.
func mergeConfigs(file, env Config) Config {
	merged := env

	if env.Server.Port == 0 {
		merged.Server.Port = file.Server.Port
	}
	if env.Logging.Level == "" {
		merged.Logging.Level = file.Logging.Level
	}
	if env.Logging.Output == "" {
		merged.Logging.Output = file.Logging.Output
	}
	if env.Logging.FilePath == "" {
		merged.Logging.FilePath = file.Logging.FilePath
	}
	if env.Paths.DataDir == "" {
		merged.Paths.DataDir = file.Paths.DataDir
	}
	if env.Paths.UploadDir == "" {
		merged.Paths.UploadDir = file.Paths.UploadDir
	}
	if env.Paths.DatabaseFile == "" {
		merged.Paths.DatabaseFile = file.Paths.DatabaseFile
	}
	if env.Processing.Palette == "" {
		merged.Processing.Palette = file.Processing.Palette
	}

	return merged
}

func getConfigFilePath() string {
	if path := os.Getenv("SUNBURST_CONFIG_FILE"); path != "" {
		return path
	}
	return "config.yaml"
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Processing.MinHierarchy < 1 {
		return fmt.Errorf("invalid minimum hierarchy depth: %d", c.Processing.MinHierarchy)
	}
	if c.Processing.MinRows < 1 {
		return fmt.Errorf("invalid minimum row count: %d", c.Processing.MinRows)
	}
	if c.Processing.ProgressBuffer < 1 {
		return fmt.Errorf("invalid progress buffer size: %d", c.Processing.ProgressBuffer)
	}

	return nil
}

func (c *Config) ensureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.UploadDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if c.Logging.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(c.Logging.FilePath), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}
	return nil
}

// ArtifactPath returns the session-qualified location of the persisted chart
// artifact.
func (c *Config) ArtifactPath(sessionID string) string {
	if sessionID == "" {
		sessionID = "default"
	}
	return filepath.Join(c.Paths.DataDir, fmt.Sprintf("%s_sunburst_data.json", sessionID))
}

// FallbackArtifactPath returns the unqualified artifact location kept for
// sessions created before session scoping existed.
func (c *Config) FallbackArtifactPath() string {
	return filepath.Join(c.Paths.DataDir, "sunburst_data.json")
}

// UploadPath resolves a stored upload name inside the upload directory.
func (c *Config) UploadPath(name string) string {
	return filepath.Join(c.Paths.UploadDir, filepath.Base(name))
}

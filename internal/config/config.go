package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"wirehttp/internal/logging"
)

// CurrentVersion is the config schema version this build understands
const CurrentVersion = 1

// DirName is the per-project directory holding config.json and the journal
const DirName = ".wirehttp"

// EnvPrefix prefixes environment overrides, e.g. WIREHTTP_SERVER_PORT
const EnvPrefix = "WIREHTTP"

// Config represents the complete wirehttp configuration
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	Server  ServerConfig  `json:"server" mapstructure:"server"`
	Routes  RoutesConfig  `json:"routes" mapstructure:"routes"`
	Journal JournalConfig `json:"journal" mapstructure:"journal"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// ServerConfig contains listener and framing settings
type ServerConfig struct {
	Host            string `json:"host" mapstructure:"host"`
	Port            int    `json:"port" mapstructure:"port"`
	Directory       string `json:"directory" mapstructure:"directory"`
	ReadBufferSize  int    `json:"readBufferSize" mapstructure:"readBufferSize"`
	MaxRequestBytes int    `json:"maxRequestBytes" mapstructure:"maxRequestBytes"`
}

// RoutesConfig points at the optional canned-route manifest
type RoutesConfig struct {
	Manifest string `json:"manifest" mapstructure:"manifest"`
}

// JournalConfig controls the SQLite request journal
type JournalConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" mapstructure:"path"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format     string `json:"format" mapstructure:"format"`
	Level      string `json:"level" mapstructure:"level"`
	File       string `json:"file" mapstructure:"file"`
	MaxSize    string `json:"maxSize" mapstructure:"maxSize"`
	MaxBackups int    `json:"maxBackups" mapstructure:"maxBackups"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            4221,
			Directory:       ".",
			ReadBufferSize:  1024,
			MaxRequestBytes: 1 << 20,
		},
		Routes: RoutesConfig{},
		Journal: JournalConfig{
			Enabled: false,
			Path:    filepath.Join(DirName, "journal.db"),
		},
		Logging: LoggingConfig{
			Format:     "human",
			Level:      "info",
			MaxSize:    "10MB",
			MaxBackups: 3,
		},
	}
}

// Addr returns host:port for the listener
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Path returns the config file location under root
func Path(root string) string {
	return filepath.Join(root, DirName, "config.json")
}

// LoadResult is a loaded config plus where it came from
type LoadResult struct {
	Config       *Config
	ConfigPath   string
	UsedDefaults bool
}

// LoadConfig loads configuration from <root>/.wirehttp/config.json, applying
// WIREHTTP_* environment overrides. A missing file yields the defaults.
func LoadConfig(root string) (*Config, error) {
	result, err := LoadConfigWithDetails(root)
	if err != nil {
		return nil, err
	}
	return result.Config, nil
}

// LoadConfigWithDetails is LoadConfig that also reports the source file
func LoadConfigWithDetails(root string) (*LoadResult, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(root, DirName))

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	result := &LoadResult{}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		result.UsedDefaults = true
	} else {
		result.ConfigPath = v.ConfigFileUsed()
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	result.Config = &cfg
	return result, nil
}

// setDefaults registers every leaf key so AutomaticEnv can override keys the
// file does not mention.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("version", d.Version)
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.directory", d.Server.Directory)
	v.SetDefault("server.readBufferSize", d.Server.ReadBufferSize)
	v.SetDefault("server.maxRequestBytes", d.Server.MaxRequestBytes)
	v.SetDefault("routes.manifest", d.Routes.Manifest)
	v.SetDefault("journal.enabled", d.Journal.Enabled)
	v.SetDefault("journal.path", d.Journal.Path)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.maxSize", d.Logging.MaxSize)
	v.SetDefault("logging.maxBackups", d.Logging.MaxBackups)
}

// Save writes the configuration to <root>/.wirehttp/config.json
func (c *Config) Save(root string) error {
	if err := os.MkdirAll(filepath.Join(root, DirName), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(Path(root), data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return &ConfigError{Field: "version", Message: fmt.Sprintf("unsupported config version %d", c.Version)}
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return &ConfigError{Field: "server.port", Message: "must be between 0 and 65535"}
	}
	if c.Server.ReadBufferSize <= 0 {
		return &ConfigError{Field: "server.readBufferSize", Message: "must be positive"}
	}
	if c.Server.MaxRequestBytes < 0 {
		return &ConfigError{Field: "server.maxRequestBytes", Message: "must not be negative"}
	}
	if c.Server.Directory == "" {
		return &ConfigError{Field: "server.directory", Message: "must not be empty"}
	}
	if c.Journal.Enabled && c.Journal.Path == "" {
		return &ConfigError{Field: "journal.path", Message: "required when the journal is enabled"}
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return &ConfigError{Field: "logging.level", Message: err.Error()}
	}
	if _, err := logging.ParseFormat(c.Logging.Format); err != nil {
		return &ConfigError{Field: "logging.format", Message: err.Error()}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}

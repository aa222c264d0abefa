package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed config.toml.sample
var configTemplate string

const (
	DefaultHost        = "localhost"
	DefaultPort        = "8080"
	DefaultSourceType  = "file"
	DefaultSourcePath  = "data.json"
	DefaultChartWidth  = 1024
	DefaultChartHeight = 480
)

type Config struct {
	Server ServerConfig `toml:"server"`
	Source SourceConfig `toml:"source"`
	Chart  ChartConfig  `toml:"chart"`
}

type ServerConfig struct {
	Host string `toml:"host"`
	Port string `toml:"port"`
}

// SourceConfig locates the dataset snapshot. Which fields matter depends on
// Type: file uses Path, http uses URL, sqlite and postgres use DSN, s3 uses
// Region, Bucket and Key.
type SourceConfig struct {
	Type   string `toml:"type"`
	Path   string `toml:"path,omitempty"`
	URL    string `toml:"url,omitempty"`
	DSN    string `toml:"dsn,omitempty"`
	Region string `toml:"region,omitempty"`
	Bucket string `toml:"bucket,omitempty"`
	Key    string `toml:"key,omitempty"`
	// Timeout bounds the snapshot fetch. Zero waits indefinitely.
	Timeout Duration `toml:"timeout,omitempty"`
	// Watch reloads file snapshots when they change on disk.
	Watch bool `toml:"watch"`
}

type ChartConfig struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func GetDefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == "" {
		c.Server.Port = DefaultPort
	}
	if c.Source.Type == "" {
		c.Source.Type = DefaultSourceType
	}
	if c.Source.Type == "file" && c.Source.Path == "" {
		c.Source.Path = DefaultSourcePath
	}
	if c.Chart.Width <= 0 {
		c.Chart.Width = DefaultChartWidth
	}
	if c.Chart.Height <= 0 {
		c.Chart.Height = DefaultChartHeight
	}
}

// LoadConfig reads configPath. A missing file yields the defaults.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return GetDefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	config.applyDefaults()

	// relative snapshot paths are resolved against the config file
	if config.Source.Type == "file" && !filepath.IsAbs(config.Source.Path) {
		config.Source.Path = filepath.Join(filepath.Dir(configPath), config.Source.Path)
	}

	return &config, nil
}

func (c *Config) SaveConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

// SaveTemplateConfig writes the commented sample configuration.
func SaveTemplateConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file %s already exists", configPath)
	}
	return os.WriteFile(configPath, []byte(configTemplate), 0644)
}

// Addr returns host:port for the web server.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// GetConfigDir returns the configuration directory for signalscope
func GetConfigDir() (string, error) {
	// Use XDG_CONFIG_HOME if set, otherwise use ~/.config
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "signalscope"), nil
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

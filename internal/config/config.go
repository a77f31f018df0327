// Package config loads the bridge configuration from defaults, an optional
// TOML file and POSBRIDGE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	configName = "posbridge"
	configType = "toml"
	envPrefix  = "POSBRIDGE"
	appDirName = "posbridge"
)

// Config is the root configuration structure.
type Config struct {
	DataDir     string            `mapstructure:"data_dir"`
	Log         LoggingConfig     `mapstructure:"log"`
	HTTP        HTTPConfig        `mapstructure:"http"`
	Agent       AgentConfig       `mapstructure:"agent"`
	Timeouts    TimeoutConfig     `mapstructure:"timeouts"`
	StatusCache StatusCacheConfig `mapstructure:"status_cache"`
	Receipt     ReceiptConfig     `mapstructure:"receipt"`
	Bulk        BulkConfig        `mapstructure:"bulk"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// HTTPConfig contains the local API listener settings.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// AgentConfig contains the order-layer websocket agent settings.
// The agent is disabled when WSURL is empty.
type AgentConfig struct {
	WSURL  string `mapstructure:"ws_url"`
	APIKey string `mapstructure:"api_key"`
	Name   string `mapstructure:"name"`
}

// TimeoutConfig bounds every blocking device or network operation.
type TimeoutConfig struct {
	Connect  time.Duration `mapstructure:"connect"`
	Status   time.Duration `mapstructure:"status"`
	Write    time.Duration `mapstructure:"write"`
	Download time.Duration `mapstructure:"download"`
}

// StatusCacheConfig sizes the in-memory printer status cache.
type StatusCacheConfig struct {
	Size int           `mapstructure:"size"`
	TTL  time.Duration `mapstructure:"ttl"`
}

// ReceiptConfig holds the branding printed on every receipt.
type ReceiptConfig struct {
	StoreName string `mapstructure:"store_name"`
	Address   string `mapstructure:"address"`
	Phone     string `mapstructure:"phone"`
	Footer    string `mapstructure:"footer"`
	Currency  string `mapstructure:"currency"`
	Width     int    `mapstructure:"width"`
	LogoURL   string `mapstructure:"logo_url"`
	QRURL     string `mapstructure:"qr_url"`
}

// BulkConfig controls the bulk image mirror.
type BulkConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// PrintersFile is the JSON printer registry.
func (c *Config) PrintersFile() string { return filepath.Join(c.DataDir, "printers.json") }

// AssetsDir holds the cached logo and QR images.
func (c *Config) AssetsDir() string { return filepath.Join(c.DataDir, "assets") }

// ImagesDir holds the bulk product image mirror.
func (c *Config) ImagesDir() string { return filepath.Join(c.DataDir, "images") }

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DataDir: defaultDataDir(),
		Log:     LoggingConfig{Level: "info", Format: "text", Output: "stderr"},
		HTTP:    HTTPConfig{Addr: "127.0.0.1:3491"},
		Agent:   AgentConfig{Name: "posbridge"},
		Timeouts: TimeoutConfig{
			Connect:  5 * time.Second,
			Status:   5 * time.Second,
			Write:    30 * time.Second,
			Download: 30 * time.Second,
		},
		StatusCache: StatusCacheConfig{Size: 64, TTL: 3 * time.Second},
		Receipt:     ReceiptConfig{Footer: "Thank you for your order!", Width: 42},
		Bulk:        BulkConfig{Concurrency: 4},
	}
}

// Load reads the configuration. When file is empty the default
// posbridge.toml in the user config directory is used if present.
func Load(v *viper.Viper, file string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	setDefaults(v, Default())

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, appDirName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the components cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return errors.New("config: data_dir is empty")
	}
	if c.Timeouts.Connect <= 0 || c.Timeouts.Status <= 0 || c.Timeouts.Write <= 0 || c.Timeouts.Download <= 0 {
		return errors.New("config: timeouts must be positive")
	}
	if c.Bulk.Concurrency <= 0 {
		return fmt.Errorf("config: bulk.concurrency must be positive, got %d", c.Bulk.Concurrency)
	}
	if c.Receipt.Width < 24 {
		return fmt.Errorf("config: receipt.width %d is too narrow", c.Receipt.Width)
	}
	if c.StatusCache.Size <= 0 {
		return fmt.Errorf("config: status_cache.size must be positive, got %d", c.StatusCache.Size)
	}
	return nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.output", d.Log.Output)
	v.SetDefault("http.addr", d.HTTP.Addr)
	v.SetDefault("agent.ws_url", d.Agent.WSURL)
	v.SetDefault("agent.api_key", d.Agent.APIKey)
	v.SetDefault("agent.name", d.Agent.Name)
	v.SetDefault("timeouts.connect", d.Timeouts.Connect)
	v.SetDefault("timeouts.status", d.Timeouts.Status)
	v.SetDefault("timeouts.write", d.Timeouts.Write)
	v.SetDefault("timeouts.download", d.Timeouts.Download)
	v.SetDefault("status_cache.size", d.StatusCache.Size)
	v.SetDefault("status_cache.ttl", d.StatusCache.TTL)
	v.SetDefault("receipt.store_name", d.Receipt.StoreName)
	v.SetDefault("receipt.address", d.Receipt.Address)
	v.SetDefault("receipt.phone", d.Receipt.Phone)
	v.SetDefault("receipt.footer", d.Receipt.Footer)
	v.SetDefault("receipt.currency", d.Receipt.Currency)
	v.SetDefault("receipt.width", d.Receipt.Width)
	v.SetDefault("receipt.logo_url", d.Receipt.LogoURL)
	v.SetDefault("receipt.qr_url", d.Receipt.QRURL)
	v.SetDefault("bulk.concurrency", d.Bulk.Concurrency)
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, appDirName)
	}
	return ".posbridge"
}

// DefaultPath is where `config init` writes and Load looks by default.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config directory: %w", err)
	}
	return filepath.Join(dir, appDirName, configName+"."+configType), nil
}

// --- config file schema ---

type fileSchema struct {
	DataDir     string            `toml:"data_dir"`
	Log         logSchema         `toml:"log"`
	HTTP        httpSchema        `toml:"http"`
	Agent       agentSchema       `toml:"agent"`
	Timeouts    timeoutSchema     `toml:"timeouts"`
	StatusCache statusCacheSchema `toml:"status_cache"`
	Receipt     receiptSchema     `toml:"receipt"`
	Bulk        bulkSchema        `toml:"bulk"`
}

type logSchema struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Output string `toml:"output"`
}

type httpSchema struct {
	Addr string `toml:"addr"`
}

type agentSchema struct {
	WSURL  string `toml:"ws_url"`
	APIKey string `toml:"api_key"`
	Name   string `toml:"name"`
}

type timeoutSchema struct {
	Connect  string `toml:"connect"`
	Status   string `toml:"status"`
	Write    string `toml:"write"`
	Download string `toml:"download"`
}

type statusCacheSchema struct {
	Size int    `toml:"size"`
	TTL  string `toml:"ttl"`
}

type receiptSchema struct {
	StoreName string `toml:"store_name"`
	Address   string `toml:"address"`
	Phone     string `toml:"phone"`
	Footer    string `toml:"footer"`
	Currency  string `toml:"currency"`
	Width     int    `toml:"width"`
	LogoURL   string `toml:"logo_url"`
	QRURL     string `toml:"qr_url"`
}

type bulkSchema struct {
	Concurrency int `toml:"concurrency"`
}

// Encode renders cfg as a TOML document that Load reads back.
func Encode(cfg Config) ([]byte, error) {
	file := fileSchema{
		DataDir: cfg.DataDir,
		Log:     logSchema(cfg.Log),
		HTTP:    httpSchema(cfg.HTTP),
		Agent:   agentSchema(cfg.Agent),
		Timeouts: timeoutSchema{
			Connect:  cfg.Timeouts.Connect.String(),
			Status:   cfg.Timeouts.Status.String(),
			Write:    cfg.Timeouts.Write.String(),
			Download: cfg.Timeouts.Download.String(),
		},
		StatusCache: statusCacheSchema{Size: cfg.StatusCache.Size, TTL: cfg.StatusCache.TTL.String()},
		Receipt:     receiptSchema(cfg.Receipt),
		Bulk:        bulkSchema(cfg.Bulk),
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}

// WriteFile writes cfg to path, refusing to overwrite unless force is set.
func WriteFile(path string, cfg Config, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists", path)
		}
	}

	data, err := Encode(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const (
	appName   = "querybuilder"
	envPrefix = "QB"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Store    StoreConfig    `mapstructure:"store"`
	Server   ServerConfig   `mapstructure:"server"`
	Mapper   MapperConfig   `mapstructure:"mapper"`
	History  HistoryConfig  `mapstructure:"history"`
	Log      LogConfig      `mapstructure:"log"`
	UI       UIConfig       `mapstructure:"ui"`
}

type DatabaseConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	Name       string `mapstructure:"name"`
	SSLMode    string `mapstructure:"ssl_mode"`
	MaxConns   int32  `mapstructure:"max_conns"`
	UseKeyring bool   `mapstructure:"use_keyring"`
}

type StoreConfig struct {
	Backend      string `mapstructure:"backend"`
	Table        string `mapstructure:"table"`
	FixturePath  string `mapstructure:"fixture_path"`
	DefaultLimit int    `mapstructure:"default_limit"`
	MaxLimit     int    `mapstructure:"max_limit"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type MapperConfig struct {
	EpochStart string `mapstructure:"epoch_start"`
}

type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type UIConfig struct {
	Theme        string `mapstructure:"theme"`
	MouseEnabled bool   `mapstructure:"mouse_enabled"`
}

// Store backends
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// GetDefaults returns a Config with all default values
func GetDefaults() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Name:     "church",
			SSLMode:  "prefer",
			MaxConns: 5,
		},
		Store: StoreConfig{
			Backend:      BackendPostgres,
			Table:        "members",
			DefaultLimit: 50,
			MaxLimit:     500,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Mapper: MapperConfig{
			EpochStart: "1900-01-01T00:00:00.000Z",
		},
		History: HistoryConfig{
			Enabled: true,
		},
		Log: LogConfig{
			Level: "info",
		},
		UI: UIConfig{
			Theme:        "default",
			MouseEnabled: true,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := GetDefaults()
	v.SetDefault("database.host", d.Database.Host)
	v.SetDefault("database.port", d.Database.Port)
	v.SetDefault("database.user", d.Database.User)
	v.SetDefault("database.password", d.Database.Password)
	v.SetDefault("database.name", d.Database.Name)
	v.SetDefault("database.ssl_mode", d.Database.SSLMode)
	v.SetDefault("database.max_conns", d.Database.MaxConns)
	v.SetDefault("database.use_keyring", d.Database.UseKeyring)
	v.SetDefault("store.backend", d.Store.Backend)
	v.SetDefault("store.table", d.Store.Table)
	v.SetDefault("store.fixture_path", d.Store.FixturePath)
	v.SetDefault("store.default_limit", d.Store.DefaultLimit)
	v.SetDefault("store.max_limit", d.Store.MaxLimit)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("mapper.epoch_start", d.Mapper.EpochStart)
	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.path", d.History.Path)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("ui.theme", d.UI.Theme)
	v.SetDefault("ui.mouse_enabled", d.UI.MouseEnabled)
}

// Source is a loaded configuration that can be re-read when its file changes
type Source struct {
	v *viper.Viper

	mu  sync.RWMutex
	cfg *Config
}

// Open reads configuration from path, or from the search paths when path is
// empty. A missing config file is fine; defaults and environment apply.
func Open(path string) (*Source, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		// Add config paths in priority order
		if configDir, err := GetConfigPath(); err == nil {
			v.AddConfigPath(configDir)
		}
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	return &Source{v: v, cfg: cfg}, nil
}

// Load loads configuration from path or the default search paths
func Load(path string) (*Config, error) {
	src, err := Open(path)
	if err != nil {
		return nil, err
	}
	return src.Config(), nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Config returns the current configuration
func (s *Source) Config() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// File returns the config file in use, or "" when running on defaults
func (s *Source) File() string {
	return s.v.ConfigFileUsed()
}

// Watch re-reads the file on change and hands the new configuration to fn.
// A change that fails to decode keeps the previous configuration and is
// reported through onError.
func (s *Source) Watch(fn func(*Config), onError func(error)) {
	if s.File() == "" {
		return
	}
	s.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := decode(s.v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		s.mu.Lock()
		s.cfg = cfg
		s.mu.Unlock()
		if fn != nil {
			fn(cfg)
		}
	})
	s.v.WatchConfig()
}

// Validate checks values that defaults cannot fix
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendPostgres, BackendMemory:
	default:
		return fmt.Errorf("invalid store backend %q", c.Store.Backend)
	}
	if c.Store.Backend == BackendMemory && c.Store.FixturePath == "" {
		return fmt.Errorf("store.fixture_path is required for the memory backend")
	}
	if c.Store.DefaultLimit <= 0 || c.Store.MaxLimit < c.Store.DefaultLimit {
		return fmt.Errorf("invalid store limits: default %d, max %d", c.Store.DefaultLimit, c.Store.MaxLimit)
	}
	return nil
}

// HistoryPath returns the history database location, defaulting to the
// user config directory
func (c *Config) HistoryPath() (string, error) {
	if c.History.Path != "" {
		return c.History.Path, nil
	}
	dir, err := GetConfigPath()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create config dir: %w", err)
	}
	return filepath.Join(dir, "history.db"), nil
}

// GetConfigPath returns the user config directory path
func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, appName), nil
}

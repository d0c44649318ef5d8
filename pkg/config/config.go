package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Server    ServerConfig    `toml:"server"`
	Agent     AgentConfig     `toml:"agent"`
	Peers     PeersConfig     `toml:"peers"`
	Inventory InventoryConfig `toml:"inventory"`
	Store     StoreConfig     `toml:"store"`
	Log       LogConfig       `toml:"log"`
	Tracing   TracingConfig   `toml:"tracing"`
}

type ServerConfig struct {
	Bind      string `toml:"bind"`
	Port      int    `toml:"port"`
	AuthToken string `toml:"auth_token"`
}

type AgentConfig struct {
	Name        string `toml:"name"`
	Description string `toml:"description"`
	Version     string `toml:"version"`
	ExternalURL string `toml:"external_url"`
}

// PeersConfig names the downstream agents the coach orchestrates. Each
// value is either an HTTP base URL or a managed runtime resource name.
type PeersConfig struct {
	Planner   string `toml:"planner"`
	Validator string `toml:"validator"`
	AuthToken string `toml:"auth_token"`
}

type InventoryConfig struct {
	Location string `toml:"location"`
}

type StoreConfig struct {
	DSN string `toml:"dsn"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type TracingConfig struct {
	Enabled  bool   `toml:"enabled"`
	Endpoint string `toml:"endpoint"`
}

// Default role ports: coach 8081, planner 8082, validator 8083.
func DefaultPort(role string) int {
	switch role {
	case "planner":
		return 8082
	case "validator":
		return 8083
	default:
		return 8081
	}
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Bind: "loopback",
		},
		Peers: PeersConfig{
			Planner:   "http://localhost:8082",
			Validator: "http://localhost:8083",
		},
		Inventory: InventoryConfig{
			Location: "home",
		},
		Store: StoreConfig{
			DSN: filepath.Join(DataDir(), "fitmesh.db"),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

var (
	current *Config
	mu      sync.RWMutex
)

func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if cfg.Store.DSN == "" {
		cfg.Store.DSN = filepath.Join(DataDir(), "fitmesh.db")
	}

	mu.Lock()
	current = cfg
	mu.Unlock()

	return cfg, nil
}

func Current() *Config {
	mu.RLock()
	defer mu.RUnlock()
	if current == nil {
		return Default()
	}
	return current
}

func DataDir() string {
	if dir := os.Getenv("FITMESH_DATA_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".fitmesh"
	}
	return filepath.Join(home, ".fitmesh")
}

func DefaultConfigPath() string {
	return filepath.Join(DataDir(), "fitmesh.toml")
}

func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0700)
}

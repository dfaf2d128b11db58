package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config is the application's configuration model. Credentials live in a
// separate TOML file, see credentials.go.
type Config struct {
	Profile         string        `yaml:"profile"`
	CredentialsPath string        `yaml:"credentialsPath"`
	API             APIConfig     `yaml:"api"`
	Storage         StorageConfig `yaml:"storage"`
	Output          OutputConfig  `yaml:"output"`
	Budget          BudgetConfig  `yaml:"budget"`
}

type APIConfig struct {
	BaseURL string        `yaml:"baseURL"`
	Timeout time.Duration `yaml:"timeout"`
	// Client-side pacing, requests per second and burst.
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type StorageConfig struct {
	HistoryDB string `yaml:"historyDB"`
}

type OutputConfig struct {
	// Where --dump writes raw response bodies.
	DumpDir string `yaml:"dumpDir"`
	// Prometheus textfile written after each command; empty disables it.
	MetricsTextfile string `yaml:"metricsTextfile"`
}

// Limits caps actions per clock hour and per UTC day. Zero means no cap.
type Limits struct {
	MaxPerHour int `yaml:"maxPerHour"`
	MaxPerDay  int `yaml:"maxPerDay"`
}

// BudgetConfig holds per-action caps keyed by action ("post", "like",
// "unlike"). Actions without an entry are unlimited.
type BudgetConfig struct {
	PerType map[string]Limits `yaml:"perType"`
}

// Env holds TW_* overrides.
type Env struct {
	Profile         string        `envconfig:"PROFILE"`
	Credentials     string        `envconfig:"CREDENTIALS"`
	BaseURL         string        `envconfig:"API_BASE_URL"`
	Timeout         time.Duration `envconfig:"API_TIMEOUT"`
	RPS             float64       `envconfig:"API_RPS"`
	Burst           int           `envconfig:"API_BURST"`
	HistoryDB       string        `envconfig:"HISTORY_DB"`
	DumpDir         string        `envconfig:"DUMP_DIR"`
	MetricsTextfile string        `envconfig:"METRICS_TEXTFILE"`
}

func homeDir() string {
	if h, err := os.UserHomeDir(); err == nil {
		return h
	}
	return "."
}

// DefaultPath is ~/.config/tw/config.yaml, or the platform equivalent.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = filepath.Join(homeDir(), ".config")
	}
	return filepath.Join(dir, "tw", "config.yaml")
}

// Default returns a sensible default configuration.
func Default() Config {
	home := homeDir()
	return Config{
		Profile:         DefaultProfile,
		CredentialsPath: filepath.Join(home, DefaultCredentialsFile),
		API:             APIConfig{BaseURL: "https://api.twitter.com", Timeout: 30 * time.Second, RPS: 2, Burst: 10},
		Storage:         StorageConfig{HistoryDB: filepath.Join(home, ".tw", "history.db")},
		Output:          OutputConfig{DumpDir: home},
	}
}

// LoadDotEnv loads .env files into the environment. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// ResolveEnv applies TW_* environment overrides.
func (c *Config) ResolveEnv() error {
	var e Env
	if err := envconfig.Process("tw", &e); err != nil {
		return err
	}
	if e.Profile != "" {
		c.Profile = e.Profile
	}
	if e.Credentials != "" {
		c.CredentialsPath = e.Credentials
	}
	if e.BaseURL != "" {
		c.API.BaseURL = e.BaseURL
	}
	if e.Timeout > 0 {
		c.API.Timeout = e.Timeout
	}
	if e.RPS > 0 {
		c.API.RPS = e.RPS
	}
	if e.Burst > 0 {
		c.API.Burst = e.Burst
	}
	if e.HistoryDB != "" {
		c.Storage.HistoryDB = e.HistoryDB
	}
	if e.DumpDir != "" {
		c.Output.DumpDir = e.DumpDir
	}
	if e.MetricsTextfile != "" {
		c.Output.MetricsTextfile = e.MetricsTextfile
	}
	return nil
}

// Load reads YAML config from path over the defaults. A missing file
// yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := cfg.ResolveEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes YAML config to path, creating directories as needed.
func Save(path string, cfg Config) error {
	if path == "" {
		return errors.New("empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration lets YAML values use time.ParseDuration strings ("10s", "30m").
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", node.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// PoolConfig holds connection settings for one database realm.
type PoolConfig struct {
	URL           string   `yaml:"url"`
	Username      string   `yaml:"username"`
	Password      string   `yaml:"password"`
	MaxPool       int32    `yaml:"max_pool"`
	MinIdle       int32    `yaml:"min_idle"`
	ConnTimeout   Duration `yaml:"conn_timeout"`
	MaxLifetime   Duration `yaml:"max_lifetime"`
	LeakThreshold Duration `yaml:"leak_threshold"`
	QueryTimeout  Duration `yaml:"query_timeout"`
}

// Complete reports whether the realm has everything required to open a
// pool. An incomplete realm stays unavailable instead of aborting startup.
func (p PoolConfig) Complete() bool {
	return p.URL != "" && p.Username != "" && p.Password != ""
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config carries the two independently configured realms plus logging.
type Config struct {
	Auth PoolConfig `yaml:"auth"`
	ERP  PoolConfig `yaml:"erp"`
	Log  LogConfig  `yaml:"log"`
}

// Load resolves configuration as explicit file > environment > defaults,
// each realm independently. path may be empty, in which case CONFIG_FILE
// is consulted; with neither set only env and defaults apply.
func Load(path string) (Config, error) {
	cfg := defaults()
	applyEnv(&cfg)

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		// Unmarshal over the env-resolved config: keys present in the
		// file win, omitted keys keep their env or default values.
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	return cfg, nil
}

func defaults() Config {
	pool := PoolConfig{
		MaxPool:       10,
		MinIdle:       1,
		ConnTimeout:   Duration(10 * time.Second),
		MaxLifetime:   Duration(30 * time.Minute),
		LeakThreshold: Duration(5 * time.Second),
		QueryTimeout:  Duration(10 * time.Second),
	}
	return Config{
		Auth: pool,
		ERP:  pool,
		Log:  LogConfig{Level: "info", Format: "json"},
	}
}

func applyEnv(cfg *Config) {
	applyPoolEnv(&cfg.Auth, "AUTH_DB")
	applyPoolEnv(&cfg.ERP, "ERP_DB")
	cfg.Log.Level = getenv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getenv("LOG_FORMAT", cfg.Log.Format)
}

func applyPoolEnv(p *PoolConfig, prefix string) {
	p.URL = getenv(prefix+"_URL", p.URL)
	p.Username = getenv(prefix+"_USER", p.Username)
	p.Password = getenv(prefix+"_PASSWORD", p.Password)
	p.MaxPool = getenvInt32(prefix+"_MAX_POOL", p.MaxPool)
	p.MinIdle = getenvInt32(prefix+"_MIN_IDLE", p.MinIdle)
	p.ConnTimeout = getenvDuration(prefix+"_CONN_TIMEOUT", p.ConnTimeout)
	p.MaxLifetime = getenvDuration(prefix+"_MAX_LIFETIME", p.MaxLifetime)
	p.LeakThreshold = getenvDuration(prefix+"_LEAK_THRESHOLD", p.LeakThreshold)
	p.QueryTimeout = getenvDuration(prefix+"_QUERY_TIMEOUT", p.QueryTimeout)
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvInt32(key string, fallback int32) int32 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseInt(val, 10, 32); err == nil {
			return int32(parsed)
		}
	}
	return fallback
}

func getenvDuration(key string, fallback Duration) Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return Duration(parsed)
		}
	}
	return fallback
}

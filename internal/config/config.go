package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultAPIBaseURL            = "https://cd-static.bamgrid.com/dp-117731241344"
	defaultImageRatio            = "1.78"
	defaultPrefetchThresholdRows = 3
	defaultFetchBatchLimit       = 2
	defaultPreviewDelayMS        = 3000
	defaultDedupKey              = "both"
	defaultResolveConcurrency    = 4
	defaultRequestTimeoutMS      = 10000
	defaultRequestsPerSecond     = 8
	defaultCacheTTLMinutes       = 30
	defaultTheme                 = "catppuccin-mocha"
	defaultPlayer                = "mpv"
)

type CacheConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`
	TTLMinutes int    `mapstructure:"ttl_minutes"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Dir    string `mapstructure:"dir"`
	Debug  bool   `mapstructure:"debug"`
}

type Config struct {
	APIBaseURL            string      `mapstructure:"api_base_url"`
	ImageRatio            string      `mapstructure:"image_ratio"`
	PrefetchThresholdRows int         `mapstructure:"prefetch_threshold_rows"`
	FetchBatchLimit       int         `mapstructure:"fetch_batch_limit"`
	PreviewDelayMS        int         `mapstructure:"preview_delay_ms"`
	DedupKey              string      `mapstructure:"dedup_key"`
	ResolveConcurrency    int         `mapstructure:"resolve_concurrency"`
	RequestTimeoutMS      int         `mapstructure:"request_timeout_ms"`
	RequestsPerSecond     float64     `mapstructure:"requests_per_second"`
	ProbeAssets           bool        `mapstructure:"probe_assets"`
	Theme                 string      `mapstructure:"theme"`
	Player                string      `mapstructure:"player"`
	Cache                 CacheConfig `mapstructure:"cache"`
	Log                   LogConfig   `mapstructure:"log"`
}

func defaultConfig() *Config {
	return &Config{
		APIBaseURL:            defaultAPIBaseURL,
		ImageRatio:            defaultImageRatio,
		PrefetchThresholdRows: defaultPrefetchThresholdRows,
		FetchBatchLimit:       defaultFetchBatchLimit,
		PreviewDelayMS:        defaultPreviewDelayMS,
		DedupKey:              defaultDedupKey,
		ResolveConcurrency:    defaultResolveConcurrency,
		RequestTimeoutMS:      defaultRequestTimeoutMS,
		RequestsPerSecond:     defaultRequestsPerSecond,
		ProbeAssets:           true,
		Theme:                 defaultTheme,
		Player:                defaultPlayer,
		Cache: CacheConfig{
			Enabled:    true,
			Path:       filepath.Join(StateDir(), "cache.db"),
			TTLMinutes: defaultCacheTTLMinutes,
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
}

// Dir is the directory holding config.yaml.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "homegrid")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "homegrid")
}

// StateDir holds the cache database and logs.
func StateDir() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "homegrid")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "homegrid")
}

func Load() (*Config, error) {
	cfg := defaultConfig()

	v := viper.New()
	v.SetConfigName("config")
	v.AddConfigPath(Dir())
	v.SetEnvPrefix("HOMEGRID")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("api_base_url", cfg.APIBaseURL)
	v.SetDefault("image_ratio", cfg.ImageRatio)
	v.SetDefault("prefetch_threshold_rows", cfg.PrefetchThresholdRows)
	v.SetDefault("fetch_batch_limit", cfg.FetchBatchLimit)
	v.SetDefault("preview_delay_ms", cfg.PreviewDelayMS)
	v.SetDefault("dedup_key", cfg.DedupKey)
	v.SetDefault("resolve_concurrency", cfg.ResolveConcurrency)
	v.SetDefault("request_timeout_ms", cfg.RequestTimeoutMS)
	v.SetDefault("requests_per_second", cfg.RequestsPerSecond)
	v.SetDefault("probe_assets", cfg.ProbeAssets)
	v.SetDefault("theme", cfg.Theme)
	v.SetDefault("player", cfg.Player)
	v.SetDefault("cache.enabled", cfg.Cache.Enabled)
	v.SetDefault("cache.path", cfg.Cache.Path)
	v.SetDefault("cache.ttl_minutes", cfg.Cache.TTLMinutes)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.dir", cfg.Log.Dir)
	v.SetDefault("log.debug", cfg.Log.Debug)

	// config.yaml or config.toml; the decoder follows the extension.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	cfg.Validate()
	return cfg, nil
}

// Validate replaces out-of-range values with defaults.
func (c *Config) Validate() {
	d := defaultConfig()
	if c.APIBaseURL == "" {
		c.APIBaseURL = d.APIBaseURL
	}
	c.APIBaseURL = strings.TrimRight(c.APIBaseURL, "/")
	if c.ImageRatio == "" {
		c.ImageRatio = d.ImageRatio
	}
	if c.PrefetchThresholdRows < 0 {
		c.PrefetchThresholdRows = d.PrefetchThresholdRows
	}
	if c.FetchBatchLimit <= 0 {
		c.FetchBatchLimit = d.FetchBatchLimit
	}
	if c.PreviewDelayMS < 0 {
		c.PreviewDelayMS = d.PreviewDelayMS
	}
	switch c.DedupKey {
	case "title", "ref", "both":
	default:
		c.DedupKey = d.DedupKey
	}
	if c.ResolveConcurrency <= 0 {
		c.ResolveConcurrency = d.ResolveConcurrency
	}
	if c.RequestTimeoutMS <= 0 {
		c.RequestTimeoutMS = d.RequestTimeoutMS
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = d.RequestsPerSecond
	}
	c.Player = strings.TrimSpace(c.Player)
	if c.Cache.Path == "" {
		c.Cache.Path = d.Cache.Path
	}
	if c.Cache.TTLMinutes <= 0 {
		c.Cache.TTLMinutes = d.Cache.TTLMinutes
	}
}

func (c *Config) PreviewDelay() time.Duration {
	return time.Duration(c.PreviewDelayMS) * time.Millisecond
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLMinutes) * time.Minute
}

// LogDir resolves where debug.log goes. Debug mode without an explicit dir
// logs into the state dir.
func (c *Config) LogDir() string {
	if c.Log.Dir != "" {
		return c.Log.Dir
	}
	if c.Log.Debug {
		return StateDir()
	}
	return ""
}

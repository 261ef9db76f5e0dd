package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Paths     PathsConfig     `yaml:"paths"`
	Generate  GenerateConfig  `yaml:"generate"`
	FileStore FileStoreConfig `yaml:"file_store"`
	Download  DownloadConfig  `yaml:"download"`
	Retention RetentionConfig `yaml:"retention"`
}

type ServerConfig struct {
	Address string `yaml:"address"`
}

type PathsConfig struct {
	VideoCache string `yaml:"video_cache"`
	ImageCache string `yaml:"image_cache"`
}

type GenerateConfig struct {
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

type FileStoreConfig struct {
	BaseURL         string `yaml:"base_url"`
	PollIntervalSec int    `yaml:"poll_interval_sec"`
	PollAttempts    int    `yaml:"poll_attempts"`
	ListPageSize    int    `yaml:"list_page_size"`
}

type DownloadConfig struct {
	Binary  string `yaml:"binary"`
	Retries int    `yaml:"retries"`
}

type RetentionConfig struct {
	Days int `yaml:"days"`
}

const (
	defaultAddress      = ":8787"
	defaultVideoCache   = "cache/videos"
	defaultImageCache   = "cache/images"
	defaultModel        = "gemini-2.0-flash"
	defaultBaseURL      = "https://generativelanguage.googleapis.com"
	defaultPollInterval = 5
	defaultPollAttempts = 60
	defaultPageSize     = 100
	defaultBinary       = "yt-dlp"
	defaultRetries      = 5
	defaultRetention    = 7
)

// Load reads config.yaml and returns a Config struct. Missing file is not
// an error: everything has a usable default, and RETENTION_DAYS / PORT env
// variables override the file.
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = defaultAddress
	}
	if c.Paths.VideoCache == "" {
		c.Paths.VideoCache = defaultVideoCache
	}
	if c.Paths.ImageCache == "" {
		c.Paths.ImageCache = defaultImageCache
	}
	if c.Generate.Model == "" {
		c.Generate.Model = defaultModel
	}
	if c.Generate.MaxTokens == 0 {
		c.Generate.MaxTokens = 8192
	}
	if c.FileStore.BaseURL == "" {
		c.FileStore.BaseURL = defaultBaseURL
	}
	if c.FileStore.PollIntervalSec <= 0 {
		c.FileStore.PollIntervalSec = defaultPollInterval
	}
	if c.FileStore.PollAttempts <= 0 {
		c.FileStore.PollAttempts = defaultPollAttempts
	}
	if c.FileStore.ListPageSize <= 0 {
		c.FileStore.ListPageSize = defaultPageSize
	}
	if c.Download.Binary == "" {
		c.Download.Binary = defaultBinary
	}
	if c.Download.Retries <= 0 {
		c.Download.Retries = defaultRetries
	}
	if c.Retention.Days <= 0 {
		c.Retention.Days = defaultRetention
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("RETENTION_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days > 0 {
			c.Retention.Days = days
		}
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Address = ":" + v
	}
}

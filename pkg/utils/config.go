package utils

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration parses human-readable yaml values like "15s" or "2m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like \"30s\": %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full runtime configuration. Values come from an optional
// yaml file, then env vars override the sensitive / deploy-specific bits.
type Config struct {
	Crawler CrawlerConfig `yaml:"crawler"`
	Notify  NotifyConfig  `yaml:"notify"`
	Storage StorageConfig `yaml:"storage"`
}

type CrawlerConfig struct {
	BaseURL     string   `yaml:"base_url"`
	Concurrency int      `yaml:"concurrency"`
	Timeout     Duration `yaml:"timeout"`
}

type NotifyConfig struct {
	// BaseURL of the backend notification API. Empty disables dispatch.
	BaseURL string   `yaml:"base_url"`
	Timeout Duration `yaml:"timeout"`
}

type StorageConfig struct {
	// Backend is "local" or "s3".
	Backend string `yaml:"backend"`
	// Dir is the root for local artifacts (data/ and logs/ live under it).
	Dir string `yaml:"dir"`

	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"` // S3-compatible override
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

func DefaultConfig() Config {
	return Config{
		Crawler: CrawlerConfig{
			BaseURL:     "https://cgv.co.kr",
			Concurrency: 5,
			Timeout:     Duration(30 * time.Second),
		},
		Notify: NotifyConfig{
			Timeout: Duration(10 * time.Second),
		},
		Storage: StorageConfig{
			Backend: "local",
			Dir:     ".",
			Region:  "ap-northeast-2",
		},
	}
}

// LoadConfig reads cfg from path (missing file is fine, defaults apply) and
// then applies env overrides.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if cfg.Crawler.Concurrency <= 0 {
		cfg.Crawler.Concurrency = 5
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("CINEWATCH_NOTIFY_BASE_URL"); v != "" {
		cfg.Notify.BaseURL = v
	}
	if v := os.Getenv("CINEWATCH_CRAWLER_BASE_URL"); v != "" {
		cfg.Crawler.BaseURL = v
	}
	if v := os.Getenv("CINEWATCH_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Crawler.Concurrency = n
		}
	}
	if v := os.Getenv("CINEWATCH_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("S3_DATA_BUCKET"); v != "" {
		cfg.Storage.Bucket = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.Storage.Region = v
	}
	if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
		cfg.Storage.AccessKeyID = v
	}
	if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
		cfg.Storage.SecretAccessKey = v
	}
}

package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr string           `yaml:"listen_addr"`
	DB         DBConfig         `yaml:"db"`
	Review     ReviewConfig     `yaml:"review"`
	Corpus     CorpusConfig     `yaml:"corpus"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Auth       AuthConfig       `yaml:"auth"`
}

type DBConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type ReviewConfig struct {
	MinInvestmentAmount float64 `yaml:"min_investment_amount"`
	BatchConcurrency    int     `yaml:"batch_concurrency"`
}

type CorpusConfig struct {
	SeedPath string `yaml:"seed_path"`
}

type ClassifierConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
}

type AuthConfig struct {
	APIToken string `yaml:"api_token"`
}

func Load(path string) (Config, error) {
	// #nosec G304 -- path is operator-provided config path.
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	expanded := os.ExpandEnv(string(raw))
	expanded = strings.ReplaceAll(expanded, "\r\n", "\n")

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr is required")
	}
	if c.DB.Driver != "" && c.DB.DSN == "" {
		return fmt.Errorf("db.dsn is required when db.driver is set")
	}
	if c.Review.MinInvestmentAmount < 0 {
		return fmt.Errorf("review.min_investment_amount must be non-negative")
	}
	if c.Review.BatchConcurrency < 0 {
		return fmt.Errorf("review.batch_concurrency must be non-negative")
	}
	if c.Classifier.APIKey == "" {
		return fmt.Errorf("classifier.api_key is required")
	}
	if c.Classifier.TimeoutSeconds < 0 {
		return fmt.Errorf("classifier.timeout_seconds must be non-negative")
	}
	return nil
}

// Package config builds the process configuration once at start. Values come
// from, in increasing precedence: an optional TOML settings file, the dotenv
// credential file, and the process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/papercomputeco/linkpost/pkg/credentials"
)

const (
	defaultDBPath          = "data.db"
	defaultHTTPTimeout     = 30 * time.Second
	defaultOAuthTimeout    = 2 * time.Minute
	defaultLinkedInAPIBase = "https://api.linkedin.com/v2"
	defaultBraveSearchURL  = "https://api.search.brave.com/res/v1/web/search"
	defaultImageModel      = "gpt-image-1"
	defaultHTTPAddr        = "127.0.0.1:8080"
)

// Config is the explicit configuration passed to every component.
type Config struct {
	// FolderPath is the base directory for relative media paths.
	FolderPath string `toml:"folder_path" env:"FOLDER_PATH"`
	// ImageDir receives generated images. Defaults to FolderPath.
	ImageDir string `toml:"image_dir" env:"IMAGE_DIR"`
	DBPath   string `toml:"db_path" env:"DB_PATH"`

	BraveAPIKey  string `toml:"-" env:"BRAVE_API_KEY"`
	OpenAIAPIKey string `toml:"-" env:"OPENAI_API_KEY"`

	HTTPTimeout  time.Duration `toml:"http_timeout" env:"HTTP_TIMEOUT"`
	OAuthTimeout time.Duration `toml:"oauth_timeout" env:"OAUTH_TIMEOUT"`

	LinkedInAPIBase string `toml:"linkedin_api_base" env:"LINKEDIN_API_BASE"`
	BraveSearchURL  string `toml:"brave_search_url" env:"BRAVE_SEARCH_URL"`
	OpenAIBaseURL   string `toml:"openai_base_url" env:"OPENAI_BASE_URL"`
	ImageModel      string `toml:"image_model" env:"IMAGE_MODEL"`

	HTTPAddr string `toml:"http_addr" env:"HTTP_ADDR"`

	// OAuth endpoint overrides; empty values use the LinkedIn defaults.
	LinkedInAuthURL     string `toml:"linkedin_auth_url" env:"LINKEDIN_AUTH_URL"`
	LinkedInTokenURL    string `toml:"linkedin_token_url" env:"LINKEDIN_TOKEN_URL"`
	LinkedInUserInfoURL string `toml:"linkedin_userinfo_url" env:"LINKEDIN_USERINFO_URL"`

	Kafka KafkaConfig `toml:"kafka" envPrefix:"KAFKA_"`
}

// KafkaConfig enables post events when both Brokers and Topic are set.
type KafkaConfig struct {
	Brokers  []string `toml:"brokers" env:"BROKERS" envSeparator:","`
	Topic    string   `toml:"topic" env:"TOPIC"`
	ClientID string   `toml:"client_id" env:"CLIENT_ID"`
}

// Enabled reports whether Kafka publishing is configured.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0 && k.Topic != ""
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DBPath:          defaultDBPath,
		HTTPTimeout:     defaultHTTPTimeout,
		OAuthTimeout:    defaultOAuthTimeout,
		LinkedInAPIBase: defaultLinkedInAPIBase,
		BraveSearchURL:  defaultBraveSearchURL,
		ImageModel:      defaultImageModel,
		HTTPAddr:        defaultHTTPAddr,
	}
}

// Load builds a Config from the optional settings file, the credential file
// values and the process environment.
func Load(settingsPath string, fileValues map[string]string) (*Config, error) {
	return LoadFrom(settingsPath, fileValues, os.Environ())
}

// LoadFrom is Load with an explicit environment.
func LoadFrom(settingsPath string, fileValues map[string]string, environ []string) (*Config, error) {
	cfg := Default()

	if settingsPath != "" {
		if _, err := toml.DecodeFile(settingsPath, &cfg); err != nil {
			return nil, fmt.Errorf("parsing settings %s: %w", settingsPath, err)
		}
	}

	merged := make(map[string]string, len(fileValues))
	for k, v := range fileValues {
		merged[k] = v
	}
	for k, v := range env.ToMap(environ) {
		merged[k] = v
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Environment: merged}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.finalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) finalize() error {
	var err error

	if c.FolderPath, err = credentials.ExpandHome(strings.TrimSpace(c.FolderPath)); err != nil {
		return err
	}
	if strings.TrimSpace(c.ImageDir) == "" {
		c.ImageDir = c.FolderPath
	}
	if c.ImageDir == "" {
		c.ImageDir = "."
	}
	if c.ImageDir, err = credentials.ExpandHome(c.ImageDir); err != nil {
		return err
	}
	if c.DBPath, err = credentials.ExpandHome(strings.TrimSpace(c.DBPath)); err != nil {
		return err
	}

	return c.Validate()
}

// Validate checks the settings every component relies on.
func (c *Config) Validate() error {
	var errs []error
	if c.DBPath == "" {
		errs = append(errs, errors.New("db path is required"))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, errors.New("http timeout must be positive"))
	}
	if c.OAuthTimeout <= 0 {
		errs = append(errs, errors.New("oauth timeout must be positive"))
	}
	if c.LinkedInAPIBase == "" {
		errs = append(errs, errors.New("linkedin api base is required"))
	}
	if c.BraveSearchURL == "" {
		errs = append(errs, errors.New("brave search url is required"))
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		errs = append(errs, errors.New("kafka topic is required when brokers are set"))
	}
	return errors.Join(errs...)
}

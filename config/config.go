package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ryanlong1004/lucida-flow/constant"
)

const (
	DefaultRequestsPerMinute     = 30
	DefaultRequestsPerHour       = 500
	DefaultMinDelaySeconds       = 2.0
	DefaultRequestTimeoutSeconds = 30
	DefaultDownloadDir           = "./downloads"
	DefaultListenAddr            = ":8000"
)

type Config struct {
	BaseURL               string  `json:"base_url"                yaml:"base_url"`
	DownloadDir           string  `json:"download_dir"            yaml:"download_dir"`
	ListenAddr            string  `json:"listen_addr"             yaml:"listen_addr"`
	RequestsPerMinute     int     `json:"requests_per_minute"     yaml:"requests_per_minute"`
	RequestsPerHour       int     `json:"requests_per_hour"       yaml:"requests_per_hour"`
	MinDelaySeconds       float64 `json:"min_delay_seconds"       yaml:"min_delay_seconds"`
	RequestTimeoutSeconds int     `json:"request_timeout_seconds" yaml:"request_timeout_seconds"`
}

func Default() *Config {
	return &Config{
		BaseURL:               constant.DefaultBaseURL,
		DownloadDir:           DefaultDownloadDir,
		ListenAddr:            DefaultListenAddr,
		RequestsPerMinute:     DefaultRequestsPerMinute,
		RequestsPerHour:       DefaultRequestsPerHour,
		MinDelaySeconds:       DefaultMinDelaySeconds,
		RequestTimeoutSeconds: DefaultRequestTimeoutSeconds,
	}
}

func (cfg *Config) fillDefaults() {
	if cfg.BaseURL == "" {
		cfg.BaseURL = constant.DefaultBaseURL
	}
	if cfg.DownloadDir == "" {
		cfg.DownloadDir = DefaultDownloadDir
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if cfg.RequestsPerMinute == 0 {
		cfg.RequestsPerMinute = DefaultRequestsPerMinute
	}
	if cfg.RequestsPerHour == 0 {
		cfg.RequestsPerHour = DefaultRequestsPerHour
	}
	if cfg.MinDelaySeconds == 0 {
		cfg.MinDelaySeconds = DefaultMinDelaySeconds
	}
	if cfg.RequestTimeoutSeconds == 0 {
		cfg.RequestTimeoutSeconds = DefaultRequestTimeoutSeconds
	}
}

func (cfg *Config) validate() error {
	if cfg.RequestsPerMinute < 0 {
		return errors.New("requests per minute must not be negative")
	}

	if cfg.RequestsPerHour < 0 {
		return errors.New("requests per hour must not be negative")
	}

	if cfg.MinDelaySeconds < 0 {
		return errors.New("minimum request delay must not be negative")
	}

	if cfg.RequestTimeoutSeconds < 0 {
		return errors.New("request timeout must not be negative")
	}

	return nil
}

func FromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if nil != err {
		return nil, fmt.Errorf("failed to read config file %q: %v", filePath, err)
	}

	return FromString(string(data))
}

func FromString(data string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(data), &cfg); nil != err {
		return nil, fmt.Errorf("failed to unmarshal config: %v", err)
	}

	cfg.fillDefaults()

	if err := cfg.validate(); nil != err {
		return nil, fmt.Errorf("validation failed: %v", err)
	}

	return &cfg, nil
}

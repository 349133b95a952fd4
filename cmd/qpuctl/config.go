package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/qpuctl/internal/runtime"
)

// qpuctl config.toml key mapping to tool settings.
type fileConfig struct {
	SecretsPath    string `toml:"secrets_path"`
	JobConfigPath  string `toml:"job_config_path"`
	ResultsDir     string `toml:"results_dir"`
	MetricsAddr    string `toml:"metrics_addr"`
	BaseURL        string `toml:"base_url"`
	Channel        string `toml:"channel"`
	RequestTimeout string `toml:"request_timeout"`
	PollInterval   string `toml:"poll_interval"`
}

// toolConfig is the resolved runtime configuration for the qpuctl binary.
type toolConfig struct {
	SecretsPath   string
	JobConfigPath string
	ResultsDir    string
	MetricsAddr   string
	Runtime       runtime.Config
}

func defaultToolConfig() toolConfig {
	return toolConfig{
		SecretsPath:   ".env",
		JobConfigPath: filepath.Join("config", "job.toml"),
		ResultsDir:    "results",
		Runtime:       runtime.DefaultConfig(),
	}
}

// qpuctl loader for TOML config with default overlay.
func loadToolConfig(path string) (toolConfig, error) {
	cfg := defaultToolConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return toolConfig{}, fmt.Errorf("load qpuctl config: %w", err)
	}

	if meta.IsDefined("secrets_path") {
		cfg.SecretsPath = strings.TrimSpace(raw.SecretsPath)
	}
	if meta.IsDefined("job_config_path") {
		cfg.JobConfigPath = strings.TrimSpace(raw.JobConfigPath)
	}
	if meta.IsDefined("results_dir") {
		cfg.ResultsDir = strings.TrimSpace(raw.ResultsDir)
	}
	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}
	if meta.IsDefined("base_url") {
		cfg.Runtime.BaseURL = strings.TrimSpace(raw.BaseURL)
	}
	if meta.IsDefined("channel") {
		cfg.Runtime.Channel = strings.TrimSpace(raw.Channel)
	}
	if meta.IsDefined("request_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.RequestTimeout))
		if err != nil {
			return toolConfig{}, fmt.Errorf("load qpuctl config: request_timeout: %w", err)
		}
		cfg.Runtime.RequestTimeout = d
	}
	if meta.IsDefined("poll_interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.PollInterval))
		if err != nil {
			return toolConfig{}, fmt.Errorf("load qpuctl config: poll_interval: %w", err)
		}
		cfg.Runtime.PollInterval = d
	}

	if strings.TrimSpace(cfg.ResultsDir) == "" {
		return toolConfig{}, fmt.Errorf("load qpuctl config: results_dir must not be empty")
	}
	cfg.Runtime = cfg.Runtime.WithDefaults()
	return cfg, nil
}

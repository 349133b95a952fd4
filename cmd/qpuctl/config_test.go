package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadToolConfigDefaultsAndOverrides(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "config.toml")
	content := `
secrets_path = "/etc/qpuctl/.env"
job_config_path = "/etc/qpuctl/job.toml"
results_dir = "/var/lib/qpuctl/results"
metrics_addr = "127.0.0.1:9301"
base_url = "http://127.0.0.1:8080"
request_timeout = "10s"
poll_interval = "2s"
	`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := loadToolConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.SecretsPath != "/etc/qpuctl/.env" {
		t.Fatalf("unexpected secrets path: %q", cfg.SecretsPath)
	}
	if cfg.JobConfigPath != "/etc/qpuctl/job.toml" {
		t.Fatalf("unexpected job config path: %q", cfg.JobConfigPath)
	}
	if cfg.ResultsDir != "/var/lib/qpuctl/results" {
		t.Fatalf("unexpected results dir: %q", cfg.ResultsDir)
	}
	if cfg.MetricsAddr != "127.0.0.1:9301" {
		t.Fatalf("unexpected metrics addr: %q", cfg.MetricsAddr)
	}
	if cfg.Runtime.BaseURL != "http://127.0.0.1:8080" {
		t.Fatalf("unexpected base url: %q", cfg.Runtime.BaseURL)
	}
	if cfg.Runtime.RequestTimeout != 10*time.Second {
		t.Fatalf("unexpected request timeout: %v", cfg.Runtime.RequestTimeout)
	}
	if cfg.Runtime.PollInterval != 2*time.Second {
		t.Fatalf("unexpected poll interval: %v", cfg.Runtime.PollInterval)
	}
	// undefined keys keep their defaults
	if cfg.Runtime.Channel != "ibm_quantum" {
		t.Fatalf("unexpected channel: %q", cfg.Runtime.Channel)
	}
}

func TestLoadToolConfigEmptyPathIsAllDefaults(t *testing.T) {
	cfg, err := loadToolConfig("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.SecretsPath != ".env" || cfg.ResultsDir != "results" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadToolConfigRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("poll_interval = \"soon\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := loadToolConfig(path); err == nil {
		t.Fatalf("expected duration parse error")
	}
}

func TestLoadToolConfigRejectsEmptyResultsDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("results_dir = \"\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := loadToolConfig(path); err == nil {
		t.Fatalf("expected validation error")
	}
}

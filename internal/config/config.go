package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/danmuck/qpuctl/internal/circuit"
	"github.com/pelletier/go-toml/v2"
)

// JobConfig is the per-run execution configuration.
type JobConfig struct {
	Shots             int      `toml:"shots"`
	OptimizationLevel int      `toml:"optimization_level"`
	PreferredQPUs     []string `toml:"preferred_qpus"`
	MinQubits         int      `toml:"min_qubits"`
	ExpectedState     string   `toml:"expected_state"`
}

func DefaultJobConfig() JobConfig {
	return JobConfig{
		Shots:             4096,
		OptimizationLevel: 3,
		MinQubits:         2,
		ExpectedState:     circuit.TargetState,
	}
}

// LoadJobConfig reads and validates a TOML job config. Unset fields keep
// their defaults.
func LoadJobConfig(path string) (JobConfig, error) {
	cfg := DefaultJobConfig()
	if err := loadToml(path, &cfg); err != nil {
		return JobConfig{}, err
	}
	if cfg.MinQubits <= 0 {
		cfg.MinQubits = DefaultJobConfig().MinQubits
	}
	if strings.TrimSpace(cfg.ExpectedState) == "" {
		cfg.ExpectedState = DefaultJobConfig().ExpectedState
	}
	if err := ValidateJobConfig(cfg); err != nil {
		return JobConfig{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("job config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("job config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateJobConfig(cfg JobConfig) error {
	if cfg.Shots <= 0 {
		return fmt.Errorf("job config: shots must be positive, got %d", cfg.Shots)
	}
	if cfg.OptimizationLevel < 0 || cfg.OptimizationLevel > 3 {
		return fmt.Errorf("job config: optimization_level must be 0..3, got %d", cfg.OptimizationLevel)
	}
	if cfg.MinQubits <= 0 {
		return fmt.Errorf("job config: min_qubits must be positive, got %d", cfg.MinQubits)
	}
	if !isBitstring(cfg.ExpectedState) {
		return fmt.Errorf("job config: expected_state %q is not a bitstring", cfg.ExpectedState)
	}
	for i, name := range cfg.PreferredQPUs {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("job config: preferred_qpus[%d] is empty", i)
		}
	}
	return nil
}

func isBitstring(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] != '0' && s[i] != '1' {
			return false
		}
	}
	return true
}

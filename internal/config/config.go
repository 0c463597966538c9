// ============================================================================
// gocoro Config - YAML-driven executor and demo tuning
// ============================================================================
//
// Package: internal/config
// File: config.go
// Purpose: Load the run/bench/scenarios commands' tunables from a YAML file
//
// Grounded on internal/cli.Config in the teacher repo: a single nested
// struct with yaml tags per section, loaded with gopkg.in/yaml.v3, with
// every field defaulted so a partial config file (or no config file given at
// all) still produces a runnable configuration. Load reports an error for a
// path that cannot be read.
//
// ============================================================================

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete tunable surface for cmd/gocoro.
type Config struct {
	Executor struct {
		// Kind names an executor flavour: "threaded" (ThreadedSerialExecutor)
		// or "cooperative" (CooperativeSerialExecutor). The run and bench
		// commands do not read the Executor section; every scenario runs on
		// ThreadedSerialExecutor.
		Kind            string        `yaml:"kind"`
		MaxBlockingTime time.Duration `yaml:"max_blocking_time"`
		CheckEveryN     int           `yaml:"check_every_n"`
	} `yaml:"executor"`

	Scenarios struct {
		Iterations  int `yaml:"iterations"`
		Concurrency int `yaml:"concurrency"`
		SleepMillis int `yaml:"sleep_millis"`
	} `yaml:"scenarios"`

	Metrics struct {
		Enabled bool `yaml:"enabled"`
		Port    int  `yaml:"port"`
	} `yaml:"metrics"`
}

// Default returns a Config with sane defaults, as if loaded from an empty
// file.
func Default() *Config {
	cfg := &Config{}
	cfg.Executor.Kind = "threaded"
	cfg.Executor.MaxBlockingTime = 33 * time.Millisecond
	cfg.Executor.CheckEveryN = 16
	cfg.Scenarios.Iterations = 100
	cfg.Scenarios.Concurrency = 8
	cfg.Scenarios.SleepMillis = 10
	cfg.Metrics.Enabled = false
	cfg.Metrics.Port = 9090
	return cfg
}

// Load reads and parses the YAML config file at path, starting from
// Default() so any field the file omits keeps its default value.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	return cfg, nil
}

package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the YAML-backed configuration for coexecd, read from the file
// named by --config.
type Config struct {
	Executor struct {
		Workers int `yaml:"workers"`
	} `yaml:"executor"`

	Bench struct {
		Tasks int `yaml:"tasks"`
		// SleepEach is a time.ParseDuration string (e.g. "50ms"), not a
		// bare integer: yaml.v3 decodes time.Duration as a raw int64 of
		// nanoseconds, so a YAML scalar like "50ms" would fail to parse
		// against that type. Empty means no sleep.
		SleepEach   string `yaml:"sleep_each"`
		PollsToIdle int    `yaml:"polls_to_idle"`
	} `yaml:"bench"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Addr    string `yaml:"addr"`
	} `yaml:"metrics"`
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.Executor.Workers = 4
	cfg.Bench.Tasks = 1000
	cfg.Bench.SleepEach = ""
	cfg.Bench.PollsToIdle = 3
	cfg.Metrics.Enabled = false
	cfg.Metrics.Addr = ":9090"
	return cfg
}

func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config YAML: %w", err)
	}
	return cfg, nil
}

// sleepEachDuration parses Bench.SleepEach, treating an empty string as
// zero rather than an error.
func (c *Config) sleepEachDuration() (time.Duration, error) {
	if c.Bench.SleepEach == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Bench.SleepEach)
	if err != nil {
		return 0, fmt.Errorf("parse bench.sleep_each: %w", err)
	}
	return d, nil
}

package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/courtside/commander/go/internal/schedule"
)

// Config is the file-based service configuration. Environment variables
// cover secrets and connection details; the yaml file covers behavior.
type Config struct {
	Rules  schedule.Rules `yaml:"rules"`
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	NATS struct {
		URL           string `yaml:"url"`
		SubjectPrefix string `yaml:"subject_prefix"`
		StreamName    string `yaml:"stream_name"`
	} `yaml:"nats"`
	Outbox struct {
		PollInterval     time.Duration `yaml:"poll_interval"`
		FallbackInterval time.Duration `yaml:"fallback_interval"`
		BatchSize        int32         `yaml:"batch_size"`
	} `yaml:"outbox"`
}

func loadConfig(path string) (*Config, error) {
	config := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if config.Rules.QuarterMinutes <= 0 {
		config.Rules = schedule.DefaultRules()
	}
	return config, nil
}

func defaultConfig() *Config {
	config := &Config{Rules: schedule.DefaultRules()}
	config.Server.Port = "8080"
	config.NATS.URL = "nats://localhost:4222"
	config.NATS.SubjectPrefix = "plan.events"
	config.NATS.StreamName = "PLAN_EVENTS"
	config.Outbox.PollInterval = 5 * time.Second
	config.Outbox.FallbackInterval = 30 * time.Second
	config.Outbox.BatchSize = 100
	return config
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

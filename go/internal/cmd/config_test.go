package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	config, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 10, config.Rules.QuarterMinutes)
	assert.Equal(t, 6, config.Rules.SubstitutionMinutes)
	assert.Equal(t, "8080", config.Server.Port)
	assert.Equal(t, "nats://localhost:4222", config.NATS.URL)
	assert.Equal(t, 5*time.Second, config.Outbox.PollInterval)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rules:
  quarter_minutes: 12
  substitution_minutes: 4
server:
  port: "9090"
outbox:
  poll_interval: 1s
  batch_size: 25
`), 0o644))

	config, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 12, config.Rules.QuarterMinutes)
	assert.Equal(t, 4, config.Rules.SubstitutionMinutes)
	assert.Equal(t, "9090", config.Server.Port)
	assert.Equal(t, time.Second, config.Outbox.PollInterval)
	assert.Equal(t, int32(25), config.Outbox.BatchSize)
	assert.Equal(t, "plan.events", config.NATS.SubjectPrefix, "untouched sections keep defaults")
}

func TestLoadConfigInvalidYaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules: [not a map"), 0o644))

	_, err := loadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigBadRulesFallBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rules:
  quarter_minutes: 0
`), 0o644))

	config, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 10, config.Rules.QuarterMinutes)
}

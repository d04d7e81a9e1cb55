package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"OUTREACH_ADDR", "MESSAGING_MODE", "MESSAGING_PROVIDER", "KAFKA_BROKERS", "SURVEY_PAGE_URL", "MESSAGING_TIMEOUT", "DISABLE_RATE_LIMITING", "RATE_LIMIT_PUBLIC_PER_MINUTE"} {
		t.Setenv(key, "")
	}

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "simulated", cfg.Messaging.Mode)
	assert.Equal(t, "cloudapi", cfg.Messaging.Provider)
	assert.Equal(t, "55", cfg.Messaging.CountryCode)
	assert.Equal(t, 10*time.Second, cfg.Messaging.Timeout)
	assert.Equal(t, "/surveys", cfg.Survey.PageURL)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, 4, cfg.BatchConcurrency)
	assert.False(t, cfg.RateLimit.Disabled)
	assert.Equal(t, 30, cfg.RateLimit.PublicPerMinute)
	assert.Equal(t, 300, cfg.RateLimit.OperatorPerMinute)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("MESSAGING_MODE", "live")
	t.Setenv("MESSAGING_PROVIDER", "twilio")
	t.Setenv("MESSAGING_TIMEOUT", "3s")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("SURVEY_PAGE_URL", "https://survey.example/form/")
	t.Setenv("BATCH_CONCURRENCY", "8")
	t.Setenv("DISABLE_RATE_LIMITING", "true")
	t.Setenv("RATE_LIMIT_PUBLIC_PER_MINUTE", "5")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "live", cfg.Messaging.Mode)
	assert.Equal(t, "twilio", cfg.Messaging.Provider)
	assert.Equal(t, 3*time.Second, cfg.Messaging.Timeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "https://survey.example/form", cfg.Survey.PageURL)
	assert.Equal(t, 8, cfg.BatchConcurrency)
	assert.True(t, cfg.RateLimit.Disabled)
	assert.Equal(t, 5, cfg.RateLimit.PublicPerMinute)
}

func TestFromEnvRejectsMalformedValues(t *testing.T) {
	t.Setenv("MESSAGING_TIMEOUT", "soon")
	t.Setenv("BATCH_CONCURRENCY", "-1")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MESSAGING_TIMEOUT")
	assert.Contains(t, err.Error(), "BATCH_CONCURRENCY")
}

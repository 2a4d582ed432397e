package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgconfig "github.com/utafrali/ApartmentAdmin/pkg/config"
)

func load(t *testing.T, vars map[string]string) (*Config, error) {
	t.Helper()
	t.Setenv("HOME", "/home/admin")
	vars["HOME"] = "/home/admin"
	return Load(pkgconfig.WithEnvironment(vars))
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(t, map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "http://localhost:8000/api/", cfg.APIBaseURL)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.False(t, cfg.LogoutOn401)
	assert.True(t, cfg.CBEnabled)
	assert.Equal(t, 5*time.Minute, cfg.QueryStaleTime)
	assert.Equal(t, 10*time.Minute, cfg.QueryGCTime)
	assert.Equal(t, 1, cfg.QueryRetry)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.Equal(t, SessionBackendFile, cfg.SessionBackend)
	assert.Equal(t, "/home/admin/.adminctl/session.json", cfg.SessionFile)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "admin.console.audit", cfg.KafkaAuditTopic)
	assert.Equal(t, 8000, cfg.MockServerPort)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(t, map[string]string{
		"ADMIN_API_BASE_URL":    "https://admin.example.com/api/",
		"ADMIN_HTTP_TIMEOUT":    "5s",
		"ADMIN_LOGOUT_ON_401":   "true",
		"ADMIN_SESSION_BACKEND": "redis",
		"KAFKA_BROKERS":         "k1:9092,k2:9092",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://admin.example.com/api/", cfg.APIBaseURL)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.True(t, cfg.LogoutOn401)
	assert.Equal(t, SessionBackendRedis, cfg.SessionBackend)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
		want string
	}{
		{"relative base url", map[string]string{"ADMIN_API_BASE_URL": "/api/"}, "ADMIN_API_BASE_URL"},
		{"zero timeout", map[string]string{"ADMIN_HTTP_TIMEOUT": "0s"}, "ADMIN_HTTP_TIMEOUT"},
		{"negative retry", map[string]string{"ADMIN_QUERY_RETRY": "-1"}, "ADMIN_QUERY_RETRY"},
		{"unknown backend", map[string]string{"ADMIN_SESSION_BACKEND": "sqlite"}, "ADMIN_SESSION_BACKEND"},
		{"sample rate", map[string]string{"OTEL_SAMPLE_RATE": "1.5"}, "OTEL_SAMPLE_RATE"},
		{"port", map[string]string{"MOCK_SERVER_PORT": "70000"}, "MOCK_SERVER_PORT"},
		{"bad duration", map[string]string{"ADMIN_HTTP_TIMEOUT": "soon"}, "load adminctl config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := load(t, tt.vars)
			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_Production_RejectsDefaultMockSecret(t *testing.T) {
	cfg, err := load(t, map[string]string{"ENVIRONMENT": "production"})

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MOCK_JWT_SECRET must be explicitly set")
}

func TestLoad_Production_AcceptsExplicitSecret(t *testing.T) {
	cfg, err := load(t, map[string]string{
		"ENVIRONMENT":     "production",
		"MOCK_JWT_SECRET": "a-long-and-explicit-secret-for-prod-use",
	})
	require.NoError(t, err)
	assert.False(t, cfg.IsDevelopment())
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "0123456789abcdef")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "http://127.0.0.1:8000", cfg.APIURL)
	assert.Zero(t, cfg.APITimeout)
	assert.Equal(t, "file:payroll-console.db", cfg.StateDatabaseURL)
	assert.Equal(t, 4*time.Hour, cfg.ClientTTL)
	assert.Equal(t, 10, cfg.LoginRatePerMinute)
	assert.Equal(t, "/metrics", cfg.MetricsPath)
	assert.Equal(t, "VND", cfg.Currency)
	assert.Empty(t, cfg.Cors.TrustedOrigins)
}

func TestLoad_EnvAndFlags(t *testing.T) {
	t.Setenv("SESSION_SECRET", "0123456789abcdef")
	t.Setenv("PORT", "9000")
	t.Setenv("ENV", "production")
	t.Setenv("API_TIMEOUT", "15s")
	t.Setenv("SECURE_COOKIES", "true")
	t.Setenv("CORS_TRUSTED_ORIGINS", "payroll.example.com, admin.example.com ,")

	cfg, err := Load([]string{"-port", "9100"})
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Port, "flags override the environment")
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 15*time.Second, cfg.APITimeout)
	assert.True(t, cfg.SecureCookies)
	assert.Equal(t, []string{"payroll.example.com", "admin.example.com"}, cfg.Cors.TrustedOrigins)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{"missing secret", map[string]string{"SESSION_SECRET": ""}, nil},
		{"short secret", map[string]string{"SESSION_SECRET": "short"}, nil},
		{"negative timeout", map[string]string{"API_TIMEOUT": "-1s"}, nil},
		{"zero client ttl", map[string]string{"CLIENT_TTL": "0s"}, nil},
		{"bad rate", map[string]string{"LOGIN_RATE_PER_MINUTE": "0"}, nil},
		{"relative metrics path", map[string]string{"METRICS_PATH": "metrics"}, nil},
		{"unparsable duration", map[string]string{"CLIENT_TTL": "soon"}, nil},
		{"unknown flag", nil, []string{"-verbose"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SESSION_SECRET", "0123456789abcdef")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(tt.args)
			assert.Error(t, err)
		})
	}
}

func TestLoadCLI(t *testing.T) {
	t.Setenv("API_URL", "http://payroll.internal:8000")
	t.Setenv("PAYROLLCTL_KEY", "k")
	t.Setenv("CURRENCY", "")
	require.NoError(t, os.Unsetenv("CURRENCY"))

	t.Run("explicit state path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "state.db")
		t.Setenv("PAYROLLCTL_STATE", path)

		cfg, err := LoadCLI()
		require.NoError(t, err)
		assert.Equal(t, "http://payroll.internal:8000", cfg.APIURL)
		assert.Equal(t, path, cfg.StatePath)
		assert.Equal(t, "k", cfg.Key)
		assert.Equal(t, "VND", cfg.Currency)
	})

	t.Run("default state path", func(t *testing.T) {
		t.Setenv("PAYROLLCTL_STATE", "")
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())
		t.Setenv("HOME", t.TempDir())

		cfg, err := LoadCLI()
		require.NoError(t, err)
		assert.Equal(t, "state.db", filepath.Base(cfg.StatePath))
		assert.Equal(t, "payrollctl", filepath.Base(filepath.Dir(cfg.StatePath)))
	})
}

package auth_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	auth "github.com/goliatone/go-login"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := auth.DefaultConfig()

	assert.Equal(t, auth.DriverFile, cfg.Driver)
	assert.Equal(t, "sha256", cfg.Hash.Method)
	assert.Empty(t, cfg.Hash.Key)
	assert.Equal(t, 43200, cfg.LifetimeSeconds)
	assert.Equal(t, 12*time.Hour, cfg.Lifetime.Duration())
	assert.Equal(t, 5, cfg.MaxFailedLogins)
	assert.Equal(t, 15*time.Minute, cfg.LoginJailTime.Duration())
	assert.Equal(t, "auth_user", cfg.Session.Key)
	assert.Equal(t, "auth_user_provider", cfg.Session.ProviderKey())
	assert.Equal(t, 12*time.Hour, cfg.AutologinLifetime())
	assert.NoError(t, cfg.Validate())
}

func TestParseLifetime(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{input: "15 minutes", expected: 15 * time.Minute},
		{input: "12 hours", expected: 12 * time.Hour},
		{input: "2 weeks", expected: 14 * 24 * time.Hour},
		{input: "1 day 6 hours", expected: 30 * time.Hour},
		{input: "15m", expected: 15 * time.Minute},
		{input: "900", expected: 900 * time.Second},
		{input: "", expected: 0},
		{input: "  3 Minutes ", expected: 3 * time.Minute},
		{input: "soon", wantErr: true},
		{input: "5 fortnights", wantErr: true},
		{input: "minutes 5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := auth.ParseLifetime(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestIsWithinThresholdPeriod(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		at       time.Time
		window   time.Duration
		expected bool
	}{
		{name: "within 1 hour", at: now.Add(-30 * time.Minute), window: time.Hour, expected: true},
		{name: "outside 1 hour", at: now.Add(-2 * time.Hour), window: time.Hour, expected: false},
		{name: "exactly on the edge", at: now.Add(-time.Hour), window: time.Hour, expected: false},
		{name: "future time", at: now.Add(time.Minute), window: time.Hour, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, auth.IsWithinThresholdPeriod(tt.at, tt.window, now))
		})
	}
}

func TestParseConfig(t *testing.T) {
	raw := []byte(`
driver: static
hash:
  method: sha512
  key: yaml-key
lifetime: 2 weeks
max_failed_logins: 3
login_jail_time: 30 minutes
session:
  type: cookie
  key: me
users:
  admin: abc123
register: false
password:
  length_min: 8
use_captcha: true
oauth2:
  active: true
  providers:
    - name: github
      enable: true
      icon: gh
    - name: google
      enable: false
`)

	cfg := auth.DefaultConfig()
	require.NoError(t, auth.ParseConfig(raw, &cfg))

	assert.Equal(t, "static", cfg.Driver)
	assert.Equal(t, "sha512", cfg.Hash.Method)
	assert.Equal(t, "yaml-key", cfg.Hash.Key)
	assert.Equal(t, 14*24*time.Hour, cfg.Lifetime.Duration())
	assert.Equal(t, 43200, cfg.LifetimeSeconds, "omitted values keep defaults")
	assert.Equal(t, 3, cfg.MaxFailedLogins)
	assert.Equal(t, 30*time.Minute, cfg.LoginJailTime.Duration())
	assert.Equal(t, "me", cfg.Session.Key)
	assert.Equal(t, map[string]string{"admin": "abc123"}, cfg.Users)
	assert.False(t, cfg.Registration.Register)
	assert.Equal(t, 8, cfg.Registration.Password.LengthMin)
	assert.True(t, cfg.Registration.UseCaptcha)
	require.Len(t, cfg.OAuth2.Providers, 2)
	assert.True(t, cfg.OAuth2.Providers[0].Enabled)
	assert.Equal(t, "gh", cfg.OAuth2.Providers[0].Icon)
	assert.NoError(t, cfg.Validate())
}

func TestParseConfigInvalidDuration(t *testing.T) {
	cfg := auth.DefaultConfig()
	err := auth.ParseConfig([]byte("login_jail_time: whenever\n"), &cfg)
	require.Error(t, err)
	assert.True(t, auth.IsConfigurationError(err))
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*auth.Config)
	}{
		{name: "missing driver", mutate: func(c *auth.Config) { c.Driver = "" }},
		{name: "unknown hash", mutate: func(c *auth.Config) { c.Hash.Method = "crc32" }},
		{name: "negative max failures", mutate: func(c *auth.Config) { c.MaxFailedLogins = -1 }},
		{name: "jail without time", mutate: func(c *auth.Config) { c.LoginJailTime = 0 }},
		{name: "empty session key", mutate: func(c *auth.Config) { c.Session.Key = " " }},
		{name: "duplicate provider", mutate: func(c *auth.Config) {
			c.OAuth2.Providers = []auth.ProviderConfig{{Name: "github"}, {Name: "github"}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := auth.DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, auth.IsConfigurationError(err))
		})
	}

	t.Run("jail time not needed when disabled", func(t *testing.T) {
		cfg := auth.DefaultConfig()
		cfg.MaxFailedLogins = 0
		cfg.LoginJailTime = 0
		assert.NoError(t, cfg.Validate())
	})
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "auth.yaml")
	require.NoError(t, os.WriteFile(path, []byte("hash:\n  key: from-file\nmax_failed_logins: 7\n"), 0o600))

	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("AUTH_LOGIN_JAIL_TIME=\"2 hours\"\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("AUTH_LOGIN_JAIL_TIME") })

	t.Setenv("AUTH_HASH_KEY", "from-env")
	t.Setenv("AUTH_AUTOLOGIN_KEY", "remember-env")

	cfg, err := auth.LoadConfig(path, envPath)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Hash.Key)
	assert.Equal(t, "remember-env", cfg.AutologinKey)
	assert.Equal(t, 7, cfg.MaxFailedLogins)
	assert.Equal(t, 2*time.Hour, cfg.LoginJailTime.Duration())
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := auth.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, auth.IsConfigurationError(err))

	t.Setenv("AUTH_MAX_FAILED_LOGINS", "many")
	_, err = auth.LoadConfig("")
	require.Error(t, err)
	assert.True(t, auth.IsConfigurationError(err))
}

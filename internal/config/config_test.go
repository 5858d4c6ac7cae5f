package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, "memory", c.Storage.Driver)
	assert.Equal(t, 4*time.Second, c.Oracle.Timeout)
	assert.Equal(t, 100, c.Oracle.BatchSize)
	assert.Equal(t, 1000.0, c.Gate.FailClosedAboveAmount)
	assert.Equal(t, 10*time.Minute, c.Challenge.TTL)
	assert.Equal(t, 3, c.Challenge.MaxAttempts)
	assert.Equal(t, "memory", c.ChallengeStore())
	require.NoError(t, c.Validate())
}

func TestLoad_ExampleFile(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "configs", "config.example.yaml"))
	require.NoError(t, err)
	require.NoError(t, c.Validate())
	assert.Len(t, c.Oracle.Static.Entries, 3)
	assert.Equal(t, 2, c.Oracle.Static.Entries[0].DaysAgo)
	assert.Len(t, c.Members.Seed, 2)
	assert.Equal(t, time.Minute, c.Rate.Verify.Window)
}

func TestLoad_EnvOverrides(t *testing.T) {
	p := writeYAML(t, "server:\n  addr: \":9000\"\noracle:\n  timeout: 3s\n")
	t.Setenv("SIMGUARD_SERVER_ADDR", ":7070")
	t.Setenv("SIMGUARD_ORACLE_TIMEOUT", "5s")
	t.Setenv("SIMGUARD_GATE_FAIL_CLOSED_ABOVE_AMOUNT", "250.5")
	t.Setenv("SIMGUARD_SERVER_CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, ":7070", c.Server.Addr)
	assert.Equal(t, 5*time.Second, c.Oracle.Timeout)
	assert.Equal(t, 250.5, c.Gate.FailClosedAboveAmount)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.Server.CORSAllowedOrigins)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"timeout too short", func(c *Config) { c.Oracle.Timeout = 2 * time.Second }},
		{"timeout too long", func(c *Config) { c.Oracle.Timeout = 6 * time.Second }},
		{"unknown provider", func(c *Config) { c.Oracle.Provider = "carrier-pigeon" }},
		{"http without key", func(c *Config) { c.Oracle.Provider = "http" }},
		{"postgres without dsn", func(c *Config) { c.Storage.Driver = "postgres" }},
		{"short contact key", func(c *Config) { c.Storage.ContactKey = "abc" }},
		{"redis challenge store without addr", func(c *Config) { c.Challenge.Store = "redis" }},
		{"short signing key", func(c *Config) { c.Verification.SigningKey = "tiny" }},
		{"static provider in prod", func(c *Config) { c.App.Env = "prod" }},
		{"bad default method", func(c *Config) { c.Gate.DefaultMethod = "carrier_pigeon" }},
		{"zero ttl", func(c *Config) { c.Challenge.TTL = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := Load("")
			require.NoError(t, err)
			tc.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

package keel

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(FromEnviron(map[string]string{}))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "echo", cfg.Adapter)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "/static", cfg.StaticURL)
	assert.True(t, cfg.EnableRequestID)
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoadConfig_Precedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "keel.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
port: 9000
adapter: gin
shutdown_timeout: 5s
values:
  greeting: hello
  workers: 4
`), 0o644))

	cfg, err := LoadConfig(
		FromEnviron(map[string]string{
			ConfigFileEnv: file,
			"KEEL_PORT":   "9100",
			"KEEL_DEBUG":  "true",
		}),
		WithValues(map[string]any{"greeting": "hi"}),
	)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "gin", cfg.Adapter)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "hi", cfg.GetString("greeting", ""))
	assert.Equal(t, 4, cfg.GetInt("workers", 0))
}

func TestLoadConfig_Dotenv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(file, []byte("KEEL_ADAPTER=chi\nKEEL_PORT=7000\nKEEL_CORS_ALLOWED_ORIGINS=https://a.test,https://b.test\n"), 0o644))

	cfg, err := LoadConfig(
		FromEnviron(map[string]string{"KEEL_PORT": "7100"}),
		FromDotenv(file),
	)
	require.NoError(t, err)

	assert.Equal(t, "chi", cfg.Adapter)
	assert.Equal(t, 7100, cfg.Port)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CORSAllowedOrigins)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(FromEnviron(map[string]string{"KEEL_PORT": "99999"}))
	assert.ErrorIs(t, err, ErrImproperConfiguration)

	_, err = LoadConfig(FromEnviron(map[string]string{"KEEL_PORT": "eighty"}))
	assert.Error(t, err)

	_, err = LoadConfig(FromFile(filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, err)

	_, err = LoadConfig(FromDotenv(filepath.Join(t.TempDir(), "missing.env")))
	assert.Error(t, err)
}

func TestLoadConfig_AnyAdapterName(t *testing.T) {
	cfg, err := LoadConfig(FromEnviron(map[string]string{"KEEL_ADAPTER": "martini"}))
	require.NoError(t, err)
	assert.Equal(t, "martini", cfg.Adapter)

	cfg.Adapter = ""
	assert.ErrorIs(t, cfg.Validate(), ErrImproperConfiguration)
}

func TestConfig_Getters(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Set("name", "keel")
	cfg.Set("count", "12")
	cfg.Set("ratio", 2.0)
	cfg.Set("enabled", "true")
	cfg.Set("timeout", "250ms")
	cfg.Set("retry", 3)
	cfg.SetDefault("name", "ignored")
	cfg.SetDefault("fresh", "value")

	assert.Equal(t, "keel", cfg.GetString("name", ""))
	assert.Equal(t, "value", cfg.GetString("fresh", ""))
	assert.Equal(t, "fallback", cfg.GetString("missing", "fallback"))
	assert.Equal(t, 12, cfg.GetInt("count", 0))
	assert.Equal(t, 2, cfg.GetInt("ratio", 0))
	assert.Equal(t, 1, cfg.GetInt("name", 1))
	assert.True(t, cfg.GetBool("enabled", false))
	assert.True(t, cfg.GetBool("missing", true))
	assert.Equal(t, 250*time.Millisecond, cfg.GetDuration("timeout", 0))
	assert.Equal(t, 3*time.Second, cfg.GetDuration("retry", 0))

	v, ok := cfg.Get("missing")
	assert.False(t, ok)
	assert.Nil(t, v)
}

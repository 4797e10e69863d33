package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load(nil)
	require.NoError(t, err)

	want := Default()
	want.Auth.JWTSecret = testSecret
	assert.Equal(t, want.Server, cfg.Server)
	assert.Equal(t, want.Auth, cfg.Auth)
	assert.Equal(t, want.Worker, cfg.Worker)
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	for _, secret := range []string{"", "too-short"} {
		t.Setenv("JWT_SECRET", secret)
		_, err := Load(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JWT_SECRET")
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeFile(t, `
server:
  addr: ":9000"
  cors_origins: ["https://digest.example.com"]
auth:
  token_ttl: 2h
worker:
  timezone: UTC
  run_timeout: 15m
  summarize_parallelism: 8
feed:
  provider: rss2json
`)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("HTTP_ADDR", ":9100")
	t.Setenv("SUMMARIZE_PARALLELISM", "2")

	cfg, err := Load(nil)
	require.NoError(t, err)

	// 環境変数がファイルより優先される
	assert.Equal(t, ":9100", cfg.Server.Addr)
	assert.Equal(t, 2, cfg.Worker.SummarizeParallelism)
	// ファイルの値はそのまま
	assert.Equal(t, []string{"https://digest.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "UTC", cfg.Worker.Timezone)
	assert.Equal(t, 15*time.Minute, cfg.Worker.RunTimeout)
	assert.Equal(t, "rss2json", cfg.Feed.Provider)
	// 未指定の項目はデフォルト
	assert.Equal(t, Default().Server.MaxBodyBytes, cfg.Server.MaxBodyBytes)
}

func TestLoad_InvalidEnvFallsBack(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("AUTH_RATE_LIMIT", "-3")
	t.Setenv("TRACE_SAMPLE_RATIO", "2")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example.com , ,https://b.example.com")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Server.AuthRequestsPerMinute)
	assert.Equal(t, 0.0, cfg.Tracing.SampleRatio)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.CORSOrigins)
}

func TestReadFile_Errors(t *testing.T) {
	cfg := Default()

	err := ReadFile(filepath.Join(t.TempDir(), "missing.yaml"), &cfg)
	require.Error(t, err)

	err = ReadFile(writeFile(t, "server:\n  adr: \":1\"\n"), &cfg)
	require.Error(t, err, "unknown keys are rejected")
	assert.True(t, strings.Contains(err.Error(), "adr"), err.Error())

	err = ReadFile(writeFile(t, "auth:\n  token_ttl: soon\n"), &cfg)
	require.Error(t, err)
}

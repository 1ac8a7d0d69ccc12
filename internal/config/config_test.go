package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// writeFile - утилита записи временного файла конфигурации.
func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(data), 0o600))
	return p
}

// chdir - смена текущего рабочего каталога с авто-возвратом.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

const sampleYAML = `
env: "prod"
api:
  base_url: "https://slides.example.com/api/v1"
  timeout: "30s"
  user_agent: "slides-test"
credentials:
  backend: "redis"
  redis_url: "redis://127.0.0.1:6379/0"
  prefix: "t:"
  token_key: "tok"
  user_key: "usr"
routes:
  login_path: "/signin"
stub:
  host: "0.0.0.0"
  port: "9000"
  jwt_secret: "s3cr3t"
  token_ttl: "1h"
  issuer: "stub-test"
`

const minimalYAML = `
env: "stage"
`

const brokenYAML = `
env: [unclosed
`

func TestStubConfig_Addr(t *testing.T) {
	t.Parallel()
	cfg := StubConfig{Host: "0.0.0.0", Port: "8080"}
	require.Equal(t, "0.0.0.0:8080", cfg.Addr())
}

func TestLoad_WithExplicitPath_OK(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", sampleYAML)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	require.Equal(t, "prod", cfg.Env)
	require.Equal(t, "https://slides.example.com/api/v1", cfg.API.BaseURL)
	require.Equal(t, 30*time.Second, cfg.API.Timeout)
	require.Equal(t, "slides-test", cfg.API.UserAgent)

	require.Equal(t, BackendRedis, cfg.Credentials.Backend)
	require.Equal(t, "redis://127.0.0.1:6379/0", cfg.Credentials.RedisURL)
	require.Equal(t, "t:", cfg.Credentials.Prefix)
	require.Equal(t, "tok", cfg.Credentials.TokenKey)
	require.Equal(t, "usr", cfg.Credentials.UserKey)

	require.Equal(t, "/signin", cfg.Routes.LoginPath)

	require.Equal(t, "0.0.0.0:9000", cfg.Stub.Addr())
	require.Equal(t, "s3cr3t", cfg.Stub.JWTSecret)
	require.Equal(t, time.Hour, cfg.Stub.TokenTTL)
	require.Equal(t, "stub-test", cfg.Stub.Issuer)
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "min.yaml", minimalYAML)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	require.Equal(t, "stage", cfg.Env)
	require.Equal(t, 60*time.Second, cfg.API.Timeout)
	require.Equal(t, BackendFile, cfg.Credentials.Backend)
	require.Equal(t, "auth_token", cfg.Credentials.TokenKey)
	require.Equal(t, "user_info", cfg.Credentials.UserKey)
	require.Equal(t, "/login", cfg.Routes.LoginPath)
}

func TestLoad_WithExplicitPath_BrokenYAML(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "broken.yaml", brokenYAML)

	_, err := Load(cfgPath)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to read config")
}

func TestLoad_UnknownBackend(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "bad.yaml", `
credentials:
  backend: "cookie"
`)

	_, err := Load(cfgPath)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown credentials backend")
}

func TestLoad_RedisBackendRequiresURL(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "redis.yaml", `
credentials:
  backend: "redis"
`)

	_, err := Load(cfgPath)
	require.Error(t, err)
	require.Contains(t, err.Error(), "redis_url")
}

func TestLoad_WithCONFIG_PATH_OK(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "from_env_path.yaml", minimalYAML)
	t.Setenv("CONFIG_PATH", cfgPath)

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "stage", cfg.Env)
}

func TestLoad_WithLocalYAML_OK(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	writeFile(t, ".", "local.yaml", sampleYAML)
	t.Setenv("CONFIG_PATH", "")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "prod", cfg.Env)
	require.Equal(t, "/signin", cfg.Routes.LoginPath)
}

// Явный путь важнее CONFIG_PATH и local.yaml.
func TestLoad_Priority_ExplicitWinsOverEnvAndLocal(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	explicit := writeFile(t, dir, "explicit.yaml", `
env: "prod"
`)
	badFromEnv := writeFile(t, dir, "bad.yaml", brokenYAML)
	t.Setenv("CONFIG_PATH", badFromEnv)
	writeFile(t, ".", "local.yaml", `
env: "local"
`)

	cfg, err := Load(explicit)
	require.NoError(t, err)
	require.Equal(t, "prod", cfg.Env)
}

func TestLoad_EnvOverlay_OverridesValuesFromFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", sampleYAML)

	t.Setenv("API_TIMEOUT", "5s")
	t.Setenv("CREDENTIALS_BACKEND", "memory")
	t.Setenv("ROUTES_LOGIN_PATH", "/auth")

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	require.Equal(t, 5*time.Second, cfg.API.Timeout)
	require.Equal(t, BackendMemory, cfg.Credentials.Backend)
	require.Equal(t, "/auth", cfg.Routes.LoginPath)
}

func TestLoad_EnvOnly_OK(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("CONFIG_PATH", "")

	t.Setenv("ENV", "dev")
	t.Setenv("API_BASE_URL", "http://api.local/api/v1")
	t.Setenv("CREDENTIALS_BACKEND", "memory")

	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "dev", cfg.Env)
	require.Equal(t, "http://api.local/api/v1", cfg.API.BaseURL)
	require.Equal(t, BackendMemory, cfg.Credentials.Backend)
}

func TestMustLoad_PanicsOnError(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() {
		_ = MustLoad(filepath.Join(t.TempDir(), "nope.yaml"))
	})
}

// config - источник загрузки конфигурации клиента и стаба API.
//
// Источники (по убыванию приоритета):
//  1. явный путь --config;
//  2. CONFIG_PATH;
//  3. ./local.yaml;
//  4. только ENV (cleanenv).
package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Допустимые значения CredentialsConfig.Backend.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

type Config struct {
	Env         string            `yaml:"env" env:"ENV" env-default:"local"`
	API         APIConfig         `yaml:"api"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Routes      RoutesConfig      `yaml:"routes"`
	Stub        StubConfig        `yaml:"stub"`
}

// APIConfig - удалённый API и параметры исходящих вызовов.
type APIConfig struct {
	BaseURL   string        `yaml:"base_url"   env:"API_BASE_URL"   env-default:"http://127.0.0.1:8080/api/v1"`
	Timeout   time.Duration `yaml:"timeout"    env:"API_TIMEOUT"    env-default:"60s"`
	UserAgent string        `yaml:"user_agent" env:"API_USER_AGENT" env-default:"go-slides-client"`
}

// CredentialsConfig - где живут токен и профиль между запусками.
type CredentialsConfig struct {
	Backend  string `yaml:"backend"   env:"CREDENTIALS_BACKEND"   env-default:"file"`
	FilePath string `yaml:"file_path" env:"CREDENTIALS_FILE"      env-default:".slides/credentials.json"`
	RedisURL string `yaml:"redis_url" env:"CREDENTIALS_REDIS_URL"`
	Prefix   string `yaml:"prefix"    env:"CREDENTIALS_PREFIX"    env-default:"slides:cred:"`
	TokenKey string `yaml:"token_key" env:"CREDENTIALS_TOKEN_KEY" env-default:"auth_token"`
	UserKey  string `yaml:"user_key"  env:"CREDENTIALS_USER_KEY"  env-default:"user_info"`
}

// RoutesConfig - навигация клиента.
type RoutesConfig struct {
	LoginPath string `yaml:"login_path" env:"ROUTES_LOGIN_PATH" env-default:"/login"`
}

// StubConfig - локальный стаб удалённого API (cmd/slides-stub).
type StubConfig struct {
	Host      string        `yaml:"host"       env:"STUB_HOST"       env-default:"127.0.0.1"`
	Port      string        `yaml:"port"       env:"STUB_PORT"       env-default:"8080"`
	JWTSecret string        `yaml:"jwt_secret" env:"STUB_JWT_SECRET" env-default:"dev-secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"  env:"STUB_TOKEN_TTL"  env-default:"24h"`
	Issuer    string        `yaml:"issuer"     env:"STUB_ISSUER"     env-default:"slides-stub"`
	Timeout   time.Duration `yaml:"timeout"    env:"STUB_TIMEOUT"    env-default:"15s"`
}

func (s StubConfig) Addr() string { return net.JoinHostPort(s.Host, s.Port) }

// Validate проверяет значения, которые cleanenv проверить не может.
func (c *Config) Validate() error {
	const op = "config.Validate"

	switch c.Credentials.Backend {
	case BackendMemory, BackendFile:
	case BackendRedis:
		if c.Credentials.RedisURL == "" {
			return fmt.Errorf("%s: credentials.redis_url is required for redis backend", op)
		}
	default:
		return fmt.Errorf("%s: unknown credentials backend %q", op, c.Credentials.Backend)
	}

	if c.API.BaseURL == "" {
		return fmt.Errorf("%s: api.base_url is empty", op)
	}

	if c.API.Timeout <= 0 {
		return fmt.Errorf("%s: api.timeout must be > 0", op)
	}

	return nil
}

// MustLoad - паника при ошибке загрузки.
func MustLoad(path string) *Config {
	cfg, err := Load(path)

	if err != nil {
		panic(err)
	}

	return cfg
}

func Load(path string) (*Config, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func read(path string) (*Config, error) {
	var cfg Config

	tryRead := func(p string) (*Config, error) {
		if p == "" {
			return nil, fmt.Errorf("empty config path")
		}

		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	// 1) --config
	if path != "" {
		return tryRead(path)
	}

	// 2) CONFIG_PATH
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return tryRead(envPath)
	}

	// 3) ./local.yaml
	if _, err := os.Stat("local.yaml"); err == nil {
		return tryRead("local.yaml")
	}

	// 4) только ENV
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	return &cfg, nil
}

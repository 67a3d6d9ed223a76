// Package config carga la configuración del core desde YAML con overrides
// por variables de entorno (y .env / .env.dev via godotenv).
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Log struct {
		// debug | info | warn | error
		Level string `yaml:"level"`
	} `yaml:"log"`

	Scope struct {
		// sensitive (default) | fold
		CasePolicy string `yaml:"case_policy"`
	} `yaml:"scope"`

	Storage struct {
		// memory | postgres
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"storage"`

	Cache struct {
		// memory | redis
		Kind       string `yaml:"kind"`
		DefaultTTL string `yaml:"default_ttl"`
		Redis      struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	Keys struct {
		// Dir vacío = clave efímera por proceso (se regenera en cada restart
		// e invalida los tokens previos; solo para dev).
		Dir string `yaml:"dir"`
	} `yaml:"keys"`
}

// LoadDotenv carga .env y .env.dev si existen. Llamar antes de Load para que
// los overrides de entorno estén disponibles.
func LoadDotenv() {
	_ = godotenv.Load(".env")     // base
	_ = godotenv.Load(".env.dev") // dev overrides
}

// Load lee el YAML en path, aplica defaults y overrides de entorno.
// path vacío = solo defaults + entorno.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	// sane defaults
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Scope.CasePolicy == "" {
		c.Scope.CasePolicy = "sensitive"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.DefaultTTL == "" {
		c.Cache.DefaultTTL = "2m"
	}

	// env overrides
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = v
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := getEnvStr("SCOPE_CASE_POLICY"); ok {
		c.Scope.CasePolicy = v
	}
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("CACHE_REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvInt("CACHE_REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("KEYS_DIR"); ok {
		c.Keys.Dir = v
	}

	return &c, nil
}

// CacheTTL parsea Cache.DefaultTTL; cae a 2m si es inválido.
func (c *Config) CacheTTL() time.Duration {
	if d, err := time.ParseDuration(strings.TrimSpace(c.Cache.DefaultTTL)); err == nil && d > 0 {
		return d
	}
	return 2 * time.Minute
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

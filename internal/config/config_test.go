package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if c.App.Env != "dev" || c.Log.Level != "info" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.Storage.Driver != "memory" || c.Cache.Kind != "memory" {
		t.Fatalf("unexpected storage/cache defaults: %+v", c)
	}
	if c.Scope.CasePolicy != "sensitive" {
		t.Fatalf("scope policy default must be case-sensitive, got %q", c.Scope.CasePolicy)
	}
	if c.CacheTTL() != 2*time.Minute {
		t.Fatalf("unexpected cache TTL: %v", c.CacheTTL())
	}
}

func TestLoad_YAML(t *testing.T) {
	path := writeYAML(t, `
app:
  env: prod
log:
  level: warn
storage:
  driver: postgres
  dsn: postgres://localhost/authz
cache:
  kind: redis
  default_ttl: 30s
  redis:
    addr: localhost:6379
    db: 2
keys:
  dir: /var/lib/authz/keys
`)
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.App.Env != "prod" || c.Log.Level != "warn" {
		t.Fatalf("yaml not applied: %+v", c)
	}
	if c.Storage.Driver != "postgres" || c.Cache.Redis.DB != 2 {
		t.Fatalf("yaml not applied: %+v", c)
	}
	if c.CacheTTL() != 30*time.Second {
		t.Fatalf("unexpected TTL: %v", c.CacheTTL())
	}
	if c.Keys.Dir != "/var/lib/authz/keys" {
		t.Fatalf("keys dir not applied: %q", c.Keys.Dir)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("STORAGE_DSN", "postgres://db/override")
	t.Setenv("SCOPE_CASE_POLICY", "fold")
	t.Setenv("CACHE_REDIS_DB", "7")

	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if c.Storage.Driver != "postgres" || c.Storage.DSN != "postgres://db/override" {
		t.Fatalf("env override not applied: %+v", c)
	}
	if c.Scope.CasePolicy != "fold" || c.Cache.Redis.DB != 7 {
		t.Fatalf("env override not applied: %+v", c)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestCacheTTL_InvalidFallsBack(t *testing.T) {
	c := &Config{}
	c.Cache.DefaultTTL = "bogus"
	if c.CacheTTL() != 2*time.Minute {
		t.Fatalf("expected fallback TTL, got %v", c.CacheTTL())
	}
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func defaulted(mutate func(*Config)) Config {
	cfg := Config{}
	if mutate != nil {
		mutate(&cfg)
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := defaulted(nil)

	if cfg.HTTP.Port != 8000 {
		t.Errorf("expected Port=8000, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.ReadTimeoutSec != 10 || cfg.HTTP.WriteTimeoutSec != 60 || cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("unexpected http timeouts: %+v", cfg.HTTP)
	}
	if cfg.HTTP.MaxBodyBytes != 8<<20 {
		t.Errorf("expected MaxBodyBytes=8MiB, got %d", cfg.HTTP.MaxBodyBytes)
	}
	if cfg.Embedding.QueryInstruction != "query: " || cfg.Embedding.DocumentInstruction != "passage: " {
		t.Errorf("unexpected instructions: %q %q", cfg.Embedding.QueryInstruction, cfg.Embedding.DocumentInstruction)
	}
	if !*cfg.Embedding.NativeBatch {
		t.Error("expected native batch by default")
	}
	if cfg.Cache.Enabled() {
		t.Error("expected cache disabled by default")
	}
	if cfg.Cache.TTL().Hours() != 7*24 {
		t.Errorf("expected 7 day ttl, got %v", cfg.Cache.TTL())
	}
	if *cfg.Weighting.MinWeight != 0.05 || *cfg.Weighting.MaxWeight != 0.45 {
		t.Errorf("unexpected bounds: %v %v", *cfg.Weighting.MinWeight, *cfg.Weighting.MaxWeight)
	}
	if !*cfg.Weighting.Rounding.Enabled || *cfg.Weighting.Rounding.Decimals != 2 {
		t.Error("expected rounding to 2 decimals by default")
	}
	if cfg.Limits.MaxCriteria != 50 {
		t.Errorf("expected MaxCriteria=50, got %d", cfg.Limits.MaxCriteria)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	zero := 0.0
	off := false
	cfg := defaulted(func(c *Config) {
		c.HTTP = HTTPConfig{Port: 9000, ReadTimeoutSec: 30, WriteTimeoutSec: 5}
		c.Weighting.MinWeight = &zero
		c.Weighting.Rounding.Enabled = &off
		c.Cache.Driver = "VALKEY"
		c.Cache.Addrs = []string{"localhost:6379"}
	})

	if cfg.HTTP.Port != 9000 || cfg.HTTP.ReadTimeoutSec != 30 || cfg.HTTP.WriteTimeoutSec != 5 {
		t.Errorf("http overridden: %+v", cfg.HTTP)
	}
	if *cfg.Weighting.MinWeight != 0 {
		t.Errorf("explicit zero min_weight replaced: %v", *cfg.Weighting.MinWeight)
	}
	if *cfg.Weighting.Rounding.Enabled {
		t.Error("explicit rounding.enabled=false replaced")
	}
	if cfg.Cache.Driver != CacheDriverValkey {
		t.Errorf("expected lowercased driver, got %q", cfg.Cache.Driver)
	}
}

func TestValidate(t *testing.T) {
	lo, hi := 0.5, 0.4
	decimals := 7

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"port", func(c *Config) { c.HTTP.Port = 70000 }, "http.port"},
		{"cache driver", func(c *Config) { c.Cache.Driver = "memcached" }, "cache.driver"},
		{"cache addrs", func(c *Config) { c.Cache.Driver = "redis" }, "cache.addrs"},
		{"metric", func(c *Config) { c.Weighting.Metric = "jaccard" }, "weighting.metric"},
		{"method", func(c *Config) { c.Weighting.Method = "zscore" }, "weighting.normalization"},
		{"bounds", func(c *Config) { c.Weighting.MinWeight, c.Weighting.MaxWeight = &lo, &hi }, "min_weight < max_weight"},
		{"iterations", func(c *Config) { c.Weighting.MaxIterations = -1 }, "max_iterations"},
		{"tolerance", func(c *Config) { c.Weighting.Tolerance = -1 }, "tolerance"},
		{"decimals", func(c *Config) { c.Weighting.Rounding.Decimals = &decimals }, "decimals"},
		{"dimensions", func(c *Config) { c.Embedding.Dimensions = -3 }, "dimensions"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaulted(tc.mutate)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("expected error mentioning %q, got %q", tc.want, err.Error())
			}
		})
	}
}

func TestValidate_FinestDecimals(t *testing.T) {
	decimals := 6
	cfg := defaulted(func(c *Config) { c.Weighting.Rounding.Decimals = &decimals })
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected 6 decimals to be valid, got %v", err)
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("CRITWEIGHT_TEST_KEY", "sk-test")

	cfg, err := Parse([]byte(`
http:
  port: ${CRITWEIGHT_TEST_PORT:-8123}
embedding:
  api_key: ${CRITWEIGHT_TEST_KEY}
  model: intfloat/e5-small
weighting:
  metric: dot
  rounding:
    decimals: 3
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 8123 {
		t.Errorf("expected default from expression, got %d", cfg.HTTP.Port)
	}
	if cfg.Embedding.APIKey != "sk-test" {
		t.Errorf("expected env expansion, got %q", cfg.Embedding.APIKey)
	}
	if cfg.Weighting.Metric != "dot" || *cfg.Weighting.Rounding.Decimals != 3 {
		t.Errorf("unexpected weighting: %+v", cfg.Weighting)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Error("expected yaml error")
	}
	if _, err := Parse([]byte("cache:\n  driver: redis\n")); err == nil {
		t.Error("expected validation error")
	}
}

func TestLoad_RepoConfigs(t *testing.T) {
	for _, env := range []string{"local", "prod"} {
		t.Run(env, func(t *testing.T) {
			if _, err := Load(env); err != nil {
				t.Fatalf("load %s: %v", env, err)
			}
		})
	}
}

func TestLoad_Missing(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	if _, err := Load("does-not-exist"); err == nil {
		t.Error("expected error for missing config")
	}
	if _, err := os.Stat(filepath.Join(dir, "config")); err == nil {
		t.Error("load must not create files")
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if GetEnv() != "local" {
		t.Errorf("expected local, got %q", GetEnv())
	}
	t.Setenv("ENV", "prod")
	if GetEnv() != "prod" {
		t.Errorf("expected prod, got %q", GetEnv())
	}
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/critweight/internal/domain/rounding"
)

// Cache drivers.
const (
	CacheDriverNone   = "none"
	CacheDriverRedis  = "redis"
	CacheDriverValkey = "valkey"
)

// Config holds the critweight service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Cache     CacheConfig     `yaml:"cache"`
	Weighting WeightingConfig `yaml:"weighting"`
	Limits    LimitsConfig    `yaml:"limits"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. No keys disables auth.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int   `yaml:"port"`
	ReadTimeoutSec  int   `yaml:"read_timeout_sec"`
	WriteTimeoutSec int   `yaml:"write_timeout_sec"`
	ShutdownSec     int   `yaml:"shutdown_timeout_sec"`
	MaxBodyBytes    int64 `yaml:"max_body_bytes"`
}

// EmbeddingConfig holds the OpenAI-compatible embedding provider settings.
type EmbeddingConfig struct {
	Provider            string `yaml:"provider"` // label for metrics and logs (default: openai)
	APIKey              string `yaml:"api_key"`
	BaseURL             string `yaml:"base_url"`
	Model               string `yaml:"model"`
	Dimensions          int    `yaml:"dimensions"`
	QueryInstruction    string `yaml:"query_instruction"`
	DocumentInstruction string `yaml:"document_instruction"`
	NativeBatch         *bool  `yaml:"native_batch"` // default true
	Workers             int    `yaml:"workers"`      // pool size when native_batch is false
	TimeoutSec          int    `yaml:"timeout_sec"`
}

// CacheConfig holds embedding cache settings.
type CacheConfig struct {
	Driver           string   `yaml:"driver"` // none, redis, valkey (default: none)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	TTLSec           int      `yaml:"ttl_sec"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// WeightingConfig holds the default pipeline parameters.
type WeightingConfig struct {
	Metric        string         `yaml:"metric"`
	Method        string         `yaml:"normalization"`
	MinWeight     *float64       `yaml:"min_weight"`
	MaxWeight     *float64       `yaml:"max_weight"`
	MaxIterations int            `yaml:"max_iterations"`
	Tolerance     float64        `yaml:"tolerance"`
	Rounding      RoundingConfig `yaml:"rounding"`
}

// RoundingConfig controls sum-preserving rounding of the final weights.
type RoundingConfig struct {
	Enabled  *bool `yaml:"enabled"` // default true
	Decimals *int  `yaml:"decimals"`
}

// LimitsConfig holds request limits.
type LimitsConfig struct {
	MaxCriteria int `yaml:"max_criteria"`
}

// Enabled reports whether the embedding cache is configured.
func (c CacheConfig) Enabled() bool {
	return c.Driver != CacheDriverNone
}

// TTL returns the cache entry lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSec) * time.Second
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file in the working directory, if present, is loaded into the environment first.
func Load(env string) (Config, error) {
	_ = godotenv.Load()

	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands env variables in data, decodes it, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		c.HTTP.MaxBodyBytes = 8 << 20
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "intfloat/multilingual-e5-large"
	}
	if c.Embedding.QueryInstruction == "" {
		c.Embedding.QueryInstruction = "query: "
	}
	if c.Embedding.DocumentInstruction == "" {
		c.Embedding.DocumentInstruction = "passage: "
	}
	if c.Embedding.NativeBatch == nil {
		c.Embedding.NativeBatch = boolPtr(true)
	}
	if c.Embedding.Workers <= 0 {
		c.Embedding.Workers = 8
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 30
	}

	if c.Cache.Driver == "" {
		c.Cache.Driver = CacheDriverNone
	}
	c.Cache.Driver = strings.ToLower(c.Cache.Driver)
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 7 * 24 * 3600
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}

	if c.Weighting.Metric == "" {
		c.Weighting.Metric = "cosine"
	}
	if c.Weighting.Method == "" {
		c.Weighting.Method = "softmax"
	}
	if c.Weighting.MinWeight == nil {
		c.Weighting.MinWeight = floatPtr(0.05)
	}
	if c.Weighting.MaxWeight == nil {
		c.Weighting.MaxWeight = floatPtr(0.45)
	}
	if c.Weighting.MaxIterations == 0 {
		c.Weighting.MaxIterations = 100
	}
	if c.Weighting.Tolerance == 0 {
		c.Weighting.Tolerance = 1e-6
	}
	if c.Weighting.Rounding.Enabled == nil {
		c.Weighting.Rounding.Enabled = boolPtr(true)
	}
	if c.Weighting.Rounding.Decimals == nil {
		c.Weighting.Rounding.Decimals = intPtr(2)
	}

	if c.Limits.MaxCriteria <= 0 {
		c.Limits.MaxCriteria = 50
	}
}

// Validate checks the configuration for correctness. Call after ApplyDefaults.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Cache.Driver {
	case CacheDriverNone:
	case CacheDriverRedis, CacheDriverValkey:
		if len(c.Cache.Addrs) == 0 {
			return fmt.Errorf("cache.addrs is required for driver %q", c.Cache.Driver)
		}
	default:
		return fmt.Errorf("cache.driver must be one of none, redis, valkey, got %q", c.Cache.Driver)
	}

	switch strings.ToLower(c.Weighting.Metric) {
	case "cosine", "dot", "euclidean":
	default:
		return fmt.Errorf("weighting.metric must be cosine, dot or euclidean, got %q", c.Weighting.Metric)
	}
	switch strings.ToLower(c.Weighting.Method) {
	case "softmax", "minmax":
	default:
		return fmt.Errorf("weighting.normalization must be softmax or minmax, got %q", c.Weighting.Method)
	}

	lo, hi := *c.Weighting.MinWeight, *c.Weighting.MaxWeight
	if lo < 0 || hi > 1 || lo >= hi {
		return fmt.Errorf("weighting bounds must satisfy 0 <= min_weight < max_weight <= 1, got [%g, %g]", lo, hi)
	}
	if c.Weighting.MaxIterations <= 0 {
		return fmt.Errorf("weighting.max_iterations must be positive, got %d", c.Weighting.MaxIterations)
	}
	if c.Weighting.Tolerance <= 0 {
		return fmt.Errorf("weighting.tolerance must be positive, got %g", c.Weighting.Tolerance)
	}
	if d := *c.Weighting.Rounding.Decimals; d < 0 || d > rounding.MaxDecimals {
		return fmt.Errorf("weighting.rounding.decimals must be between 0 and %d, got %d", rounding.MaxDecimals, d)
	}

	if c.Embedding.Dimensions < 0 {
		return fmt.Errorf("embedding.dimensions must not be negative, got %d", c.Embedding.Dimensions)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}

func boolPtr(v bool) *bool { return &v }

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

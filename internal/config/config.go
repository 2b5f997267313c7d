package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// CacheTTLSeconds is how long fetched documents, TOCs and graphs stay cached.
	CacheTTLSeconds int `json:"cache_ttl_seconds"`

	// SpecVersions is a comma-separated allowlist of specification versions
	// (e.g. "1.1,1.2"). Empty means every version is visible.
	// Specifications without a version are always visible.
	SpecVersions string `json:"spec_versions,omitempty"`

	// FetchTimeoutSeconds bounds a single upstream fetch, redirects included.
	FetchTimeoutSeconds int `json:"fetch_timeout_seconds"`

	// MaxBodyBytes caps the size of a fetched document or namespace.
	MaxBodyBytes int64 `json:"max_body_bytes"`

	// RateLimitPerSecond limits outbound fetches. 0 disables limiting.
	RateLimitPerSecond float64 `json:"rate_limit_per_second"`

	// PersistCache stores raw fetched bodies in ldspec.db so they survive restarts.
	PersistCache bool `json:"persist_cache,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty"`
}

// Environment variables that override file configuration.
const (
	EnvSpecVersions = "SPEC_VERSIONS"
	EnvCacheTTL     = "CACHE_TTL"
	EnvFetchTimeout = "LDSPEC_FETCH_TIMEOUT"
	EnvPersistCache = "LDSPEC_PERSIST_CACHE"
	EnvLogLevel     = "LDSPEC_LOG_LEVEL"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		CacheTTLSeconds:     86400,
		FetchTimeoutSeconds: 30,
		MaxBodyBytes:        20 << 20,
		RateLimitPerSecond:  5,
		LogLevel:            "info",
	}
}

// Load loads configuration from baseDir/config.json, then applies environment
// overrides. A .env file in the working directory is read first if present.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.ldspec.
func Load(baseDir string) (*Config, error) {
	// Missing .env is the common case.
	_ = godotenv.Load()

	cfg, err := loadFile(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	if err := ApplyEnv(cfg, os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// ApplyEnv overrides cfg with values from the environment lookup function.
// Invalid numeric values are reported rather than silently ignored.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	if v, ok := lookup(getenv, EnvSpecVersions); ok {
		cfg.SpecVersions = v
	}
	if v, ok := lookup(getenv, EnvCacheTTL); ok {
		ttl, err := strconv.Atoi(v)
		if err != nil || ttl < 0 {
			return fmt.Errorf("invalid %s %q: must be a non-negative integer", EnvCacheTTL, v)
		}
		cfg.CacheTTLSeconds = ttl
	}
	if v, ok := lookup(getenv, EnvFetchTimeout); ok {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return fmt.Errorf("invalid %s %q: must be a positive integer", EnvFetchTimeout, v)
		}
		cfg.FetchTimeoutSeconds = secs
	}
	if v, ok := lookup(getenv, EnvPersistCache); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPersistCache, v, err)
		}
		cfg.PersistCache = b
	}
	if v, ok := lookup(getenv, EnvLogLevel); ok {
		cfg.LogLevel = v
	}
	return nil
}

func lookup(getenv func(string) string, key string) (string, bool) {
	v := strings.TrimSpace(getenv(key))
	return v, v != ""
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.CacheTTLSeconds = overlay.CacheTTLSeconds
	if result.CacheTTLSeconds == 0 {
		result.CacheTTLSeconds = base.CacheTTLSeconds
	}

	result.FetchTimeoutSeconds = overlay.FetchTimeoutSeconds
	if result.FetchTimeoutSeconds == 0 {
		result.FetchTimeoutSeconds = base.FetchTimeoutSeconds
	}

	result.MaxBodyBytes = overlay.MaxBodyBytes
	if result.MaxBodyBytes == 0 {
		result.MaxBodyBytes = base.MaxBodyBytes
	}

	result.RateLimitPerSecond = overlay.RateLimitPerSecond
	if result.RateLimitPerSecond == 0 {
		result.RateLimitPerSecond = base.RateLimitPerSecond
	}

	result.SpecVersions = overlay.SpecVersions
	if result.SpecVersions == "" {
		result.SpecVersions = base.SpecVersions
	}

	result.LogLevel = overlay.LogLevel
	if result.LogLevel == "" {
		result.LogLevel = base.LogLevel
	}

	// Booleans: overlay wins if true, else base
	result.PersistCache = base.PersistCache || overlay.PersistCache

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// CacheTTL returns the cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// FetchTimeout returns the fetch timeout as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// AllowedVersions parses SpecVersions into a set, or nil if all versions are allowed.
func (c *Config) AllowedVersions() map[string]bool {
	if strings.TrimSpace(c.SpecVersions) == "" {
		return nil
	}
	allowed := make(map[string]bool)
	for _, v := range strings.Split(c.SpecVersions, ",") {
		if v = strings.TrimSpace(v); v != "" {
			allowed[v] = true
		}
	}
	if len(allowed) == 0 {
		return nil
	}
	return allowed
}

// VersionAllowed reports whether a specification with the given version is visible.
// An empty version is always visible.
func (c *Config) VersionAllowed(version string) bool {
	allowed := c.AllowedVersions()
	if allowed == nil || version == "" {
		return true
	}
	return allowed[version]
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}

package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/glancehq/glance/internal/capture"
)

// Provider holds the Gemini API settings.
type Provider struct {
	// APIKey authenticates against the Gemini API. The GEMINI_API_KEY
	// environment variable takes precedence when set.
	APIKey string `json:"api_key,omitempty"`

	// DefaultModel is the first model tried; the fallback chain derives
	// its variants from it. Empty means gemini-2.5-flash.
	DefaultModel string `json:"default_model,omitempty"`

	// APIVersion is the first API version tried (v1 or v1beta).
	// Empty means v1.
	APIVersion string `json:"api_version,omitempty"`
}

// Retention overrides the default history policy (50 entries / 14 days).
// A null criterion disables that criterion entirely.
type Retention struct {
	MaxEntries *int     `json:"max_entries,omitempty"`
	MaxAgeDays *float64 `json:"max_age_days,omitempty"`
}

// Policy converts the retention override into a store policy. A nil
// receiver means the default policy applies.
func (r *Retention) Policy() *capture.RetentionPolicy {
	if r == nil {
		return nil
	}
	return &capture.RetentionPolicy{MaxEntries: r.MaxEntries, MaxAgeDays: r.MaxAgeDays}
}

// Config holds application configuration.
type Config struct {
	Provider Provider `json:"provider,omitempty"`

	// Retention is applied on open and by the purge command.
	// Omitted means the default policy.
	Retention *Retention `json:"retention,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// If set to 1, all database access is serialized (reduces "database is locked" errors).
	// 0 means use sql.DB default (unlimited). Only set if you experience contention.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// LogLevel sets the logger verbosity: debug, info, warn, or error.
	// Empty means info.
	LogLevel string `json:"log_level,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Provider: Provider{
			DefaultModel: "gemini-2.5-flash",
			APIVersion:   "v1",
		},
	}
}

// Load loads configuration from baseDir/config.json, applying defaults and
// the GEMINI_API_KEY environment variable. Returns default config if the
// file doesn't exist. The baseDir parameter allows tests to use t.TempDir()
// instead of ~/.glance.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	merged := Merge(DefaultConfig(), cfg)
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		merged.Provider.APIKey = key
	}
	return merged, nil
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

// Merge combines base and overlay configs. Overlay values take precedence
// for scalars; arrays are merged and deduplicated; a present overlay
// retention replaces the base one wholesale.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.Provider.APIKey = pick(overlay.Provider.APIKey, base.Provider.APIKey)
	result.Provider.DefaultModel = pick(overlay.Provider.DefaultModel, base.Provider.DefaultModel)
	result.Provider.APIVersion = pick(overlay.Provider.APIVersion, base.Provider.APIVersion)

	result.Retention = overlay.Retention
	if result.Retention == nil {
		result.Retention = base.Retention
	}

	result.DBMaxOpenConns = overlay.DBMaxOpenConns
	if result.DBMaxOpenConns == 0 {
		result.DBMaxOpenConns = base.DBMaxOpenConns
	}

	result.DBMaxIdleConns = overlay.DBMaxIdleConns
	if result.DBMaxIdleConns == 0 {
		result.DBMaxIdleConns = base.DBMaxIdleConns
	}

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.LogLevel = pick(overlay.LogLevel, base.LogLevel)

	return result
}

func pick(overlay, base string) string {
	if overlay != "" {
		return overlay
	}
	return base
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

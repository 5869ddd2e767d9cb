package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "MEALSHELL"

// Config holds the configuration for the shell.
type Config struct {
	APIBaseURL string
	APIVersion string

	// Session Config
	ExpectedAudience string
	RequireAuth      bool
	StatePath        string

	CacheTTL    time.Duration
	HTTPTimeout time.Duration

	// MetricsRetentionDays bounds how long request metrics are kept; 0 disables them.
	MetricsRetentionDays int

	LogLevel  string
	LogFormat string
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	baseURL := strings.TrimSpace(v.GetString("api_base_url"))
	if baseURL == "" {
		return nil, fmt.Errorf("MEALSHELL_API_BASE_URL environment variable not set")
	}

	apiVersion := strings.TrimSpace(v.GetString("api_version"))
	if apiVersion == "" {
		apiVersion = "1"
	}

	cacheTTL := v.GetDuration("cache_ttl")
	if cacheTTL <= 0 {
		return nil, fmt.Errorf("MEALSHELL_CACHE_TTL must be a positive duration, got %q", v.GetString("cache_ttl"))
	}

	retention := v.GetInt("metrics_retention_days")
	if retention < 0 {
		return nil, fmt.Errorf("MEALSHELL_METRICS_RETENTION_DAYS must not be negative, got %d", retention)
	}

	statePath := v.GetString("state_path")
	if statePath == "" {
		statePath = defaultStatePath()
	}

	return &Config{
		APIBaseURL:           strings.TrimRight(baseURL, "/"),
		APIVersion:           apiVersion,
		ExpectedAudience:     strings.TrimSpace(v.GetString("expected_audience")),
		RequireAuth:          v.GetBool("require_auth"),
		StatePath:            statePath,
		CacheTTL:             cacheTTL,
		HTTPTimeout:          v.GetDuration("http_timeout"),
		MetricsRetentionDays: retention,
		LogLevel:             v.GetString("log_level"),
		LogFormat:            v.GetString("log_format"),
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_version", "1")
	v.SetDefault("require_auth", true)
	v.SetDefault("cache_ttl", "15s")
	v.SetDefault("http_timeout", "0s")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("metrics_retention_days", 30)

	// AutomaticEnv only resolves keys viper already knows about.
	v.SetDefault("api_base_url", "")
	v.SetDefault("expected_audience", "")
	v.SetDefault("state_path", "")
}

func defaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".meal-shell", "state.db")
	}
	return filepath.Join(home, ".meal-shell", "state.db")
}

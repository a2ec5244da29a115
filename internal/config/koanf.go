// Skooldata - Community Platform Extraction and Revenue Analytics
// Copyright 2026 Patrick O. (PATRICK079)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/PATRICK079/skool-data

/*
koanf.go - Layered Configuration Loading

Configuration is assembled from three sources, lowest priority first:

 1. Built-in defaults (structs provider)
 2. YAML config file, if one exists at the given or default path
 3. Environment variables prefixed SKOOLSYNC_

Environment variable names map onto dotted config keys through an explicit
transform table so that nested keys stay predictable, e.g.
SKOOLSYNC_SKOOL_MAX_RETRIES -> skool.max_retries.
*/
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "SKOOLSYNC_"

// DefaultConfigPaths are probed in order when no explicit path is given.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/skooldata/config.yaml",
}

// defaultConfig returns the built-in defaults. Page size and the
// segmentation parameters match the upstream platform's observed
// behavior; everything else is a conservative operational default.
func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{
			Level:     "info",
			Format:    "json",
			Timestamp: true,
		},
		Database: DatabaseConfig{
			Path: "data/skooldata.db",
		},
		Skool: SkoolConfig{
			BaseURL:           "https://www.skool.com",
			APIBaseURL:        "https://api.skool.com",
			PageSize:          30,
			RequestDelay:      1500 * time.Millisecond,
			MaxRetries:        3,
			Backoff:           2 * time.Second,
			MaxBackoff:        60 * time.Second,
			Timeout:           30 * time.Second,
			ProxyTimeout:      60 * time.Second,
			BuildRefreshLimit: 3,
		},
		Sync: SyncConfig{
			Interval:          6 * time.Hour,
			MaxConcurrentOrgs: 2,
			PageConcurrency:   1,
			StatusBatchSize:   50,
		},
		Segmentation: SegmentationConfig{
			ChurnRisk: ChurnRiskConfig{
				LookbackDays:   7,
				MinActivity:    1,
				MaxActivity:    14,
				MinDaysOffline: 0,
			},
			Ascension: AscensionConfig{
				LookbackDays:   70,
				MinActiveDays:  7,
				MaxDaysOffline: 1,
			},
			Onboarding: OnboardingConfig{
				MaxDaysInCommunity: 3,
				MinPosts:           1,
				MinComments:        1,
			},
		},
		Identity: IdentityConfig{
			Timeout: 10 * time.Second,
		},
		Server: ServerConfig{
			MetricsAddr: ":9464",
		},
	}
}

// envTransform maps SKOOLSYNC_* variable names (prefix stripped) onto
// dotted config keys. Variables not listed here fall through to the
// generic lowercase+underscore-to-dot rule, which cannot distinguish a
// section boundary from an underscore inside a key.
var envTransform = map[string]string{
	"LOGGING_LEVEL":                "logging.level",
	"LOGGING_FORMAT":               "logging.format",
	"DATABASE_PATH":                "database.path",
	"DATABASE_THREADS":             "database.threads",
	"DATABASE_MEMORY_LIMIT":        "database.memory_limit",
	"SKOOL_BASE_URL":               "skool.base_url",
	"SKOOL_API_BASE_URL":           "skool.api_base_url",
	"SKOOL_PAGE_SIZE":              "skool.page_size",
	"SKOOL_REQUEST_DELAY":          "skool.request_delay",
	"SKOOL_MAX_RETRIES":            "skool.max_retries",
	"SKOOL_BACKOFF":                "skool.backoff",
	"SKOOL_MAX_BACKOFF":            "skool.max_backoff",
	"SKOOL_TIMEOUT":                "skool.timeout",
	"SKOOL_PROXY_TIMEOUT":          "skool.proxy_timeout",
	"SKOOL_USE_PROXY":              "skool.use_proxy",
	"SKOOL_PROXIES":                "skool.proxies",
	"SKOOL_BUILD_REFRESH_LIMIT":    "skool.build_refresh_limit",
	"ORGANIZATIONS":                "organizations",
	"SYNC_INTERVAL":                "sync.interval",
	"SYNC_MAX_CONCURRENT_ORGS":     "sync.max_concurrent_orgs",
	"SYNC_PAGE_CONCURRENCY":        "sync.page_concurrency",
	"SYNC_STATUS_BATCH_SIZE":       "sync.status_batch_size",
	"IDENTITY_BASE_URL":            "identity.base_url",
	"IDENTITY_API_KEY":             "identity.api_key",
	"IDENTITY_TIMEOUT":             "identity.timeout",
	"SERVER_METRICS_ADDR":          "server.metrics_addr",
	"CHURN_RISK_LOOKBACK_DAYS":     "segmentation.churn_risk.lookback_days",
	"CHURN_RISK_MIN_ACTIVITY":      "segmentation.churn_risk.min_activity",
	"CHURN_RISK_MAX_ACTIVITY":      "segmentation.churn_risk.max_activity",
	"CHURN_RISK_MIN_DAYS_OFFLINE":  "segmentation.churn_risk.min_days_offline",
	"ASCENSION_LOOKBACK_DAYS":      "segmentation.ascension.lookback_days",
	"ASCENSION_MIN_ACTIVE_DAYS":    "segmentation.ascension.min_active_days",
	"ASCENSION_MAX_DAYS_OFFLINE":   "segmentation.ascension.max_days_offline",
	"ONBOARDING_MAX_DAYS":          "segmentation.onboarding.max_days_in_community",
	"ONBOARDING_MIN_POSTS":         "segmentation.onboarding.min_posts",
	"ONBOARDING_MIN_COMMENTS":      "segmentation.onboarding.min_comments",
}

// sliceKeys are config keys whose env values arrive as comma-separated
// strings and must be split before unmarshalling.
var sliceKeys = map[string]bool{
	"skool.proxies": true,
	"organizations": true,
}

// Load builds the configuration from defaults, an optional YAML file, and
// the environment. An empty path probes DefaultConfigPaths.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path == "" {
		for _, p := range DefaultConfigPaths {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", transformEnv), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}
	processSliceKeys(k)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func transformEnv(s string) string {
	key := strings.TrimPrefix(s, envPrefix)
	if mapped, ok := envTransform[key]; ok {
		return mapped
	}
	return strings.ReplaceAll(strings.ToLower(key), "_", ".")
}

// processSliceKeys splits comma-separated env-provided values so they
// unmarshal into []string fields.
func processSliceKeys(k *koanf.Koanf) {
	for key := range sliceKeys {
		raw, ok := k.Get(key).(string)
		if !ok || raw == "" {
			continue
		}
		parts := strings.Split(raw, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		_ = k.Set(key, parts)
	}
}

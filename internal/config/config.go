// Skooldata - Community Platform Extraction and Revenue Analytics
// Copyright 2026 Patrick O. (PATRICK079)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/PATRICK079/skool-data

// Package config loads and validates Skooldata configuration from layered
// sources (built-in defaults, YAML file, environment variables) using Koanf.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration structure.
type Config struct {
	Logging       LoggingConfig       `koanf:"logging"`
	Database      DatabaseConfig      `koanf:"database"`
	Skool         SkoolConfig         `koanf:"skool"`
	Accounts      []AccountConfig     `koanf:"accounts"`
	Organizations []string            `koanf:"organizations"`
	Sync          SyncConfig          `koanf:"sync"`
	Segmentation  SegmentationConfig  `koanf:"segmentation"`
	Identity      IdentityConfig      `koanf:"identity"`
	Server        ServerConfig        `koanf:"server"`
}

// LoggingConfig controls the global logger.
type LoggingConfig struct {
	Level     string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Format    string `koanf:"format" validate:"oneof=json console"`
	Caller    bool   `koanf:"caller"`
	Timestamp bool   `koanf:"timestamp"`
}

// DatabaseConfig controls the DuckDB store.
type DatabaseConfig struct {
	// Path is the database file location. Empty means in-memory.
	Path        string `koanf:"path"`
	Threads     int    `koanf:"threads" validate:"min=0"`
	MemoryLimit string `koanf:"memory_limit"`
}

// SkoolConfig controls the upstream platform client.
type SkoolConfig struct {
	// BaseURL serves the HTML pages the build identifier is scraped from
	// and the _next/data JSON endpoints.
	BaseURL string `koanf:"base_url" validate:"required,url"`
	// APIBaseURL serves the cursor-paginated JSON API (likes, replies).
	APIBaseURL string `koanf:"api_base_url" validate:"required,url"`

	PageSize     int           `koanf:"page_size" validate:"min=1"`
	RequestDelay time.Duration `koanf:"request_delay"`

	MaxRetries   int           `koanf:"max_retries" validate:"min=1"`
	Backoff      time.Duration `koanf:"backoff"`
	MaxBackoff   time.Duration `koanf:"max_backoff"`
	Timeout      time.Duration `koanf:"timeout"`
	ProxyTimeout time.Duration `koanf:"proxy_timeout"`

	UseProxy bool     `koanf:"use_proxy"`
	Proxies  []string `koanf:"proxies" validate:"dive,url"`

	// BuildRefreshLimit bounds how many times a stale build identifier is
	// refreshed before a 404 is accepted as real.
	BuildRefreshLimit int `koanf:"build_refresh_limit" validate:"min=0"`
}

// AccountConfig is one admin account credential. List order is the fixed
// candidate priority order used by the credential selector.
type AccountConfig struct {
	Handle string `koanf:"handle" validate:"required"`
	Token  string `koanf:"token" validate:"required"`
}

// SyncConfig controls the synchronization engine.
type SyncConfig struct {
	Interval time.Duration `koanf:"interval"`
	// MaxConcurrentOrgs bounds how many organizations sync in parallel.
	MaxConcurrentOrgs int `koanf:"max_concurrent_orgs" validate:"min=1"`
	// PageConcurrency bounds parallel page fetches within one collection.
	PageConcurrency int `koanf:"page_concurrency" validate:"min=1"`
	// StatusBatchSize is the number of members per status-assignment batch.
	StatusBatchSize int `koanf:"status_batch_size" validate:"min=1"`
}

// SegmentationConfig holds the read-side segmentation query parameters.
type SegmentationConfig struct {
	ChurnRisk  ChurnRiskConfig  `koanf:"churn_risk"`
	Ascension  AscensionConfig  `koanf:"ascension"`
	Onboarding OnboardingConfig `koanf:"onboarding"`
}

// ChurnRiskConfig selects members with fading activity.
type ChurnRiskConfig struct {
	LookbackDays   int `koanf:"lookback_days" validate:"min=1"`
	MinActivity    int `koanf:"min_activity" validate:"min=0"`
	MaxActivity    int `koanf:"max_activity" validate:"min=0"`
	MinDaysOffline int `koanf:"min_days_offline" validate:"min=0"`
}

// AscensionConfig selects consistently engaged members who are ready
// for an upsell conversation.
type AscensionConfig struct {
	LookbackDays   int `koanf:"lookback_days" validate:"min=1"`
	MinActiveDays  int `koanf:"min_active_days" validate:"min=0"`
	MaxDaysOffline int `koanf:"max_days_offline" validate:"min=0"`
}

// OnboardingConfig selects new members who have not engaged yet.
type OnboardingConfig struct {
	MaxDaysInCommunity int `koanf:"max_days_in_community" validate:"min=1"`
	MinPosts           int `koanf:"min_posts" validate:"min=0"`
	MinComments        int `koanf:"min_comments" validate:"min=0"`
}

// IdentityConfig points at the external identity/metadata provider that
// stores per-organization metadata (community slug, last successful
// scrape account).
type IdentityConfig struct {
	BaseURL string        `koanf:"base_url" validate:"omitempty,url"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`
}

// ServerConfig controls the operational HTTP listener (metrics, health).
type ServerConfig struct {
	MetricsAddr string `koanf:"metrics_addr"`
}

// Validate checks the configuration against its struct tags plus the
// cross-field rules the tags cannot express.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if c.Skool.ProxyTimeout < c.Skool.Timeout {
		return fmt.Errorf("skool.proxy_timeout (%s) must be >= skool.timeout (%s): proxied connections are slower",
			c.Skool.ProxyTimeout, c.Skool.Timeout)
	}
	if c.Skool.UseProxy && len(c.Skool.Proxies) == 0 {
		return fmt.Errorf("skool.use_proxy is set but skool.proxies is empty")
	}
	if c.Segmentation.ChurnRisk.MaxActivity < c.Segmentation.ChurnRisk.MinActivity {
		return fmt.Errorf("segmentation.churn_risk.max_activity < min_activity")
	}
	return nil
}

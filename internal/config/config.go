package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/amishk599/jobscout/internal/secrets"
)

// Config is the root configuration for jobscout.
type Config struct {
	Schedule              string // cron spec for `start`
	WatermarkPath         string
	AdvanceOnTotalFailure bool
	Pipeline              PipelineConfig
	Sources               SourcesConfig
	Eligibility           EligibilityConfig
	Salary                SalaryConfig
	Priority              PriorityConfig
	Storage               StorageConfig
	Notification          NotificationConfig
	RateLimit             RateLimitConfig
	Retry                 RetryConfig
	AI                    AIConfig
	Metrics               MetricsConfig
}

// PipelineConfig controls source fan-out.
type PipelineConfig struct {
	Concurrency      int
	SourceTimeout    time.Duration
	InterSourceDelay time.Duration
}

// SourcesConfig lists the two source tiers.
type SourcesConfig struct {
	Role      string // search role passed to sources and the estimator
	Relevance RelevanceConfig
	Portals   []SourceConfig
	Companies []SourceConfig
}

// RelevanceConfig is the keyword filter applied before deduplication.
type RelevanceConfig struct {
	TitleKeywords        []string `yaml:"title_keywords"`
	TitleExcludeKeywords []string `yaml:"title_exclude_keywords"`
	Locations            []string `yaml:"locations"`
}

// SourceConfig describes one source. Which fields apply depends on Type.
type SourceConfig struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"` // hh, greenhouse, lever, ashby, gem, workday, microsoft
	Company    string `yaml:"company"`
	BoardToken string `yaml:"board_token"`
	URL        string `yaml:"url"` // workday site URL or an API base override
	Query      string `yaml:"query"`
	Area       string `yaml:"area"`
	Experience string `yaml:"experience"`
	Location   string `yaml:"location"`
	Enabled    bool   `yaml:"enabled"`
}

// Label returns the name used in logs and reports.
func (s SourceConfig) Label() string {
	if s.Name != "" {
		return s.Name
	}
	if s.Company != "" {
		return strings.ToLower(s.Company)
	}
	return s.Type
}

// EligibilityConfig bounds the experience band.
type EligibilityConfig struct {
	MaxMinYears int `yaml:"max_min_years"`
	MaxMaxYears int `yaml:"max_max_years"`
}

// SalaryConfig controls salary resolution.
type SalaryConfig struct {
	MinLPA             float64
	OnUnresolvedSalary string // include or exclude
	EstimateTimeout    time.Duration
	Companies          map[string]float64 // additions to the built-in table
}

// PriorityConfig lists companies that raise a job's priority.
type PriorityConfig struct {
	Companies []string `yaml:"companies"`
}

// StorageConfig selects the job store.
type StorageConfig struct {
	Type          string // sqlite, xlsx
	Path          string
	PruneSchedule string // cron spec; empty disables pruning
	Retention     time.Duration
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

// RateLimitConfig controls per-backend rate limiting.
type RateLimitConfig struct {
	MinDelay  time.Duration            // minimum gap between requests to the same backend
	Overrides map[string]time.Duration // keyed by source type
}

// MinDelayFor returns the configured delay for a backend, falling back to MinDelay.
func (r RateLimitConfig) MinDelayFor(backend string) time.Duration {
	if d, ok := r.Overrides[backend]; ok {
		return d
	}
	return r.MinDelay
}

// RetryConfig controls per-source retries.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// AIConfig controls the optional salary estimator.
type AIConfig struct {
	Enabled           bool
	Provider          string // openai or gemini
	BaseURL           string // defaults to https://api.openai.com/v1
	Model             string
	APIKey            string // expanded from env or keychain by Load
	Timeout           time.Duration
	RequestsPerMinute int
	CacheTTL          time.Duration
}

// MetricsConfig enables the Prometheus endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultSchedule      = "@every 2h"
	defaultWatermarkPath = "data/last_run.json"
	defaultRole          = "Data Analyst"
)

var (
	sourceTypes   = []string{"hh", "greenhouse", "lever", "ashby", "gem", "workday", "microsoft"}
	storageTypes  = []string{"sqlite", "xlsx"}
	providerTypes = []string{"openai", "gemini"}
)

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	Schedule              string             `yaml:"schedule"`
	WatermarkPath         string             `yaml:"watermark_path"`
	AdvanceOnTotalFailure *bool              `yaml:"advance_on_total_failure"`
	Pipeline              rawPipelineConfig  `yaml:"pipeline"`
	Sources               rawSourcesConfig   `yaml:"sources"`
	Eligibility           EligibilityConfig  `yaml:"eligibility"`
	Salary                rawSalaryConfig    `yaml:"salary"`
	Priority              PriorityConfig     `yaml:"priority"`
	Storage               rawStorageConfig   `yaml:"storage"`
	Notification          NotificationConfig `yaml:"notification"`
	RateLimit             rawRateLimitConfig `yaml:"rate_limit"`
	Retry                 rawRetryConfig     `yaml:"retry"`
	AI                    rawAIConfig        `yaml:"ai"`
	Metrics               MetricsConfig      `yaml:"metrics"`
}

type rawPipelineConfig struct {
	Concurrency      int    `yaml:"concurrency"`
	SourceTimeout    string `yaml:"source_timeout"`
	InterSourceDelay string `yaml:"inter_source_delay"`
}

type rawSourcesConfig struct {
	Role      string          `yaml:"role"`
	Relevance RelevanceConfig `yaml:"relevance"`
	Portals   []SourceConfig  `yaml:"portals"`
	Companies []SourceConfig  `yaml:"companies"`
}

type rawSalaryConfig struct {
	MinLPA             *float64           `yaml:"min_lpa"`
	OnUnresolvedSalary string             `yaml:"on_unresolved_salary"`
	EstimateTimeout    string             `yaml:"estimate_timeout"`
	Companies          map[string]float64 `yaml:"companies"`
}

type rawStorageConfig struct {
	Type          string `yaml:"type"`
	Path          string `yaml:"path"`
	PruneSchedule string `yaml:"prune_schedule"`
	Retention     string `yaml:"retention"`
}

type rawRateLimitConfig struct {
	MinDelay  string            `yaml:"min_delay"`
	Overrides map[string]string `yaml:"overrides"`
}

type rawRetryConfig struct {
	MaxRetries *int   `yaml:"max_retries"`
	BaseDelay  string `yaml:"base_delay"`
}

type rawAIConfig struct {
	Enabled           bool   `yaml:"enabled"`
	Provider          string `yaml:"provider"`
	BaseURL           string `yaml:"base_url"`
	Model             string `yaml:"model"`
	APIKey            string `yaml:"api_key"`
	Timeout           string `yaml:"timeout"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
	CacheTTL          string `yaml:"cache_ttl"`
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg, err := fromRaw(raw)
	if err != nil {
		return nil, err
	}
	if err := resolveSecrets(cfg); err != nil {
		return nil, err
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromRaw(raw rawConfig) (*Config, error) {
	d := durations{}
	cfg := &Config{
		Schedule:              orDefault(raw.Schedule, defaultSchedule),
		WatermarkPath:         orDefault(raw.WatermarkPath, defaultWatermarkPath),
		AdvanceOnTotalFailure: raw.AdvanceOnTotalFailure == nil || *raw.AdvanceOnTotalFailure,
		Pipeline: PipelineConfig{
			Concurrency:      raw.Pipeline.Concurrency,
			SourceTimeout:    d.parse("pipeline.source_timeout", raw.Pipeline.SourceTimeout, 2*time.Minute),
			InterSourceDelay: d.parse("pipeline.inter_source_delay", raw.Pipeline.InterSourceDelay, 2*time.Second),
		},
		Sources: SourcesConfig{
			Role:      orDefault(raw.Sources.Role, defaultRole),
			Relevance: raw.Sources.Relevance,
			Portals:   raw.Sources.Portals,
			Companies: raw.Sources.Companies,
		},
		Eligibility: raw.Eligibility,
		Salary: SalaryConfig{
			MinLPA:             15,
			OnUnresolvedSalary: orDefault(raw.Salary.OnUnresolvedSalary, "exclude"),
			EstimateTimeout:    d.parse("salary.estimate_timeout", raw.Salary.EstimateTimeout, 30*time.Second),
			Companies:          raw.Salary.Companies,
		},
		Priority: raw.Priority,
		Storage: StorageConfig{
			Type:          orDefault(raw.Storage.Type, "sqlite"),
			PruneSchedule: raw.Storage.PruneSchedule,
			Retention:     d.parse("storage.retention", raw.Storage.Retention, 0),
		},
		Notification: raw.Notification,
		RateLimit: RateLimitConfig{
			MinDelay:  d.parse("rate_limit.min_delay", raw.RateLimit.MinDelay, 2*time.Second),
			Overrides: make(map[string]time.Duration),
		},
		Retry: RetryConfig{
			MaxRetries: 2,
			BaseDelay:  d.parse("retry.base_delay", raw.Retry.BaseDelay, 5*time.Second),
		},
		AI: AIConfig{
			Enabled:           raw.AI.Enabled,
			Provider:          orDefault(raw.AI.Provider, "openai"),
			BaseURL:           raw.AI.BaseURL,
			Model:             raw.AI.Model,
			APIKey:            raw.AI.APIKey,
			Timeout:           d.parse("ai.timeout", raw.AI.Timeout, 30*time.Second),
			RequestsPerMinute: raw.AI.RequestsPerMinute,
			CacheTTL:          d.parse("ai.cache_ttl", raw.AI.CacheTTL, 24*time.Hour),
		},
		Metrics: raw.Metrics,
	}

	for backend, v := range raw.RateLimit.Overrides {
		cfg.RateLimit.Overrides[backend] = d.parse(fmt.Sprintf("rate_limit.overrides[%q]", backend), v, 0)
	}
	if d.err != nil {
		return nil, d.err
	}

	if raw.Salary.MinLPA != nil {
		cfg.Salary.MinLPA = *raw.Salary.MinLPA
	}
	if raw.Retry.MaxRetries != nil {
		cfg.Retry.MaxRetries = *raw.Retry.MaxRetries
	}
	if cfg.AI.Provider == "openai" && cfg.AI.BaseURL == "" {
		cfg.AI.BaseURL = defaultOpenAIBaseURL
	}
	cfg.Storage.Path = raw.Storage.Path
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "data/jobs.db"
		if cfg.Storage.Type == "xlsx" {
			cfg.Storage.Path = "data/jobs.xlsx"
		}
	}
	return cfg, nil
}

// durations parses duration strings and keeps the first error.
type durations struct {
	err error
}

func (d *durations) parse(field, value string, def time.Duration) time.Duration {
	if value == "" || d.err != nil {
		return def
	}
	v, err := time.ParseDuration(value)
	if err != nil {
		d.err = fmt.Errorf("parse %s %q: %w", field, value, err)
		return def
	}
	return v
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// resolveSecrets replaces keyring:<account> values with the stored secret.
// Only values that are actually used are looked up.
func resolveSecrets(cfg *Config) error {
	if cfg.AI.Enabled {
		v, err := secrets.Resolve(cfg.AI.APIKey)
		if err != nil {
			return fmt.Errorf("ai.api_key: %w", err)
		}
		cfg.AI.APIKey = v
	}
	if cfg.Notification.Type == "slack" {
		v, err := secrets.Resolve(cfg.Notification.WebhookURL)
		if err != nil {
			return fmt.Errorf("notification.webhook_url: %w", err)
		}
		cfg.Notification.WebhookURL = v
	}
	return nil
}

// EnabledSources returns the enabled sources of a tier.
func EnabledSources(tier []SourceConfig) []SourceConfig {
	var out []SourceConfig
	for _, s := range tier {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

func validate(cfg *Config) error {
	enabled := len(EnabledSources(cfg.Sources.Portals)) + len(EnabledSources(cfg.Sources.Companies))
	if enabled == 0 {
		return fmt.Errorf("at least one source must be enabled")
	}

	names := make(map[string]bool)
	for _, s := range append(append([]SourceConfig{}, cfg.Sources.Portals...), cfg.Sources.Companies...) {
		if !s.Enabled {
			continue
		}
		if !contains(sourceTypes, s.Type) {
			return fmt.Errorf("source %q: unknown type %q (want one of %s)", s.Label(), s.Type, strings.Join(sourceTypes, ", "))
		}
		if err := validateSource(s); err != nil {
			return err
		}
		if names[s.Label()] {
			return fmt.Errorf("duplicate source name %q", s.Label())
		}
		names[s.Label()] = true
	}

	if cfg.Pipeline.Concurrency < 0 {
		return fmt.Errorf("pipeline.concurrency must not be negative, got %d", cfg.Pipeline.Concurrency)
	}
	if cfg.Pipeline.SourceTimeout <= 0 {
		return fmt.Errorf("pipeline.source_timeout must be positive, got %v", cfg.Pipeline.SourceTimeout)
	}

	if cfg.Salary.MinLPA < 0 {
		return fmt.Errorf("salary.min_lpa must not be negative, got %v", cfg.Salary.MinLPA)
	}
	if v := cfg.Salary.OnUnresolvedSalary; v != "include" && v != "exclude" {
		return fmt.Errorf("salary.on_unresolved_salary must be \"include\" or \"exclude\", got %q", v)
	}

	if !contains(storageTypes, cfg.Storage.Type) {
		return fmt.Errorf("storage.type must be one of %s, got %q", strings.Join(storageTypes, ", "), cfg.Storage.Type)
	}

	if cfg.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative, got %d", cfg.Retry.MaxRetries)
	}

	if cfg.Notification.Type == "slack" {
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	}

	if cfg.AI.Enabled {
		if !contains(providerTypes, cfg.AI.Provider) {
			return fmt.Errorf("ai.provider must be one of %s, got %q", strings.Join(providerTypes, ", "), cfg.AI.Provider)
		}
		if cfg.AI.APIKey == "" {
			return fmt.Errorf("ai.api_key is required when ai.enabled is true")
		}
		if cfg.AI.Provider == "openai" && cfg.AI.BaseURL == "" {
			return fmt.Errorf("ai.base_url is required for the openai provider")
		}
		if cfg.AI.Model == "" {
			return fmt.Errorf("ai.model is required when ai.enabled is true")
		}
	}

	return nil
}

func validateSource(s SourceConfig) error {
	switch s.Type {
	case "greenhouse", "lever", "ashby", "gem":
		if s.BoardToken == "" {
			return fmt.Errorf("source %q: board_token is required for %s", s.Label(), s.Type)
		}
		if s.Company == "" {
			return fmt.Errorf("source %q: company is required for %s", s.Label(), s.Type)
		}
	case "workday":
		if s.URL == "" {
			return fmt.Errorf("source %q: url is required for workday", s.Label())
		}
		if s.Company == "" {
			return fmt.Errorf("source %q: company is required for workday", s.Label())
		}
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

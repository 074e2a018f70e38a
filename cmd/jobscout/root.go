package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/amishk599/jobscout/internal/adapter"
	"github.com/amishk599/jobscout/internal/ai"
	"github.com/amishk599/jobscout/internal/config"
	"github.com/amishk599/jobscout/internal/filter"
	"github.com/amishk599/jobscout/internal/metrics"
	"github.com/amishk599/jobscout/internal/model"
	"github.com/amishk599/jobscout/internal/notifier"
	"github.com/amishk599/jobscout/internal/orchestrator"
	"github.com/amishk599/jobscout/internal/rank"
	"github.com/amishk599/jobscout/internal/ratelimit"
	"github.com/amishk599/jobscout/internal/retry"
	"github.com/amishk599/jobscout/internal/store"
	"github.com/amishk599/jobscout/internal/watermark"
)

var (
	cfgPath   string
	debug     bool
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "jobscout",
	Short: "Incremental job ingestion from portals and career pages",
	Long: "jobscout fetches new postings from job portals and company career pages,\n" +
		"keeps the early-career ones that pay enough, and appends them to a job store.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBSCOUT_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text or json")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > JOBSCOUT_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("JOBSCOUT_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

// setupLogger logs to stderr so that tables printed on stdout stay clean.
func setupLogger(dbg bool, format string) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: logLevel}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

func openStore(cfg config.StorageConfig) (store.Backend, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	switch cfg.Type {
	case "xlsx":
		return store.NewXLSXStore(cfg.Path)
	default:
		return store.NewSQLiteStore(cfg.Path)
	}
}

// setupEstimator returns the salary estimator and a func releasing its
// resources. A disabled AI section yields the no-op estimator.
func setupEstimator(ctx context.Context, cfg config.AIConfig, logger *slog.Logger) (model.SalaryEstimator, func(), error) {
	if !cfg.Enabled {
		return ai.NewNopSalaryEstimator(), func() {}, nil
	}

	var (
		provider ai.LLMProvider
		cleanup  = func() {}
	)
	switch cfg.Provider {
	case "gemini":
		p, err := ai.NewGeminiProvider(ctx, cfg.APIKey, cfg.Model, logger)
		if err != nil {
			return nil, nil, err
		}
		provider = p
		cleanup = func() {
			if err := p.Close(); err != nil {
				logger.Warn("closing gemini client", "error", err)
			}
		}
	default:
		provider = ai.NewOpenAIProvider(ai.OpenAIOptions{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
		}, &http.Client{Timeout: cfg.Timeout})
	}

	est, err := ai.NewLLMSalaryEstimator(provider, ai.SalaryPromptTemplate, ai.EstimatorOptions{
		CacheTTL:          cfg.CacheTTL,
		RequestsPerMinute: float64(cfg.RequestsPerMinute),
	}, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	logger.Info("salary estimator enabled", "provider", cfg.Provider, "model", cfg.Model)
	return est, cleanup, nil
}

func createSource(src config.SourceConfig, role string, httpClient *http.Client, preFilter model.JobFilter, logger *slog.Logger) (model.Source, bool) {
	name := src.Label()
	switch src.Type {
	case "hh":
		search := adapter.HHSearch{Text: src.Query, AreaID: src.Area, Experience: src.Experience}
		return adapter.NewHHSource(name, role, search, src.URL, httpClient), true
	case "greenhouse":
		return adapter.NewGreenhouseSource(name, src.BoardToken, src.Company, role, src.URL, httpClient), true
	case "lever":
		return adapter.NewLeverSource(name, src.BoardToken, src.Company, role, src.URL, httpClient), true
	case "ashby":
		return adapter.NewAshbySource(name, src.BoardToken, src.Company, role, src.URL, httpClient), true
	case "gem":
		return adapter.NewGemSource(name, src.BoardToken, src.Company, role, src.URL, httpClient), true
	case "workday":
		return adapter.NewWorkdaySource(name, src.URL, src.Company, role, httpClient, preFilter), true
	case "microsoft":
		return adapter.NewMicrosoftSource(name, role, src.Location, src.URL, httpClient), true
	default:
		logger.Warn("unsupported source type, skipping", "source", name, "type", src.Type)
		return nil, false
	}
}

// buildTiers creates the portal and company tiers. Every source is wrapped
// with retries, then with a rate limiter shared by all sources of the same
// type.
func buildTiers(cfg *config.Config, preFilter model.JobFilter, httpClient *http.Client, logger *slog.Logger) []orchestrator.Tier {
	limiters := make(map[string]*ratelimit.BackendLimiter)
	limiterFor := func(backend string) *ratelimit.BackendLimiter {
		if l, ok := limiters[backend]; ok {
			return l
		}
		l := ratelimit.NewBackendLimiter(cfg.RateLimit.MinDelayFor(backend))
		limiters[backend] = l
		return l
	}

	build := func(name string, list []config.SourceConfig) orchestrator.Tier {
		tier := orchestrator.Tier{Name: name}
		for _, sc := range config.EnabledSources(list) {
			src, ok := createSource(sc, cfg.Sources.Role, httpClient, preFilter, logger)
			if !ok {
				continue
			}
			src = retry.NewRetrySource(src, cfg.Retry.MaxRetries, cfg.Retry.BaseDelay, logger)
			src = ratelimit.NewRateLimitedSource(src, limiterFor(sc.Type), sc.Type)
			tier.Sources = append(tier.Sources, src)
			logger.Debug("registered source", "tier", name, "source", sc.Label(), "type", sc.Type)
		}
		return tier
	}

	return []orchestrator.Tier{
		build("portals", cfg.Sources.Portals),
		build("companies", cfg.Sources.Companies),
	}
}

func salaryTable(extra map[string]float64) *filter.SalaryTable {
	if len(extra) == 0 {
		return filter.NewSalaryTable(nil)
	}
	// Lookup takes the first entry that matches, so the order must not
	// depend on map iteration.
	names := lo.Keys(extra)
	slices.Sort(names)
	entries := make([]filter.CompanySalary, 0, len(filter.DefaultCompanySalaries)+len(extra))
	for _, name := range names {
		entries = append(entries, filter.CompanySalary{Name: strings.ToLower(name), LPA: extra[name]})
	}
	return filter.NewSalaryTable(append(entries, filter.DefaultCompanySalaries...))
}

// pipeline is everything one run needs. close releases the store and the
// estimator.
type pipeline struct {
	runner    *orchestrator.Runner
	orch      *orchestrator.Orchestrator
	store     store.Backend
	watermark *watermark.FileStore
	close     func()
}

type pipelineOptions struct {
	dryRun  bool
	metrics *metrics.Metrics
}

func buildPipeline(ctx context.Context, cfg *config.Config, opts pipelineOptions, logger *slog.Logger) (*pipeline, error) {
	httpClient := &http.Client{Timeout: 30 * time.Second}

	var jobStore store.Backend
	if opts.dryRun {
		logger.Info("dry-run mode enabled, nothing will be stored")
		jobStore = store.NewNopStore()
	} else {
		s, err := openStore(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		jobStore = s
	}

	estimator, closeEstimator, err := setupEstimator(ctx, cfg.AI, logger)
	if err != nil {
		jobStore.Close()
		return nil, fmt.Errorf("setup estimator: %w", err)
	}

	rel := cfg.Sources.Relevance
	var relevance model.JobFilter
	if len(rel.TitleKeywords)+len(rel.TitleExcludeKeywords)+len(rel.Locations) > 0 {
		relevance = filter.NewKeywordFilter(rel.TitleKeywords, rel.TitleExcludeKeywords, rel.Locations)
	}

	stages := orchestrator.Stages{
		Relevance: relevance,
		Eligibility: filter.NewPolicy(filter.EligibilityConfig{
			MaxMinYears: cfg.Eligibility.MaxMinYears,
			MaxMaxYears: cfg.Eligibility.MaxMaxYears,
		}),
		Salary: filter.NewSalaryResolver(filter.ResolverConfig{
			FloorLPA:     cfg.Salary.MinLPA,
			Role:         cfg.Sources.Role,
			OnUnresolved: filter.UnresolvedPolicy(cfg.Salary.OnUnresolvedSalary),
			Timeout:      cfg.Salary.EstimateTimeout,
		}, salaryTable(cfg.Salary.Companies), estimator, logger),
		Scorer: rank.NewScorer(cfg.Priority.Companies),
	}

	orch := orchestrator.New(buildTiers(cfg, relevance, httpClient, logger), stages, orchestrator.Options{
		Concurrency:      cfg.Pipeline.Concurrency,
		SourceTimeout:    cfg.Pipeline.SourceTimeout,
		InterSourceDelay: cfg.Pipeline.InterSourceDelay,
	}, opts.metrics, logger)

	wm := watermark.NewFileStore(cfg.WatermarkPath, logger)
	runner := orchestrator.NewRunner(orch, jobStore, wm, setupNotifier(cfg, httpClient, logger), orchestrator.RunnerOptions{
		AdvanceOnTotalFailure: cfg.AdvanceOnTotalFailure,
		DryRun:                opts.dryRun,
	}, opts.metrics, logger)

	return &pipeline{
		runner:    runner,
		orch:      orch,
		store:     jobStore,
		watermark: wm,
		close: func() {
			closeEstimator()
			if err := jobStore.Close(); err != nil {
				logger.Warn("closing store", "error", err)
			}
		},
	}, nil
}

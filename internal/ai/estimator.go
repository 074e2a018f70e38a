package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/time/rate"

	"github.com/amishk599/jobscout/internal/model"
)

// LLMSalaryEstimator implements model.SalaryEstimator using an LLM. Answers
// are cached per company, role and floor, so a company seen in several
// postings costs one call.
type LLMSalaryEstimator struct {
	provider LLMProvider
	tmpl     *template.Template
	schema   *jsonschema.Schema
	cache    *gocache.Cache
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// EstimatorOptions tunes caching and pacing. Zero values disable the limiter
// and use a one day cache.
type EstimatorOptions struct {
	CacheTTL          time.Duration
	RequestsPerMinute float64
}

// NewLLMSalaryEstimator creates an estimator around provider.
func NewLLMSalaryEstimator(provider LLMProvider, tmpl *template.Template, opts EstimatorOptions, logger *slog.Logger) (*LLMSalaryEstimator, error) {
	schema, err := compileSchema(salaryEstimateSchema)
	if err != nil {
		return nil, err
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	var limiter *rate.Limiter
	if opts.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerMinute/60), 1)
	}
	return &LLMSalaryEstimator{
		provider: provider,
		tmpl:     tmpl,
		schema:   schema,
		cache:    gocache.New(ttl, 2*ttl),
		limiter:  limiter,
		logger:   logger,
	}, nil
}

// rawEstimate is the JSON shape returned by the LLM (matches salaryEstimateSchema).
type rawEstimate struct {
	PaysAbove  bool    `json:"pays_above_threshold"`
	MinLPA     float64 `json:"estimated_min_lpa"`
	MaxLPA     float64 `json:"estimated_max_lpa"`
	Confidence string  `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Estimate asks the LLM whether company pays at least minLPA for role.
// Errors are returned to the caller, which owns the fallback policy.
func (e *LLMSalaryEstimator) Estimate(ctx context.Context, company, role string, minLPA float64) (model.SalaryEstimate, error) {
	key := cacheKey(company, role, minLPA)
	if v, ok := e.cache.Get(key); ok {
		return v.(model.SalaryEstimate), nil
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return model.SalaryEstimate{}, fmt.Errorf("wait for llm rate limit: %w", err)
		}
	}

	var promptBuf bytes.Buffer
	if err := e.tmpl.Execute(&promptBuf, struct {
		Company string
		Role    string
		MinLPA  float64
	}{company, role, minLPA}); err != nil {
		return model.SalaryEstimate{}, fmt.Errorf("render prompt: %w", err)
	}

	raw, err := e.provider.Complete(ctx, promptBuf.String())
	if err != nil {
		return model.SalaryEstimate{}, fmt.Errorf("llm complete: %w", err)
	}

	est, err := e.parse(raw)
	if err != nil {
		return model.SalaryEstimate{}, fmt.Errorf("parse estimate: %w", err)
	}

	e.logger.Debug("salary estimated",
		"company", company,
		"pays_above", est.PaysAbove,
		"range", est.Range,
		"confidence", est.Confidence,
	)
	e.cache.SetDefault(key, est)
	return est, nil
}

func (e *LLMSalaryEstimator) parse(raw string) (model.SalaryEstimate, error) {
	body := []byte(stripCodeFence(raw))
	if err := validateJSON(e.schema, body); err != nil {
		return model.SalaryEstimate{}, err
	}
	var re rawEstimate
	if err := json.Unmarshal(body, &re); err != nil {
		return model.SalaryEstimate{}, fmt.Errorf("unmarshal estimate JSON: %w", err)
	}
	return model.SalaryEstimate{
		PaysAbove:  re.PaysAbove,
		Range:      fmt.Sprintf("%s-%s LPA", formatNumber(re.MinLPA), formatNumber(re.MaxLPA)),
		MinLPA:     re.MinLPA,
		Confidence: model.Confidence(re.Confidence),
	}, nil
}

// stripCodeFence removes a ```json fence some models wrap JSON in.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func cacheKey(company, role string, minLPA float64) string {
	return fmt.Sprintf("%s|%s|%g", strings.ToLower(strings.TrimSpace(company)), strings.ToLower(role), minLPA)
}

func formatNumber(f float64) string {
	return fmt.Sprintf("%g", f)
}

package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/lumina/internal/domain/entities"
	"github.com/johnquangdev/lumina/pkg/jobcontext"
)

// Progress stages reported through jobcontext while Analyze runs
const (
	ProgressAnalyzing          = "analyzing"
	ProgressExtractingInsights = "extracting_insights"
)

// Provider is a structured-generation backend (Gemini, Groq, or a test fake).
// Generate returns the raw response body; transport and provider failures
// should be reported as entities.NewProviderError.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req *entities.GenerationRequest) (string, error)
}

// Analyzer turns a normalized request into a validated MeetingAnalysis
type Analyzer interface {
	Analyze(ctx context.Context, req *entities.AnalysisRequest) (*entities.MeetingAnalysis, error)
}

// ClientConfig controls provider call behaviour. MaxRetries of 0 means a
// single call per Analyze.
type ClientConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Client is the Analysis Client: one provider call per Analyze, no caching
type Client struct {
	provider Provider
	parser   *Parser
	cfg      ClientConfig
	logger   *zap.Logger
}

// NewClient constructs an Analysis Client around the given provider
func NewClient(provider Provider, cfg ClientConfig, logger *zap.Logger) *Client {
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = 2 * time.Second
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = 10 * time.Second
	}
	return &Client{
		provider: provider,
		parser:   NewParser(),
		cfg:      cfg,
		logger:   logger,
	}
}

// ProviderName returns the name of the underlying provider
func (c *Client) ProviderName() string {
	return c.provider.Name()
}

// Analyze sends the request to the provider and parses the structured response
func (c *Client) Analyze(ctx context.Context, req *entities.AnalysisRequest) (*entities.MeetingAnalysis, error) {
	gen, err := BuildGenerationRequest(req)
	if err != nil {
		return nil, err
	}

	fields := append(jobcontext.Fields(ctx),
		zap.String("provider", c.provider.Name()),
		zap.String("request_kind", string(req.Kind)),
		zap.Int("payload_size", req.PayloadSize()),
	)

	if c.logger != nil {
		c.logger.Info("🤖 Sending analysis request", fields...)
	}

	jobcontext.ReportProgress(ctx, ProgressAnalyzing)

	start := time.Now()
	raw, err := c.generate(ctx, gen)
	latency := time.Since(start)

	if err != nil {
		if c.logger != nil {
			c.logger.Error("❌ Analysis provider call failed",
				append(fields, zap.Duration("latency", latency), zap.Error(err))...,
			)
		}
		return nil, err
	}

	jobcontext.ReportProgress(ctx, ProgressExtractingInsights)

	analysis, err := c.parser.Parse(raw)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("⚠️ Analysis response rejected",
				append(fields, zap.Duration("latency", latency), zap.Int("response_size", len(raw)), zap.Error(err))...,
			)
		}
		return nil, err
	}

	if c.logger != nil {
		c.logger.Info("✅ Analysis completed",
			append(fields,
				zap.Duration("latency", latency),
				zap.Int("decisions", len(analysis.Decisions)),
				zap.Int("action_items", len(analysis.ActionItems)),
				zap.Int("insights", len(analysis.DeepInsights)),
			)...,
		)
	}

	return analysis, nil
}

// generate performs the provider call. Retries only happen when configured
// and only for transient provider failures.
func (c *Client) generate(ctx context.Context, gen *entities.GenerationRequest) (string, error) {
	if c.cfg.MaxRetries <= 0 {
		raw, err := c.provider.Generate(ctx, gen)
		return raw, classifyProviderError(c.provider.Name(), err)
	}

	var (
		raw     string
		attempt int
	)
	op := func() error {
		attempt++
		out, err := c.provider.Generate(ctx, gen)
		if err == nil {
			raw = out
			return nil
		}
		err = classifyProviderError(c.provider.Name(), err)
		if ae, ok := entities.AsAnalysisError(err); ok && ae.Retryable() {
			if c.logger != nil {
				c.logger.Warn("🔄 Retrying analysis provider call",
					zap.String("provider", c.provider.Name()),
					zap.Int("attempt", attempt),
					zap.Error(err),
				)
			}
			return err
		}
		return backoff.Permanent(err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.InitialInterval
	bo.MaxInterval = c.cfg.MaxInterval
	bo.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(c.cfg.MaxRetries)), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return "", perm.Err
		}
		return "", classifyProviderError(c.provider.Name(), err)
	}
	return raw, nil
}

// classifyProviderError keeps taxonomy errors and wraps anything else as a ProviderError
func classifyProviderError(provider string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := entities.AsAnalysisError(err); ok {
		return err
	}
	return entities.NewProviderError(fmt.Sprintf("The %s analysis service could not be reached.", provider), 0, err)
}

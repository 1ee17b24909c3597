// Package bench wires the benchmark phases together: seed loading, model
// discovery, the serialized warm-up, the timed scheduler phase, and the final
// aggregation.
package bench

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/corvohq/turnbench/internal/conversation"
	"github.com/corvohq/turnbench/internal/prompt"
	"github.com/corvohq/turnbench/internal/scheduler"
	"github.com/corvohq/turnbench/internal/seed"
	"github.com/corvohq/turnbench/internal/stats"
	"github.com/corvohq/turnbench/internal/warmup"
	"github.com/corvohq/turnbench/pkg/client"
)

// Config is the full run surface.
type Config struct {
	BaseURL        string
	DocsDir        string
	Conversations  int
	Turns          int
	MaxTokens      int
	Workers        int
	WarmupRequests int // 0 skips the warm-up phase
	MinDelay       time.Duration
	MaxDelay       time.Duration
	Timeout        time.Duration
	UseHTTP2       bool
	InsecureTLS    bool
}

// DefaultConfig returns the standard benchmark parameters.
func DefaultConfig() Config {
	return Config{
		Conversations:  11,
		Turns:          10,
		MaxTokens:      500,
		Workers:        4,
		WarmupRequests: 20,
		MinDelay:       500 * time.Millisecond,
		MaxDelay:       2 * time.Second,
		Timeout:        120 * time.Second,
	}
}

// Runner executes one benchmark run.
type Runner struct {
	config Config
	client *client.Client
}

// New creates a Runner for the configured endpoint.
func New(config Config) *Runner {
	opts := []client.Option{client.WithTimeout(config.Timeout)}
	if config.UseHTTP2 {
		opts = append(opts, client.WithHTTP2())
	}
	if config.InsecureTLS {
		opts = append(opts, client.WithInsecureTLS())
	}
	return &Runner{config: config, client: client.New(config.BaseURL, opts...)}
}

// Run executes the benchmark to natural completion and returns the report.
// Errors before the scheduling phase (missing documents, unreachable
// model-listing endpoint) are fatal configuration errors.
func (r *Runner) Run(ctx context.Context) (*stats.Report, error) {
	slog.Info("benchmark starting",
		"url", r.config.BaseURL,
		"documents", r.config.DocsDir,
		"conversations", r.config.Conversations,
		"turns", r.config.Turns,
		"max_tokens", r.config.MaxTokens,
		"workers", r.config.Workers,
	)

	docs, err := seed.Load(r.config.DocsDir)
	if err != nil {
		return nil, err
	}

	models, err := r.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("model discovery: %w", err)
	}
	if len(models) == 0 {
		return nil, fmt.Errorf("no models available at %s", r.config.BaseURL)
	}
	model := models[0]
	slog.Info("using model", "model", model)

	convs := conversation.NewSet(r.config.Conversations, docs)

	if r.config.WarmupRequests > 0 {
		warmup.Run(ctx, r.client, warmup.Config{
			Model:    model,
			Requests: r.config.WarmupRequests,
		})
	}

	sched := scheduler.New(r.client, prompt.New(), scheduler.Config{
		Workers:   r.config.Workers,
		Turns:     r.config.Turns,
		Model:     model,
		MaxTokens: r.config.MaxTokens,
		MinDelay:  r.config.MinDelay,
		MaxDelay:  r.config.MaxDelay,
	})

	start := time.Now()
	sched.Run(ctx, convs)
	wall := time.Since(start)

	completed := 0
	for _, c := range convs {
		if c.Completed() {
			completed++
		}
	}

	return stats.Build(flatten(convs), wall, r.config.Turns, completed, len(convs)), nil
}

// flatten collects every conversation's samples with the metadata the
// stratified breakdowns need. Called after the scheduler has joined.
func flatten(convs []*conversation.Conversation) []stats.Sample {
	var samples []stats.Sample
	for _, c := range convs {
		for _, s := range c.Samples() {
			samples = append(samples, stats.Sample{
				Conv:     c.ID,
				Turn:     s.Turn,
				Category: c.Document.Category,
				TTFTMs:   s.TTFTMs,
				TotalMs:  s.TotalMs,
			})
		}
	}
	return samples
}

// Package warmup primes backend caches and connections before the timed
// phase: a fixed count of short completions, strictly serialized, never run
// through the scheduler. Warm-up samples are reported separately and excluded
// from the benchmark aggregate.
package warmup

import (
	"context"
	"log/slog"
	"time"

	"github.com/corvohq/turnbench/internal/prompt"
	"github.com/corvohq/turnbench/pkg/client"
)

// Streamer issues one streaming chat-completion call.
type Streamer interface {
	StreamCompletion(ctx context.Context, req client.ChatRequest) (*client.StreamResult, error)
}

// Config holds warm-up parameters.
type Config struct {
	Model     string
	Requests  int // default 20
	MaxTokens int // default 50; warm-up replies stay short
}

// Result is the latency of one warm-up request.
type Result struct {
	TTFTMs  *float64
	TotalMs float64
}

// Run executes the warm-up phase and returns its samples. Request failures
// are logged and skipped; they never abort the phase.
func Run(ctx context.Context, streamer Streamer, config Config) []Result {
	if config.Requests <= 0 {
		config.Requests = 20
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 50
	}

	slog.Info("warm-up phase starting", "requests", config.Requests, "max_tokens", config.MaxTokens)

	results := make([]Result, 0, config.Requests)
	for i := range config.Requests {
		text := prompt.WarmupPrompts[i%len(prompt.WarmupPrompts)]
		res, err := streamer.StreamCompletion(ctx, client.ChatRequest{
			Model:     config.Model,
			Messages:  []client.Message{{Role: "user", Content: text}},
			MaxTokens: config.MaxTokens,
			Stream:    true,
		})
		if err != nil {
			slog.Warn("warm-up request failed", "request", i+1, "error", err)
			continue
		}

		r := Result{TotalMs: float64(res.Elapsed) / float64(time.Millisecond)}
		if res.FirstToken != nil {
			ttft := float64(*res.FirstToken) / float64(time.Millisecond)
			r.TTFTMs = &ttft
		}
		results = append(results, r)

		slog.Info("warm-up request complete",
			"request", i+1,
			"requests", config.Requests,
			"ttft_ms", logMillis(r.TTFTMs),
			"total_ms", r.TotalMs,
		)
	}

	var sum float64
	var n int
	for _, r := range results {
		if r.TTFTMs != nil {
			sum += *r.TTFTMs
			n++
		}
	}
	if n > 0 {
		slog.Info("warm-up complete", "avg_ttft_ms", sum/float64(n), "measured", n)
	} else {
		slog.Info("warm-up complete", "measured", 0)
	}
	return results
}

func logMillis(p *float64) any {
	if p == nil {
		return "n/a"
	}
	return *p
}

// Package scheduler interleaves conversation turns across a fixed pool of
// workers. Each conversation has at most one turn in flight at any time,
// enforced by its exclusion token; the shared work queue only ever holds a
// conversation ID when no worker is processing it.
package scheduler

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/corvohq/turnbench/internal/conversation"
	"github.com/corvohq/turnbench/internal/seed"
	"github.com/corvohq/turnbench/pkg/client"
)

// Streamer issues one streaming chat-completion call.
type Streamer interface {
	StreamCompletion(ctx context.Context, req client.ChatRequest) (*client.StreamResult, error)
}

// Prompter supplies the text for a conversation turn.
type Prompter interface {
	Starter(doc *seed.Document, convID int) string
	Continuation(cat seed.Category) string
}

// Config holds scheduler configuration.
type Config struct {
	Workers     int           // pool size
	Turns       int           // turn budget per conversation
	Model       string        // model identifier for requests
	MaxTokens   int           // completion token bound per turn
	MinDelay    time.Duration // inter-turn delay lower bound
	MaxDelay    time.Duration // inter-turn delay upper bound
	PollTimeout time.Duration // queue wait before re-checking termination
}

// DefaultConfig returns a Config with the standard benchmark defaults.
func DefaultConfig() Config {
	return Config{
		Workers:     4,
		Turns:       10,
		MaxTokens:   500,
		MinDelay:    500 * time.Millisecond,
		MaxDelay:    2 * time.Second,
		PollTimeout: time.Second,
	}
}

// Scheduler drives conversations to their turn budget.
type Scheduler struct {
	streamer Streamer
	prompter Prompter
	config   Config
}

// New creates a Scheduler. Zero config fields fall back to defaults.
func New(streamer Streamer, prompter Prompter, config Config) *Scheduler {
	def := DefaultConfig()
	if config.Workers <= 0 {
		config.Workers = def.Workers
	}
	if config.Turns <= 0 {
		config.Turns = def.Turns
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = def.MaxTokens
	}
	if config.PollTimeout <= 0 {
		config.PollTimeout = def.PollTimeout
	}
	return &Scheduler{streamer: streamer, prompter: prompter, config: config}
}

// Run processes every conversation until all turn budgets are exhausted, then
// returns. Conversation IDs must equal their slice index.
func (s *Scheduler) Run(ctx context.Context, convs []*conversation.Conversation) {
	slog.Info("scheduler started",
		"workers", s.config.Workers,
		"conversations", len(convs),
		"turns", s.config.Turns,
		"min_delay", s.config.MinDelay,
		"max_delay", s.config.MaxDelay,
	)

	// One slot per conversation is enough: an ID is re-inserted only after
	// its previous turn fully completes, so sends never block.
	queue := make(chan int, len(convs))
	for _, c := range convs {
		queue <- c.ID
	}

	var wg sync.WaitGroup
	for w := range s.config.Workers {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID, queue, convs)
		}(w)
	}
	wg.Wait()

	slog.Info("scheduler stopped")
}

func (s *Scheduler) worker(ctx context.Context, workerID int, queue chan int, convs []*conversation.Conversation) {
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-queue:
			s.runTurn(ctx, convs[id], queue)
		case <-time.After(s.config.PollTimeout):
			if conversation.AllComplete(convs) {
				return
			}
		}
	}
}

// runTurn executes one turn while holding the conversation's exclusion token.
// Re-queuing happens before the token is released; the token, not queue
// membership, is the correctness guard against concurrent turns.
func (s *Scheduler) runTurn(ctx context.Context, conv *conversation.Conversation, queue chan int) {
	if conv.Completed() {
		return
	}

	conv.Lock()
	defer conv.Unlock()
	if conv.Completed() {
		return
	}

	if d := s.interTurnDelay(); d > 0 {
		time.Sleep(d)
	}

	turn := conv.TurnsCompleted()
	if turn == 0 {
		conv.AppendUser(s.prompter.Starter(conv.Document, conv.ID))
	} else {
		conv.AppendUser(s.prompter.Continuation(conv.Document.Category))
	}

	res, err := s.streamer.StreamCompletion(ctx, client.ChatRequest{
		Model:     s.config.Model,
		Messages:  conv.Messages(),
		MaxTokens: s.config.MaxTokens,
		Stream:    true,
	})
	if res == nil {
		res = &client.StreamResult{}
	}
	if err != nil {
		// Recoverable: the conversation keeps its place in the rotation.
		slog.Warn("turn request failed", "conv", conv.ID, "turn", turn+1, "error", err)
	}

	sample := conversation.TurnSample{TotalMs: toMillis(res.Elapsed)}
	if res.FirstToken != nil {
		ttft := toMillis(*res.FirstToken)
		sample.TTFTMs = &ttft
	}
	if res.Usage != nil {
		sample.PromptTokens = &res.Usage.PromptTokens
		sample.CompletionTokens = &res.Usage.CompletionTokens
		sample.TotalTokens = &res.Usage.TotalTokens
	}
	if res.Text != "" {
		conv.AppendAssistant(res.Text)
	}
	done := conv.RecordSample(sample, s.config.Turns)

	slog.Info("turn complete",
		"conv", conv.ID,
		"category", conv.Document.Category,
		"turn", turn+1,
		"turns", s.config.Turns,
		"ttft_ms", optMillis(sample.TTFTMs),
		"total_ms", sample.TotalMs,
		"tokens", optTokens(sample.TotalTokens),
	)
	slog.Debug("turn response", "conv", conv.ID, "preview", preview(res.Text, 100))

	if !done {
		queue <- conv.ID
	}
}

func (s *Scheduler) interTurnDelay() time.Duration {
	if s.config.MaxDelay <= s.config.MinDelay {
		return s.config.MinDelay
	}
	return s.config.MinDelay + rand.N(s.config.MaxDelay-s.config.MinDelay)
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func optMillis(p *float64) any {
	if p == nil {
		return "n/a"
	}
	return *p
}

func optTokens(p *int) any {
	if p == nil {
		return "n/a"
	}
	return *p
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

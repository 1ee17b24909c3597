package warmup

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/corvohq/turnbench/pkg/client"
)

type recordingStreamer struct {
	calls     []client.ChatRequest
	failEvery int
}

func (r *recordingStreamer) StreamCompletion(ctx context.Context, req client.ChatRequest) (*client.StreamResult, error) {
	r.calls = append(r.calls, req)
	if r.failEvery > 0 && len(r.calls)%r.failEvery == 0 {
		return &client.StreamResult{Elapsed: time.Millisecond}, fmt.Errorf("injected failure")
	}
	ttft := 3 * time.Millisecond
	return &client.StreamResult{Text: "ok", FirstToken: &ttft, Elapsed: 5 * time.Millisecond}, nil
}

func TestRunIsSerialAndRoundRobin(t *testing.T) {
	st := &recordingStreamer{}
	results := Run(context.Background(), st, Config{Model: "m", Requests: 25, MaxTokens: 50})

	if len(st.calls) != 25 {
		t.Fatalf("calls = %d, want 25", len(st.calls))
	}
	if len(results) != 25 {
		t.Fatalf("results = %d, want 25", len(results))
	}

	// Prompts repeat round-robin once the table wraps.
	first := st.calls[0].Messages[0].Content
	wrapped := st.calls[20].Messages[0].Content
	if first != wrapped {
		t.Errorf("request 21 prompt %q, want wrap-around to %q", wrapped, first)
	}
	for i, c := range st.calls {
		if len(c.Messages) != 1 || c.Messages[0].Role != "user" {
			t.Fatalf("call %d: warm-up must send a single user message", i)
		}
		if c.MaxTokens != 50 {
			t.Errorf("call %d: MaxTokens = %d, want 50", i, c.MaxTokens)
		}
	}
}

func TestRunSkipsFailures(t *testing.T) {
	st := &recordingStreamer{failEvery: 2}
	results := Run(context.Background(), st, Config{Model: "m", Requests: 6})

	if len(st.calls) != 6 {
		t.Fatalf("calls = %d, want 6 (failures must not abort the phase)", len(st.calls))
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3 successful", len(results))
	}
	for i, r := range results {
		if r.TTFTMs == nil {
			t.Errorf("result %d: TTFT unset on successful request", i)
		}
	}
}

// Package conversation holds per-conversation benchmark state: the growing
// message history, the turn counter, and the recorded samples. All mutation
// happens under the conversation's mutex — the exclusion token that guarantees
// at most one turn in flight per conversation.
package conversation

import (
	"sync"
	"sync/atomic"

	"github.com/corvohq/turnbench/internal/seed"
	"github.com/corvohq/turnbench/pkg/client"
)

// TurnSample is the measurement of one completed turn. Immutable once
// recorded. TTFTMs is nil when no content fragment was observed; the usage
// pointers are nil when the backend reported no counters.
type TurnSample struct {
	Turn             int
	TTFTMs           *float64
	TotalMs          float64
	PromptTokens     *int
	CompletionTokens *int
	TotalTokens      *int
}

// Conversation is one multi-turn session over a shared seed document.
type Conversation struct {
	ID       int
	Document *seed.Document

	mu             sync.Mutex
	messages       []client.Message
	turnsCompleted int
	samples        []TurnSample
	completed      atomic.Bool
}

// New creates an empty conversation over a document.
func New(id int, doc *seed.Document) *Conversation {
	return &Conversation{ID: id, Document: doc}
}

// NewSet creates count conversations cycling over the documents, with IDs
// 0..count-1 matching their slice index.
func NewSet(count int, docs []seed.Document) []*Conversation {
	convs := make([]*Conversation, count)
	for i := range convs {
		convs[i] = New(i, &docs[i%len(docs)])
	}
	return convs
}

// Lock acquires the conversation's exclusion token. A worker must hold it for
// the whole turn: delay, request, and state update.
func (c *Conversation) Lock() { c.mu.Lock() }

// Unlock releases the exclusion token.
func (c *Conversation) Unlock() { c.mu.Unlock() }

// Completed reports whether the turn budget is exhausted. Safe to call
// without holding the token.
func (c *Conversation) Completed() bool {
	return c.completed.Load()
}

// TurnsCompleted returns the number of recorded turns. Caller holds the token.
func (c *Conversation) TurnsCompleted() int {
	return c.turnsCompleted
}

// Messages returns the live message history. Caller holds the token.
func (c *Conversation) Messages() []client.Message {
	return c.messages
}

// AppendUser appends a user message. Caller holds the token.
func (c *Conversation) AppendUser(content string) {
	c.messages = append(c.messages, client.Message{Role: "user", Content: content})
}

// AppendAssistant appends an assistant message. Caller holds the token.
func (c *Conversation) AppendAssistant(content string) {
	c.messages = append(c.messages, client.Message{Role: "assistant", Content: content})
}

// RecordSample appends the sample for the turn just finished, stamping it
// with the turn index, and marks the conversation complete once budget turns
// are recorded. Returns the completion state. Caller holds the token.
func (c *Conversation) RecordSample(s TurnSample, budget int) bool {
	s.Turn = c.turnsCompleted
	c.samples = append(c.samples, s)
	c.turnsCompleted++
	if c.turnsCompleted >= budget {
		c.completed.Store(true)
	}
	return c.completed.Load()
}

// Samples returns the recorded samples. Call after the run has joined, or
// while holding the token.
func (c *Conversation) Samples() []TurnSample {
	return c.samples
}

// AllComplete reports whether every conversation has exhausted its budget.
func AllComplete(convs []*Conversation) bool {
	for _, c := range convs {
		if !c.Completed() {
			return false
		}
	}
	return true
}

// Package mockserver serves a minimal OpenAI-compatible endpoint: a model
// listing and a streaming chat-completion route emitting SSE delta chunks.
// It backs the `turnbench mock` subcommand and the test suites of the
// packages that talk to a live endpoint.
package mockserver

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Config controls the shape of mocked completions.
type Config struct {
	Model      string        // advertised model id (default "mock-model")
	Chunks     int           // content chunks per completion (default 3)
	ChunkDelay time.Duration // pause before each chunk
	FailEvery  int           // fail every nth completion with a 500 (0 = never)
	OmitUsage  bool          // skip the terminal usage chunk
}

// Server is the mock endpoint.
type Server struct {
	cfg    Config
	router chi.Router
	calls  atomic.Int64
}

// New creates a mock server.
func New(cfg Config) *Server {
	if cfg.Model == "" {
		cfg.Model = "mock-model"
	}
	if cfg.Chunks <= 0 {
		cfg.Chunks = 3
	}
	s := &Server{cfg: cfg}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/models", s.handleModels)
		r.Post("/chat/completions", s.handleCompletions)
	})

	return r
}

// Handler returns the http.Handler, for httptest servers and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Completions returns how many completion requests have been received.
func (s *Server) Completions() int64 {
	return s.calls.Load()
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"object": "list",
		"data":   []map[string]string{{"id": s.cfg.Model}},
	})
}

type completionRequest struct {
	Model     string `json:"model"`
	Messages  []any  `json:"messages"`
	MaxTokens int    `json:"max_tokens"`
	Stream    bool   `json:"stream"`
}

type chunkPayload struct {
	ID      string        `json:"id"`
	Object  string        `json:"object"`
	Choices []chunkChoice `json:"choices"`
	Usage   *chunkUsage   `json:"usage,omitempty"`
}

type chunkChoice struct {
	Index int        `json:"index"`
	Delta chunkDelta `json:"delta"`
}

type chunkDelta struct {
	Content string `json:"content,omitempty"`
}

type chunkUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

func (s *Server) handleCompletions(w http.ResponseWriter, r *http.Request) {
	n := s.calls.Add(1)

	var req completionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	r.Body.Close()

	if s.cfg.FailEvery > 0 && n%int64(s.cfg.FailEvery) == 0 {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "injected failure"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	flusher, canFlush := w.(http.Flusher)
	flush := func() {
		if canFlush {
			flusher.Flush()
		}
	}

	// Comment line before the chunks; clients must ignore it.
	fmt.Fprint(w, ": keep-alive\n\n")
	flush()

	id := fmt.Sprintf("chatcmpl-%d", n)
	for i := range s.cfg.Chunks {
		if s.cfg.ChunkDelay > 0 {
			time.Sleep(s.cfg.ChunkDelay)
		}
		writeChunk(w, chunkPayload{
			ID:     id,
			Object: "chat.completion.chunk",
			Choices: []chunkChoice{
				{Delta: chunkDelta{Content: fmt.Sprintf("token-%d ", i)}},
			},
		})
		flush()
	}

	if !s.cfg.OmitUsage {
		writeChunk(w, chunkPayload{
			ID:     id,
			Object: "chat.completion.chunk",
			Usage: &chunkUsage{
				PromptTokens:     len(req.Messages) * 8,
				CompletionTokens: s.cfg.Chunks,
				TotalTokens:      len(req.Messages)*8 + s.cfg.Chunks,
			},
		})
		flush()
	}

	fmt.Fprint(w, "data: [DONE]\n\n")
	flush()
}

func writeChunk(w http.ResponseWriter, p chunkPayload) {
	data, err := json.Marshal(p)
	if err != nil {
		slog.Error("marshal mock chunk", "error", err)
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

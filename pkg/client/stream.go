package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const tracerName = "github.com/corvohq/turnbench/pkg/client"

// streamChunk is one incremental SSE payload. Fields other than the delta
// content and the usage object are ignored.
type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Usage *Usage `json:"usage"`
}

// ListModels queries the model listing endpoint and returns the advertised
// model identifiers.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL+"/models", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("list models status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var out struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode models response: %w", err)
	}

	ids := make([]string, 0, len(out.Data))
	for _, m := range out.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// StreamCompletion issues one streaming chat-completion call and parses the
// event stream incrementally. The returned StreamResult is non-nil even on
// error; the error reports a per-call failure that callers treat as
// recoverable.
func (c *Client) StreamCompletion(ctx context.Context, req ChatRequest) (*StreamResult, error) {
	start := time.Now()
	res := &StreamResult{}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "chat_completion")
	span.SetAttributes(
		attribute.String("model", req.Model),
		attribute.Int("messages", len(req.Messages)),
		attribute.Int("max_tokens", req.MaxTokens),
	)
	defer span.End()

	fail := func(err error) (*StreamResult, error) {
		res.Elapsed = time.Since(start)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return res, err
	}

	req.Stream = true
	body, err := json.Marshal(req)
	if err != nil {
		return fail(fmt.Errorf("marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return fail(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return fail(fmt.Errorf("chat completion request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fail(fmt.Errorf("chat completion status %d: %s", resp.StatusCode, strings.TrimSpace(string(data))))
	}

	var text strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		data, ok := strings.CutPrefix(scanner.Text(), "data: ")
		if !ok {
			continue
		}
		if strings.TrimSpace(data) == "[DONE]" {
			break
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			// Keep-alive or partial line; never fatal.
			continue
		}

		if len(chunk.Choices) > 0 {
			content := chunk.Choices[0].Delta.Content
			if content != "" && res.FirstToken == nil {
				d := time.Since(start)
				res.FirstToken = &d
				span.AddEvent("first_token")
			}
			text.WriteString(content)
		}
		if chunk.Usage != nil {
			u := *chunk.Usage
			res.Usage = &u
		}
	}

	res.Text = text.String()
	if err := scanner.Err(); err != nil {
		return fail(fmt.Errorf("read stream: %w", err))
	}

	res.Elapsed = time.Since(start)
	return res, nil
}

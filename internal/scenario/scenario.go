// Package scenario loads an optional JSON run description. The file is
// validated against an embedded schema before use so a typo fails fast with a
// clear configuration error instead of a silently-default benchmark.
package scenario

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const schema = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "conversations":   {"type": "integer", "minimum": 1},
    "turns":           {"type": "integer", "minimum": 1},
    "max_tokens":      {"type": "integer", "minimum": 1},
    "workers":         {"type": "integer", "minimum": 1},
    "warmup_requests": {"type": "integer", "minimum": 0},
    "min_delay_ms":    {"type": "integer", "minimum": 0},
    "max_delay_ms":    {"type": "integer", "minimum": 0},
    "timeout_seconds": {"type": "integer", "minimum": 1}
  }
}`

// Scenario is a partial run configuration. Nil fields were absent from the
// file and leave the corresponding flag or default untouched.
type Scenario struct {
	Conversations  *int `json:"conversations"`
	Turns          *int `json:"turns"`
	MaxTokens      *int `json:"max_tokens"`
	Workers        *int `json:"workers"`
	WarmupRequests *int `json:"warmup_requests"`
	MinDelayMs     *int `json:"min_delay_ms"`
	MaxDelayMs     *int `json:"max_delay_ms"`
	TimeoutSec     *int `json:"timeout_seconds"`
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("validate scenario file: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("invalid scenario file %s: %s", path, strings.Join(msgs, "; "))
	}

	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode scenario file: %w", err)
	}
	return &s, nil
}

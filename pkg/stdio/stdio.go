// Package stdio drives the plugin contract over a pipe: one JSON request
// envelope on stdin, one JSON response on stdout. Exec-style hosts run the
// binary per invocation; logs go to stderr so stdout stays a pure payload
// channel.
package stdio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/factsd/factsd/pkg/plugin"
	"github.com/factsd/factsd/pkg/registry"
)

// Calls understood by the transport.
const (
	CallEnumerateCollectors = "enumerate_collectors"
	CallExecuteCollector    = "execute_collector"

	siblingCallPrefix = "enumerate_"
)

// Request is the envelope an exec-style host writes to the plugin's stdin.
type Request struct {
	Call      string          `json:"call"`
	Name      string          `json:"name,omitempty"`
	Config    json.RawMessage `json:"config,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
}

// Run reads one request from in, dispatches it, and writes the response to
// out. The response is always well-formed JSON for request-level outcomes;
// only transport faults (unreadable input, enumeration serialization
// failure) return an error, which callers should treat as plugin-unusable.
func Run(ctx context.Context, reg *registry.Registry, in io.Reader, out io.Writer) error {
	input, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}
	if len(input) == 0 {
		return fmt.Errorf("no input received on stdin")
	}

	var req Request
	if err := json.Unmarshal(input, &req); err != nil {
		return fmt.Errorf("failed to parse request envelope: %w", err)
	}
	if req.RequestID == "" {
		req.RequestID = uuid.New().String()
	}

	start := time.Now()
	raw, err := dispatch(ctx, reg, req)
	if err != nil {
		return err
	}

	slog.Debug("handled stdio request",
		slog.String("call", req.Call),
		slog.String("name", req.Name),
		slog.String("request_id", req.RequestID),
		slog.Duration("duration", time.Since(start)),
	)

	if _, err := out.Write(append(raw, '\n')); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	return nil
}

func dispatch(ctx context.Context, reg *registry.Registry, req Request) ([]byte, error) {
	switch req.Call {
	case CallEnumerateCollectors:
		return reg.EnumerateRaw()
	case CallExecuteCollector:
		return reg.ExecuteRaw(ctx, req.Name, req.Config), nil
	}

	if category, ok := siblingCategory(req.Call); ok {
		return json.Marshal(reg.Extensions(category))
	}

	slog.Warn("unknown call", slog.String("call", req.Call))
	return plugin.ErrorResult(fmt.Sprintf("Unknown call: %s", req.Call)).Encode()
}

// siblingCategory maps calls like "enumerate_log_sources" onto the
// extension category they ask about.
func siblingCategory(call string) (plugin.Category, bool) {
	if !strings.HasPrefix(call, siblingCallPrefix) {
		return "", false
	}
	category := plugin.Category(strings.TrimPrefix(call, siblingCallPrefix))
	for _, c := range plugin.SiblingCategories {
		if category == c {
			return category, true
		}
	}
	return "", false
}

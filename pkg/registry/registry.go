// Package registry routes collector invocations. It owns the dispatch
// boundary of the plugin contract: every fault raised while parsing
// configuration or executing a collector is converted into an error
// document here and never escapes to the caller.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/agnivade/levenshtein"

	"github.com/factsd/factsd/pkg/plugin"
)

// Collector is a named unit of logic producing facts. Implementations must
// be safe for concurrent invocations and must not retain state between
// calls; any blocking system query inside Collect must use a bounded wait.
type Collector interface {
	Descriptor() plugin.Descriptor
	Collect(ctx context.Context, cfg plugin.Config) (plugin.Document, error)
}

// Registry maps collector names to implementations and declares the
// plugin's capability set. It is safe for concurrent use.
type Registry struct {
	mu           sync.RWMutex
	collectors   map[string]Collector
	capabilities plugin.Capabilities

	// ExecuteTimeout bounds a single invocation. Zero disables the
	// registry-level deadline; collectors still bound their own waits.
	ExecuteTimeout time.Duration
}

// New creates an empty registry declaring only the facts-collectors
// capability.
func New() *Registry {
	return &Registry{
		collectors:     make(map[string]Collector),
		capabilities:   plugin.NewCapabilities(plugin.CategoryFactsCollectors),
		ExecuteTimeout: 30 * time.Second,
	}
}

// Register adds a collector. Names are case-sensitive and must be unique
// within the plugin; every registered name becomes dispatchable.
func (r *Registry) Register(c Collector) error {
	name := c.Descriptor().Name
	if name == "" {
		return fmt.Errorf("collector has empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.collectors[name]; exists {
		return fmt.Errorf("collector %q is already registered", name)
	}
	r.collectors[name] = c
	slog.Debug("registered collector", slog.String("name", name))
	return nil
}

// Descriptors returns the full descriptor set, sorted by name. The call is
// pure: no I/O, no side effects, deterministic content.
func (r *Registry) Descriptors() []plugin.Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]plugin.Descriptor, 0, len(r.collectors))
	for _, c := range r.collectors {
		out = append(out, c.Descriptor())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// EnumerateRaw serializes the descriptor set for the host boundary. A
// serialization fault here is host-fatal: it is returned as a real error,
// distinguishable from a plugin with zero collectors (which yields "[]").
func (r *Registry) EnumerateRaw() ([]byte, error) {
	descriptors := r.Descriptors()
	raw, err := json.Marshal(descriptors)
	if err != nil {
		enumerationTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to serialize descriptors: %w", err)
	}
	enumerationTotal.WithLabelValues("success").Inc()
	return raw, nil
}

// Execute routes an invocation to the named collector. The returned
// document is either the collector's facts or an error result; Execute
// itself never fails and never panics.
func (r *Registry) Execute(ctx context.Context, name string, rawConfig []byte) plugin.Document {
	start := time.Now()

	r.mu.RLock()
	collector, ok := r.collectors[name]
	r.mu.RUnlock()

	if !ok {
		r.logUnknown(name)
		invocationTotal.WithLabelValues(name, "unknown").Inc()
		return plugin.ErrorResult(fmt.Sprintf("Unknown collector: %s", name))
	}

	defer func() {
		invocationDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()

	cfg, err := plugin.ParseConfig(rawConfig)
	if err == nil {
		err = cfg.Validate(collector.Descriptor().ConfigSchema)
	}
	if err != nil {
		slog.Warn("rejected collector configuration",
			slog.String("collector", name),
			slog.String("error", err.Error()),
		)
		invocationTotal.WithLabelValues(name, "error").Inc()
		return plugin.ErrorResult(fmt.Sprintf("Collector execution failed: %v", err))
	}
	cfg = cfg.ApplyDefaults(collector.Descriptor().ConfigSchema)

	doc := r.run(ctx, collector, name, cfg)
	if doc.IsError() {
		invocationTotal.WithLabelValues(name, "error").Inc()
	} else {
		invocationTotal.WithLabelValues(name, "success").Inc()
	}
	return doc
}

// ExecuteRaw is Execute with a serialized result, for transports. The
// output is always well-formed JSON, even on failure.
func (r *Registry) ExecuteRaw(ctx context.Context, name string, rawConfig []byte) []byte {
	doc := r.Execute(ctx, name, rawConfig)
	raw, err := doc.Encode()
	if err != nil {
		// Result documents are built from JSON-safe values; a collector
		// smuggling an unencodable value degrades to an error result.
		raw, _ = plugin.ErrorResult(fmt.Sprintf("Collector execution failed: unencodable result: %v", err)).Encode()
	}
	return raw
}

// Extensions enumerates a sibling extension category. Undeclared
// categories yield an empty, non-nil sequence: a valid, complete answer.
func (r *Registry) Extensions(category plugin.Category) []plugin.ExtensionDescriptor {
	return []plugin.ExtensionDescriptor{}
}

// Capabilities returns the plugin's static capability declaration.
func (r *Registry) Capabilities() plugin.Capabilities {
	return r.capabilities
}

// run invokes the collector under the registry deadline, converting
// errors, panics, and deadline expiry into error documents.
func (r *Registry) run(ctx context.Context, c Collector, name string, cfg plugin.Config) plugin.Document {
	if r.ExecuteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.ExecuteTimeout)
		defer cancel()
	}

	type result struct {
		doc plugin.Document
		err error
	}
	resCh := make(chan result, 1)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				resCh <- result{err: fmt.Errorf("panic: %v", rec)}
			}
		}()
		doc, err := c.Collect(ctx, cfg)
		resCh <- result{doc: doc, err: err}
	}()

	select {
	case res := <-resCh:
		if res.err != nil {
			slog.Warn("collector failed",
				slog.String("collector", name),
				slog.String("error", res.err.Error()),
			)
			return plugin.ErrorResult(fmt.Sprintf("Collector execution failed: %v", res.err))
		}
		return res.doc
	case <-ctx.Done():
		// A hanging probe degrades to an error instead of stalling the
		// caller; the goroutine drains into the buffered channel.
		slog.Warn("collector timed out",
			slog.String("collector", name),
			slog.Duration("timeout", r.ExecuteTimeout),
		)
		return plugin.ErrorResult(fmt.Sprintf("Collector execution failed: %v", ctx.Err()))
	}
}

// logUnknown logs the miss with a nearest-name suggestion. The error
// document text stays exact for the host; the hint is operator-facing.
func (r *Registry) logUnknown(name string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	best, bestDist := "", -1
	for candidate := range r.collectors {
		d := levenshtein.ComputeDistance(name, candidate)
		if bestDist < 0 || d < bestDist {
			best, bestDist = candidate, d
		}
	}
	if best != "" && bestDist <= len(best)/2 {
		slog.Warn("unknown collector requested",
			slog.String("name", name),
			slog.String("closest", best),
		)
		return
	}
	slog.Warn("unknown collector requested", slog.String("name", name))
}

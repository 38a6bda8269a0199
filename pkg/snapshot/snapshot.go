// Package snapshot runs every registered collector once and bundles the
// results, for local inspection and the `collect --all` command. Hosts
// normally schedule collectors individually; this is a convenience on top
// of the same dispatch boundary.
package snapshot

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/factsd/factsd/pkg/plugin"
	"github.com/factsd/factsd/pkg/registry"
)

// Snapshot bundles one document per collector, keyed by collector name.
// Entries for failed collectors carry their error documents; partial
// failure never removes the other entries.
type Snapshot struct {
	Metadata map[string]string          `json:"metadata" yaml:"metadata"`
	Facts    map[string]plugin.Document `json:"facts" yaml:"facts"`
}

// Collect executes every registered collector in parallel with an empty
// configuration, so each one runs with its schema defaults.
func Collect(ctx context.Context, reg *registry.Registry) *Snapshot {
	descriptors := reg.Descriptors()

	hostname, _ := os.Hostname()
	snap := &Snapshot{
		Metadata: map[string]string{
			"source-node": hostname,
			"collected":   time.Now().UTC().Format(time.RFC3339),
		},
		Facts: make(map[string]plugin.Document, len(descriptors)),
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)

	for _, d := range descriptors {
		g.Go(func() error {
			slog.Debug("collecting", slog.String("collector", d.Name))
			doc := reg.Execute(ctx, d.Name, nil)
			mu.Lock()
			snap.Facts[d.Name] = doc
			mu.Unlock()
			return nil
		})
	}

	// Execute never fails; errors live inside the documents.
	_ = g.Wait()

	slog.Debug("snapshot complete", slog.Int("collectors", len(snap.Facts)))
	return snap
}

package facts

import (
	"context"
	"fmt"
	"strings"

	"github.com/coreos/go-systemd/v22/dbus"

	"github.com/factsd/factsd/pkg/plugin"
)

// SystemdServicesName is the collector name hosts dispatch on.
const SystemdServicesName = "systemd_services"

// unitLister is the slice of the systemd D-Bus connection the collector
// needs; tests substitute a fake.
type unitLister interface {
	ListUnitsContext(ctx context.Context) ([]dbus.UnitStatus, error)
	Close()
}

// SystemdServices reports unit states over the systemd D-Bus API. On nodes
// without systemd or D-Bus access the whole collection degrades to an
// error result at the dispatch boundary.
type SystemdServices struct {
	// connect is swappable in tests; production dials the system bus.
	connect func(ctx context.Context) (unitLister, error)
}

// NewSystemdServices creates the collector against the system bus.
func NewSystemdServices() *SystemdServices {
	return &SystemdServices{
		connect: func(ctx context.Context) (unitLister, error) {
			return dbus.NewWithContext(ctx)
		},
	}
}

// Descriptor implements registry.Collector.
func (s *SystemdServices) Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		Name: SystemdServicesName,
		ConfigSchema: plugin.ObjectSchema(map[string]plugin.Property{
			"units": {
				Type:        plugin.TypeArray,
				Description: "Service units to report (empty: all .service units)",
			},
		}),
	}
}

// Collect lists units once over a connection scoped to this invocation.
func (s *SystemdServices) Collect(ctx context.Context, cfg plugin.Config) (plugin.Document, error) {
	conn, err := s.connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("systemd bus unavailable: %w", err)
	}
	defer conn.Close()

	units, err := conn.ListUnitsContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}

	wanted := map[string]bool{}
	if raw, ok := cfg["units"].([]any); ok {
		for _, u := range raw {
			if name, ok := u.(string); ok {
				wanted[name] = true
			}
		}
	}

	doc := plugin.Document{}
	for _, unit := range units {
		if len(wanted) > 0 {
			if !wanted[unit.Name] {
				continue
			}
		} else if !strings.HasSuffix(unit.Name, ".service") {
			continue
		}
		doc[unit.Name] = map[string]any{
			"active_state": unit.ActiveState,
			"sub_state":    unit.SubState,
			"load_state":   unit.LoadState,
			"description":  unit.Description,
		}
	}
	return doc, nil
}

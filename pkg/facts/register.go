package facts

import (
	"fmt"
	"time"

	"github.com/factsd/factsd/pkg/registry"
)

// Options tunes the built-in collectors. Zero values fall back to the
// package defaults.
type Options struct {
	CPUSampleWindow time.Duration
	LookupTimeout   time.Duration
	ProbeTimeout    time.Duration
	ProbeAddress    string

	// DisableSystemd and DisableKubernetes drop the respective collectors
	// from the descriptor set, for nodes where they can never succeed.
	DisableSystemd    bool
	DisableKubernetes bool
}

// RegisterBuiltins adds every built-in collector to the registry.
func RegisterBuiltins(reg *registry.Registry, opts Options) error {
	collectors := []registry.Collector{
		NewSystemInfo(opts.CPUSampleWindow),
		NewNetworkInterfaces(opts.LookupTimeout, opts.ProbeTimeout, opts.ProbeAddress),
		NewDiskUsage(),
		NewOSRelease(),
	}
	if !opts.DisableSystemd {
		collectors = append(collectors, NewSystemdServices())
	}
	if !opts.DisableKubernetes {
		collectors = append(collectors, &Kubernetes{})
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("failed to register %s: %w", c.Descriptor().Name, err)
		}
	}
	return nil
}

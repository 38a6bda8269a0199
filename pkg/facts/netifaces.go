package facts

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/factsd/factsd/pkg/plugin"
)

const (
	// NetworkInterfacesName is the collector name hosts dispatch on.
	NetworkInterfacesName = "network_interfaces"

	// DefaultProbeAddress is the well-known external address used by the
	// outbound-probe tier. The connection is never written to; it only
	// reveals the local endpoint.
	DefaultProbeAddress = "8.8.8.8:53"

	DefaultLookupTimeout = 3 * time.Second
	DefaultProbeTimeout  = 3 * time.Second
)

// ifaceEntry is the per-interface record before it is shaped into a
// document.
type ifaceEntry struct {
	addresses []string
	mac       string
	status    string
	mtu       int
	loopback  bool
}

// netTier is one strategy in the ordered fallback chain. Each tier carries
// its own fault boundary: an error means "try the next tier".
type netTier struct {
	name    string
	collect func(ctx context.Context) (map[string]ifaceEntry, error)
}

// NetworkInterfaces enumerates the node's network interfaces, degrading
// through an ordered list of strategies: full per-adapter enumeration,
// hostname address resolution, a single outbound probe, and finally a
// document stating that network information is limited. Exhausting the
// tiers is not an error.
type NetworkInterfaces struct {
	LookupTimeout time.Duration
	ProbeTimeout  time.Duration
	ProbeAddress  string

	// tiers overrides the default strategy chain in tests.
	tiers []netTier
}

// NewNetworkInterfaces creates the collector with the default tier chain.
func NewNetworkInterfaces(lookupTimeout, probeTimeout time.Duration, probeAddress string) *NetworkInterfaces {
	if lookupTimeout <= 0 {
		lookupTimeout = DefaultLookupTimeout
	}
	if probeTimeout <= 0 {
		probeTimeout = DefaultProbeTimeout
	}
	if probeAddress == "" {
		probeAddress = DefaultProbeAddress
	}
	return &NetworkInterfaces{
		LookupTimeout: lookupTimeout,
		ProbeTimeout:  probeTimeout,
		ProbeAddress:  probeAddress,
	}
}

// Descriptor implements registry.Collector.
func (n *NetworkInterfaces) Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		Name: NetworkInterfacesName,
		ConfigSchema: plugin.ObjectSchema(map[string]plugin.Property{
			"include_loopback": {
				Type:        plugin.TypeBoolean,
				Default:     false,
				Description: "Include loopback interfaces",
			},
		}),
	}
}

// Collect walks the tier chain until one yields data, then applies the
// loopback policy and shapes the result as interface identifier → details.
func (n *NetworkInterfaces) Collect(ctx context.Context, cfg plugin.Config) (plugin.Document, error) {
	includeLoopback := cfg.Bool("include_loopback", false)

	entries := map[string]ifaceEntry{}
	for _, tier := range n.tierChain() {
		res, err := tier.collect(ctx)
		if err != nil || len(res) == 0 {
			slog.Debug("network tier unavailable",
				slog.String("tier", tier.name),
				slog.Any("error", err),
			)
			continue
		}
		slog.Debug("network tier succeeded",
			slog.String("tier", tier.name),
			slog.Int("interfaces", len(res)),
		)
		entries = res
		break
	}

	if !includeLoopback {
		for name, e := range entries {
			if e.loopback {
				delete(entries, name)
			}
		}
	} else if !hasLoopback(entries) {
		// No real loopback data obtainable; synthesize the conventional
		// entry.
		entries["lo"] = ifaceEntry{
			addresses: []string{"127.0.0.1"},
			status:    "up",
			loopback:  true,
		}
	}

	if len(entries) == 0 {
		return plugin.Document{
			"note": "network information is limited: no interface enumeration source is available on this node",
		}, nil
	}

	doc := plugin.Document{}
	for name, e := range entries {
		info := map[string]any{
			"addresses": e.addresses,
			"status":    e.status,
		}
		if e.mac != "" {
			info["mac"] = e.mac
		}
		if e.mtu > 0 {
			info["mtu"] = e.mtu
		}
		doc[name] = info
	}
	return doc, nil
}

func (n *NetworkInterfaces) tierChain() []netTier {
	if n.tiers != nil {
		return n.tiers
	}
	return []netTier{
		{name: "enumeration", collect: n.collectFromInterfaces},
		{name: "hostname", collect: n.collectFromHostname},
		{name: "probe", collect: n.collectFromProbe},
	}
}

// collectFromInterfaces is tier 1: full per-adapter enumeration with
// addresses, MAC, link state, and MTU.
func (n *NetworkInterfaces) collectFromInterfaces(ctx context.Context) (map[string]ifaceEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("interface enumeration failed: %w", err)
	}

	entries := make(map[string]ifaceEntry, len(ifaces))
	for _, iface := range ifaces {
		entry := ifaceEntry{
			status:   "down",
			mtu:      iface.MTU,
			loopback: iface.Flags&net.FlagLoopback != 0,
		}
		if iface.Flags&net.FlagUp != 0 {
			entry.status = "up"
		}
		if len(iface.HardwareAddr) > 0 {
			entry.mac = iface.HardwareAddr.String()
		}

		addrs, err := iface.Addrs()
		if err != nil {
			// Address lookup can fail per interface; the adapter itself
			// is still worth reporting.
			slog.Debug("interface address lookup failed",
				slog.String("interface", iface.Name),
				slog.String("error", err.Error()),
			)
		}
		entry.addresses = make([]string, 0, len(addrs))
		for _, addr := range addrs {
			entry.addresses = append(entry.addresses, addr.String())
		}

		entries[iface.Name] = entry
	}
	return entries, nil
}

// collectFromHostname is tier 2: resolve the local hostname's addresses
// with a bounded lookup.
func (n *NetworkInterfaces) collectFromHostname(ctx context.Context) (map[string]ifaceEntry, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("hostname unavailable: %w", err)
	}

	lookupCtx, cancel := context.WithTimeout(ctx, n.LookupTimeout)
	defer cancel()

	addrs, err := net.DefaultResolver.LookupHost(lookupCtx, hostname)
	if err != nil {
		return nil, fmt.Errorf("hostname lookup failed: %w", err)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("hostname %q resolved to no addresses", hostname)
	}

	loopbackOnly := true
	for _, a := range addrs {
		if ip := net.ParseIP(a); ip == nil || !ip.IsLoopback() {
			loopbackOnly = false
			break
		}
	}

	return map[string]ifaceEntry{
		hostname: {
			addresses: addrs,
			status:    "unknown",
			loopback:  loopbackOnly,
		},
	}, nil
}

// collectFromProbe is tier 3: open a throwaway connection to a well-known
// external address and read back the local endpoint. UDP never transmits
// anything here.
func (n *NetworkInterfaces) collectFromProbe(ctx context.Context) (map[string]ifaceEntry, error) {
	dialer := net.Dialer{Timeout: n.ProbeTimeout}
	conn, err := dialer.DialContext(ctx, "udp", n.ProbeAddress)
	if err != nil {
		return nil, fmt.Errorf("outbound probe failed: %w", err)
	}
	defer conn.Close()

	local, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok || local.IP == nil {
		return nil, fmt.Errorf("outbound probe yielded no local address")
	}

	return map[string]ifaceEntry{
		"primary": {
			addresses: []string{local.IP.String()},
			status:    "unknown",
			loopback:  local.IP.IsLoopback(),
		},
	}, nil
}

func hasLoopback(entries map[string]ifaceEntry) bool {
	for _, e := range entries {
		if e.loopback {
			return true
		}
	}
	return false
}

package facts

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/factsd/factsd/pkg/plugin"
)

const (
	// SystemInfoName is the collector name hosts dispatch on.
	SystemInfoName = "system_info"

	// DefaultCPUSampleWindow is the utilization sampling window. Kept
	// short so a single invocation stays cheap.
	DefaultCPUSampleWindow = 200 * time.Millisecond
)

// SystemInfo collects CPU and memory facts about the local node. The proc
// paths are fields so tests can point the collector at fixtures.
type SystemInfo struct {
	// SampleWindow bounds the CPU utilization sampling wait.
	SampleWindow time.Duration

	StatPath    string
	MeminfoPath string
	CpuinfoPath string
}

// NewSystemInfo creates the collector with production /proc sources.
func NewSystemInfo(sampleWindow time.Duration) *SystemInfo {
	if sampleWindow <= 0 {
		sampleWindow = DefaultCPUSampleWindow
	}
	return &SystemInfo{
		SampleWindow: sampleWindow,
		StatPath:     "/proc/stat",
		MeminfoPath:  "/proc/meminfo",
		CpuinfoPath:  "/proc/cpuinfo",
	}
}

// Descriptor implements registry.Collector.
func (s *SystemInfo) Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		Name: SystemInfoName,
		ConfigSchema: plugin.ObjectSchema(map[string]plugin.Property{
			"include_cpu": {
				Type:        plugin.TypeBoolean,
				Default:     true,
				Description: "Include CPU information",
			},
			"include_memory": {
				Type:        plugin.TypeBoolean,
				Default:     true,
				Description: "Include memory information",
			},
		}),
	}
}

// Collect gathers the enabled categories in parallel. A failing category is
// replaced by an error sub-object in place; it never blocks the others.
func (s *SystemInfo) Collect(ctx context.Context, cfg plugin.Config) (plugin.Document, error) {
	doc := plugin.Document{}
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)

	if cfg.Bool("include_cpu", true) {
		g.Go(func() error {
			cpu := s.collectCPU(ctx)
			mu.Lock()
			doc["cpu"] = cpu
			mu.Unlock()
			return nil
		})
	}

	if cfg.Bool("include_memory", true) {
		g.Go(func() error {
			mem := s.collectMemory()
			mu.Lock()
			doc["memory"] = mem
			mu.Unlock()
			return nil
		})
	}

	// Category goroutines report failures in-document and never error.
	_ = g.Wait()

	doc["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	return doc, nil
}

// collectCPU returns the cpu category: architecture, core counts, sampled
// utilization, and the runtime's own version string.
func (s *SystemInfo) collectCPU(ctx context.Context) map[string]any {
	cpu := map[string]any{
		"architecture":    runtime.GOARCH,
		"logical_cores":   runtime.NumCPU(),
		"runtime_version": runtime.Version(),
	}

	if physical, err := countPhysicalCores(s.CpuinfoPath); err == nil && physical > 0 {
		cpu["physical_cores"] = physical
	}

	usage, err := s.sampleCPUUsage(ctx)
	if err != nil {
		slog.Warn("cpu utilization unavailable", slog.String("error", err.Error()))
		cpu["usage"] = map[string]any{plugin.ErrorKey: fmt.Sprintf("cpu utilization unavailable: %v", err)}
	} else {
		cpu["usage_percent"] = round2(usage)
	}

	return cpu
}

// collectMemory returns the memory category, normalized to gigabytes with
// two decimal places, or an error sub-object when /proc/meminfo cannot be
// read.
func (s *SystemInfo) collectMemory() map[string]any {
	totalKB, availableKB, err := readMeminfo(s.MeminfoPath)
	if err != nil {
		slog.Warn("memory facts unavailable", slog.String("error", err.Error()))
		return map[string]any{plugin.ErrorKey: fmt.Sprintf("memory facts unavailable: %v", err)}
	}

	usedKB := totalKB - availableKB
	mem := map[string]any{
		"total_gb":     round2(kbToGB(totalKB)),
		"available_gb": round2(kbToGB(availableKB)),
		"used_gb":      round2(kbToGB(usedKB)),
	}
	if totalKB > 0 {
		mem["used_percent"] = round2(float64(usedKB) / float64(totalKB) * 100)
	}
	return mem
}

// sampleCPUUsage reads the aggregate cpu line twice across the sampling
// window and derives the busy share of elapsed jiffies.
func (s *SystemInfo) sampleCPUUsage(ctx context.Context) (float64, error) {
	idle1, total1, err := readCPUSample(s.StatPath)
	if err != nil {
		return 0, err
	}

	window := s.SampleWindow
	if window <= 0 {
		window = DefaultCPUSampleWindow
	}
	timer := time.NewTimer(window)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return 0, ctx.Err()
	}

	idle2, total2, err := readCPUSample(s.StatPath)
	if err != nil {
		return 0, err
	}

	totalDelta := total2 - total1
	if totalDelta == 0 {
		return 0, nil
	}
	idleDelta := idle2 - idle1
	return (1 - float64(idleDelta)/float64(totalDelta)) * 100, nil
}

// readCPUSample parses the aggregate "cpu" line of /proc/stat into idle and
// total jiffy counters. The idle figure includes iowait.
func readCPUSample(path string) (idle, total uint64, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, err
	}
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 5 || fields[0] != "cpu" {
			continue
		}
		for i, f := range fields[1:] {
			v, perr := strconv.ParseUint(f, 10, 64)
			if perr != nil {
				return 0, 0, fmt.Errorf("failed to parse %s: %w", path, perr)
			}
			total += v
			// fields: user nice system idle iowait ...
			if i == 3 || i == 4 {
				idle += v
			}
		}
		return idle, total, nil
	}
	return 0, 0, fmt.Errorf("no aggregate cpu line in %s", path)
}

// readMeminfo extracts MemTotal and MemAvailable (kB) from /proc/meminfo.
func readMeminfo(path string) (totalKB, availableKB uint64, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, err
	}

	var haveTotal, haveAvailable bool
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "MemTotal:":
			totalKB, err = strconv.ParseUint(fields[1], 10, 64)
			haveTotal = err == nil
		case "MemAvailable:":
			availableKB, err = strconv.ParseUint(fields[1], 10, 64)
			haveAvailable = err == nil
		}
	}
	if !haveTotal || !haveAvailable {
		return 0, 0, fmt.Errorf("incomplete meminfo in %s", path)
	}
	return totalKB, availableKB, nil
}

// countPhysicalCores counts distinct (physical id, core id) pairs in
// /proc/cpuinfo. Returns 0 when the topology fields are absent, as on
// virtualized or non-x86 nodes.
func countPhysicalCores(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	cores := make(map[string]struct{})
	var physicalID string
	for _, line := range strings.Split(string(data), "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		switch key {
		case "physical id":
			physicalID = value
		case "core id":
			cores[physicalID+"/"+value] = struct{}{}
		}
	}
	return len(cores), nil
}

func kbToGB(kb uint64) float64 {
	return float64(kb) / (1024 * 1024)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

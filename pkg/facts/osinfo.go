package facts

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/factsd/factsd/pkg/plugin"
)

// OSReleaseName is the collector name hosts dispatch on.
const OSReleaseName = "os_release"

// OSRelease reports identity facts about the node: hostname, kernel,
// distribution, and uptime.
type OSRelease struct {
	OSReleasePath string
	UptimePath    string

	// uname is swappable in tests.
	uname func(*unix.Utsname) error
}

// NewOSRelease creates the collector with production sources.
func NewOSRelease() *OSRelease {
	return &OSRelease{
		OSReleasePath: "/etc/os-release",
		UptimePath:    "/proc/uptime",
		uname:         unix.Uname,
	}
}

// Descriptor implements registry.Collector. The collector takes no
// options.
func (o *OSRelease) Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		Name:         OSReleaseName,
		ConfigSchema: plugin.ObjectSchema(nil),
	}
}

// Collect gathers each category independently; an unavailable source is
// reported in place and never blocks the others.
func (o *OSRelease) Collect(ctx context.Context, cfg plugin.Config) (plugin.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc := plugin.Document{}

	if hostname, err := os.Hostname(); err == nil {
		doc["hostname"] = hostname
	} else {
		doc["hostname"] = map[string]any{plugin.ErrorKey: fmt.Sprintf("hostname unavailable: %v", err)}
	}

	var uts unix.Utsname
	if err := o.uname(&uts); err == nil {
		doc["kernel"] = map[string]any{
			"sysname": unix.ByteSliceToString(uts.Sysname[:]),
			"release": unix.ByteSliceToString(uts.Release[:]),
			"machine": unix.ByteSliceToString(uts.Machine[:]),
		}
	} else {
		doc["kernel"] = map[string]any{plugin.ErrorKey: fmt.Sprintf("uname failed: %v", err)}
	}

	if dist, err := o.readOSRelease(); err == nil {
		doc["distribution"] = dist
	} else {
		slog.Debug("os-release unavailable", slog.String("error", err.Error()))
		doc["distribution"] = map[string]any{plugin.ErrorKey: fmt.Sprintf("os-release unavailable: %v", err)}
	}

	if uptime, err := o.readUptime(); err == nil {
		doc["uptime_seconds"] = round2(uptime)
	} else {
		doc["uptime_seconds"] = map[string]any{plugin.ErrorKey: fmt.Sprintf("uptime unavailable: %v", err)}
	}

	return doc, nil
}

// readOSRelease extracts the identity fields of os-release(5).
func (o *OSRelease) readOSRelease() (map[string]any, error) {
	data, err := os.ReadFile(o.OSReleasePath)
	if err != nil {
		return nil, err
	}

	fields := map[string]string{}
	for _, line := range strings.Split(string(data), "\n") {
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		fields[key] = strings.Trim(value, `"`)
	}

	dist := map[string]any{}
	for src, dst := range map[string]string{
		"ID":          "id",
		"VERSION_ID":  "version_id",
		"PRETTY_NAME": "pretty_name",
	} {
		if v, ok := fields[src]; ok {
			dist[dst] = v
		}
	}
	if len(dist) == 0 {
		return nil, fmt.Errorf("no identity fields in %s", o.OSReleasePath)
	}
	return dist, nil
}

// readUptime parses the first field of /proc/uptime.
func (o *OSRelease) readUptime() (float64, error) {
	data, err := os.ReadFile(o.UptimePath)
	if err != nil {
		return 0, err
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty uptime file %s", o.UptimePath)
	}
	return strconv.ParseFloat(fields[0], 64)
}

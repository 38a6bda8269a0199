package facts

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/factsd/factsd/pkg/plugin"
)

// DiskUsageName is the collector name hosts dispatch on.
const DiskUsageName = "disk_usage"

// pseudo filesystem types skipped when no explicit mount list is given.
var pseudoFilesystems = map[string]struct{}{
	"proc": {}, "sysfs": {}, "devtmpfs": {}, "devpts": {}, "tmpfs": {},
	"cgroup": {}, "cgroup2": {}, "securityfs": {}, "debugfs": {},
	"tracefs": {}, "pstore": {}, "bpf": {}, "autofs": {}, "mqueue": {},
	"hugetlbfs": {}, "fusectl": {}, "configfs": {}, "overlay": {},
	"squashfs": {}, "ramfs": {}, "binfmt_misc": {}, "nsfs": {},
	"efivarfs": {}, "rpc_pipefs": {},
}

// DiskUsage reports filesystem capacity per mount point.
type DiskUsage struct {
	MountsPath string

	// statfs is swappable in tests; production uses unix.Statfs.
	statfs func(path string, buf *unix.Statfs_t) error
}

// NewDiskUsage creates the collector reading /proc/mounts.
func NewDiskUsage() *DiskUsage {
	return &DiskUsage{
		MountsPath: "/proc/mounts",
		statfs:     unix.Statfs,
	}
}

// Descriptor implements registry.Collector.
func (d *DiskUsage) Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		Name: DiskUsageName,
		ConfigSchema: plugin.ObjectSchema(map[string]plugin.Property{
			"mount_points": {
				Type:        plugin.TypeArray,
				Description: "Mount points to report (empty: all real filesystems)",
			},
		}),
	}
}

// Collect stats every selected mount point. A mount that cannot be statted
// is reported with an in-place error sub-object; the others still appear.
func (d *DiskUsage) Collect(ctx context.Context, cfg plugin.Config) (plugin.Document, error) {
	mounts, err := d.readMounts()
	if err != nil {
		return nil, fmt.Errorf("mount table unavailable: %w", err)
	}

	wanted := map[string]bool{}
	if raw, ok := cfg["mount_points"].([]any); ok {
		for _, m := range raw {
			if s, ok := m.(string); ok {
				wanted[s] = true
			}
		}
	}

	doc := plugin.Document{}
	for _, m := range mounts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(wanted) > 0 {
			if !wanted[m.mountPoint] {
				continue
			}
		} else if _, pseudo := pseudoFilesystems[m.fsType]; pseudo {
			continue
		}

		entry := map[string]any{
			"device": m.device,
			"fstype": m.fsType,
		}

		var st unix.Statfs_t
		if err := d.statfs(m.mountPoint, &st); err != nil {
			slog.Debug("statfs failed",
				slog.String("mount", m.mountPoint),
				slog.String("error", err.Error()),
			)
			entry[plugin.ErrorKey] = fmt.Sprintf("statfs failed: %v", err)
			doc[m.mountPoint] = entry
			continue
		}

		bsize := uint64(st.Bsize)
		total := st.Blocks * bsize
		free := st.Bfree * bsize
		available := st.Bavail * bsize
		used := total - free

		entry["total_gb"] = round2(bytesToGB(total))
		entry["free_gb"] = round2(bytesToGB(free))
		entry["available_gb"] = round2(bytesToGB(available))
		entry["used_gb"] = round2(bytesToGB(used))
		if total > 0 {
			entry["used_percent"] = round2(float64(used) / float64(total) * 100)
		}
		doc[m.mountPoint] = entry
	}

	return doc, nil
}

type mountEntry struct {
	device     string
	mountPoint string
	fsType     string
}

// readMounts parses the mount table. Octal escapes in mount points (spaces
// encode as \040) are left as-is; such paths are rare and still unique keys.
func (d *DiskUsage) readMounts() ([]mountEntry, error) {
	data, err := os.ReadFile(d.MountsPath)
	if err != nil {
		return nil, err
	}

	var mounts []mountEntry
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		mounts = append(mounts, mountEntry{
			device:     fields[0],
			mountPoint: fields[1],
			fsType:     fields[2],
		})
	}
	return mounts, nil
}

func bytesToGB(b uint64) float64 {
	return float64(b) / (1024 * 1024 * 1024)
}

package facts

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/sys/unix"

	"github.com/factsd/factsd/pkg/plugin"
)

const osReleaseFixture = `NAME="Ubuntu"
VERSION="24.04.1 LTS (Noble Numbat)"
ID=ubuntu
ID_LIKE=debian
VERSION_ID="24.04"
PRETTY_NAME="Ubuntu 24.04.1 LTS"
`

func fakeUname(uts *unix.Utsname) error {
	copy(uts.Sysname[:], "Linux")
	copy(uts.Release[:], "6.8.0-45-generic")
	copy(uts.Machine[:], "x86_64")
	return nil
}

func newFixtureOSRelease(t *testing.T) *OSRelease {
	t.Helper()
	return &OSRelease{
		OSReleasePath: writeFixture(t, "os-release", osReleaseFixture),
		UptimePath:    writeFixture(t, "uptime", "351735.31 7119841.52\n"),
		uname:         fakeUname,
	}
}

func TestOSRelease_Collect(t *testing.T) {
	doc, err := newFixtureOSRelease(t).Collect(context.Background(), plugin.Config{})
	require.NoError(t, err)

	assert.NotEmpty(t, doc["hostname"])

	kernel, ok := doc["kernel"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Linux", kernel["sysname"])
	assert.Equal(t, "6.8.0-45-generic", kernel["release"])
	assert.Equal(t, "x86_64", kernel["machine"])

	dist, ok := doc["distribution"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ubuntu", dist["id"])
	assert.Equal(t, "24.04", dist["version_id"])
	assert.Equal(t, "Ubuntu 24.04.1 LTS", dist["pretty_name"])

	assert.InDelta(t, 351735.31, doc["uptime_seconds"], 0.01)
}

func TestOSRelease_DistributionDegradesInPlace(t *testing.T) {
	o := newFixtureOSRelease(t)
	o.OSReleasePath = filepath.Join(t.TempDir(), "missing")

	doc, err := o.Collect(context.Background(), plugin.Config{})
	require.NoError(t, err)
	assert.False(t, doc.IsError())

	dist, ok := doc["distribution"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, dist, plugin.ErrorKey)

	// The other categories are unaffected.
	assert.Contains(t, doc, "kernel")
	assert.Contains(t, doc, "uptime_seconds")
}

func TestOSRelease_UnameDegradesInPlace(t *testing.T) {
	o := newFixtureOSRelease(t)
	o.uname = func(*unix.Utsname) error { return fmt.Errorf("not permitted") }

	doc, err := o.Collect(context.Background(), plugin.Config{})
	require.NoError(t, err)

	kernel, ok := doc["kernel"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, kernel, plugin.ErrorKey)
}

func TestOSRelease_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newFixtureOSRelease(t).Collect(ctx, plugin.Config{})
	assert.Error(t, err)
}

func TestOSRelease_NoIdentityFields(t *testing.T) {
	o := newFixtureOSRelease(t)
	o.OSReleasePath = writeFixture(t, "os-release", "HOME_URL=https://example.org\n")

	_, err := o.readOSRelease()
	assert.Error(t, err)
}

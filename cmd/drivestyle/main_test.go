package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/drivestyle/internal/features"
	"github.com/banshee-data/drivestyle/internal/monitoring"
	"github.com/banshee-data/drivestyle/internal/testutil"
)

func init() {
	monitoring.SetLogger(nil)
}

type cli struct {
	t    *testing.T
	dir  string
	base []string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	t.Setenv("DRIVESTYLE_CONFIG", "")
	dir := t.TempDir()
	return &cli{
		t:    t,
		dir:  dir,
		base: []string{"--db", filepath.Join(dir, "drivestyle.db"), "--env-file", filepath.Join(dir, "missing.env")},
	}
}

func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(append([]string{}, args...), c.base...))
	err := cmd.Execute()
	return out.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	require.NoError(c.t, err, out)
	return out
}

func (c *cli) path(name string) string {
	return filepath.Join(c.dir, name)
}

func writeSummary(t *testing.T, path string, table features.Table) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, features.WriteCSV(f, table))
	require.NoError(t, f.Close())
}

func TestCLI_Workflow(t *testing.T) {
	c := newCLI(t)

	writeSummary(t, c.path("summary.csv"), testutil.SyntheticWindows(4))
	out := c.mustRun("import", c.path("summary.csv"))
	assert.Contains(t, out, "Imported 24 windows")

	out = c.mustRun("cluster", "--save", "--chart", c.path("chart.html"), "--plot", c.path("sizes.png"))
	assert.Contains(t, out, "24 windows, iterative then kmeans split")
	assert.Contains(t, out, "BEHAVIOR")
	assert.Contains(t, out, "Highway")
	assert.Contains(t, out, "Saved run ")
	assert.FileExists(t, c.path("chart.html"))
	png, err := os.ReadFile(c.path("sizes.png"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	out = c.mustRun("runs", "list")
	assert.Contains(t, out, "iterative")

	require.NoError(t, os.WriteFile(c.path("trip.csv"), []byte(testutil.TripCSV(400, 30)), 0o644))
	out = c.mustRun("classify", c.path("trip.csv"))
	assert.True(t, strings.HasPrefix(out, "trip.csv: "), out)
	assert.Contains(t, out, "mean speed 108.0 km/h")

	out = c.mustRun("ingest", c.path("trip.csv"))
	assert.Contains(t, out, "Stored 2 windows from 1 trips (0 too short)")

	out = c.mustRun("export", "-")
	table, err := features.ReadCSV(strings.NewReader(out))
	require.NoError(t, err)
	assert.Len(t, table, 26)
}

func TestCLI_IngestShortTrip(t *testing.T) {
	c := newCLI(t)
	require.NoError(t, os.WriteFile(c.path("short.csv"), []byte(testutil.TripCSV(60, 10)), 0o644))

	out := c.mustRun("ingest", c.path("short.csv"))
	assert.Contains(t, out, "Stored 0 windows from 1 trips (1 too short)")
}

func TestCLI_ClusterErrors(t *testing.T) {
	c := newCLI(t)

	_, err := c.run("cluster")
	assert.Error(t, err, "empty store")

	writeSummary(t, c.path("summary.csv"), testutil.SyntheticWindows(2))
	c.mustRun("import", c.path("summary.csv"))
	_, err = c.run("cluster", "--method", "spectral")
	assert.Error(t, err)
}

func TestCLI_Migrate(t *testing.T) {
	c := newCLI(t)

	out := c.mustRun("migrate", "up")
	assert.Contains(t, out, "Current version: 2")
	assert.Contains(t, out, "Latest version: 2")

	out = c.mustRun("migrate", "down")
	assert.Contains(t, out, "Current version: 1")
	assert.Contains(t, out, "Pending migrations")

	out = c.mustRun("migrate", "force", "1")
	assert.Contains(t, out, "Current version: 1")

	_, err := c.run("migrate", "force", "one")
	assert.Error(t, err)
}

func TestCLI_BadConfig(t *testing.T) {
	c := newCLI(t)
	require.NoError(t, os.WriteFile(c.path("bad.yaml"), []byte("k: -1\n"), 0o644))

	_, err := c.run("cluster", "--config", c.path("bad.yaml"))
	assert.Error(t, err)
}

func TestCLI_Version(t *testing.T) {
	c := newCLI(t)
	out := c.mustRun("version")
	assert.True(t, strings.HasPrefix(out, "drivestyle dev"), out)
}

package behavior

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/drivestyle/internal/cluster"
	"github.com/banshee-data/drivestyle/internal/config"
	"github.com/banshee-data/drivestyle/internal/features"
	"github.com/banshee-data/drivestyle/internal/monitoring"
	"github.com/banshee-data/drivestyle/internal/testutil"
)

func init() {
	monitoring.SetLogger(nil)
}

func checkResult(t *testing.T, res *Result, bands []string) {
	t.Helper()

	n := len(res.Windows)
	require.Len(t, res.Clusters, n)
	require.Len(t, res.Refined, n)
	require.Len(t, res.Scaled, n)
	require.Len(t, res.Stats, 2*len(bands))

	for i := range res.Windows {
		assert.Equalf(t, res.Clusters[i], res.Refined[i]/2, "window %d refined outside its cluster", i)
		_, ok := res.Labels[res.Refined[i]]
		assert.Truef(t, ok, "window %d has no label", i)
	}

	perBand := map[string][2]int{}
	for _, l := range res.Labels {
		c := perBand[l.Band]
		if l.Aggressive {
			c[1]++
		} else {
			c[0]++
		}
		perBand[l.Band] = c
	}
	for _, b := range bands {
		assert.Equalf(t, [2]int{1, 1}, perBand[b], "band %s needs one normal and one aggressive group", b)
	}

	// bands are ordered by speed
	bandSpeed := map[string]float64{}
	for _, s := range res.Stats {
		l := res.Labels[s.Refined]
		bandSpeed[l.Band] = max(bandSpeed[l.Band], s.MeanSpeed)
	}
	for i := 1; i < len(bands); i++ {
		assert.Greater(t, bandSpeed[bands[i-1]], bandSpeed[bands[i]])
	}
}

func TestPipeline_Defaults(t *testing.T) {
	p, err := NewPipeline(config.EmptyTuningConfig())
	require.NoError(t, err)
	assert.Equal(t, config.MethodIterative, p.Initial.Name())
	assert.Equal(t, config.MethodKMeans, p.Splitter.Name())

	res, err := p.Run(testutil.SyntheticWindows(6))
	require.NoError(t, err)

	assert.Equal(t, config.MethodIterative, res.Method)
	assert.Equal(t, config.MethodKMeans, res.SplitMethod)
	assert.LessOrEqual(t, len(res.Sizes), 3)
	checkResult(t, res, config.DefaultBandNames)
}

func TestPipeline_Methods(t *testing.T) {
	tests := []struct {
		initial string
		split   string
	}{
		{config.MethodKMeans, config.MethodKMeans},
		{config.MethodKMeans, config.MethodAgglomerative},
		{config.MethodAgglomerative, config.MethodKMeans},
		{config.MethodIterative, config.MethodAgglomerative},
	}

	table := testutil.SyntheticWindows(5)
	for _, tt := range tests {
		t.Run(tt.initial+"/"+tt.split, func(t *testing.T) {
			cfg := config.EmptyTuningConfig()
			cfg.InitialMethod = &tt.initial
			cfg.SplitMethod = &tt.split

			p, err := NewPipeline(cfg)
			require.NoError(t, err)
			res, err := p.Run(table)
			require.NoError(t, err)
			checkResult(t, res, config.DefaultBandNames)
		})
	}
}

func TestPipeline_Deterministic(t *testing.T) {
	p, err := NewPipeline(config.EmptyTuningConfig())
	require.NoError(t, err)
	table := testutil.SyntheticWindows(4)

	first, err := p.Run(table)
	require.NoError(t, err)
	second, err := p.Run(table)
	require.NoError(t, err)

	assert.Equal(t, first.Refined, second.Refined)
	assert.Equal(t, first.Labels, second.Labels)
}

func TestPipeline_BandMismatch(t *testing.T) {
	cfg := config.EmptyTuningConfig()
	cfg.BandNames = []string{"Fast", "Slow"}
	p, err := NewPipeline(cfg)
	require.NoError(t, err)

	res, err := p.Run(testutil.SyntheticWindows(4))
	assert.Nil(t, res)
	assert.ErrorIs(t, err, cluster.ErrInvalidInput)
}

func TestPipeline_EmptyTable(t *testing.T) {
	p, err := NewPipeline(config.EmptyTuningConfig())
	require.NoError(t, err)

	_, err = p.Run(features.Table{})
	assert.ErrorIs(t, err, cluster.ErrInvalidInput)
}

func TestNewPipeline_UnknownMethod(t *testing.T) {
	cfg := config.EmptyTuningConfig()
	method := "spectral"
	cfg.InitialMethod = &method

	_, err := NewPipeline(cfg)
	assert.ErrorIs(t, err, cluster.ErrInvalidInput)

	cfg = config.EmptyTuningConfig()
	split := config.MethodDBSCAN
	cfg.SplitMethod = &split
	_, err = NewPipeline(cfg)
	assert.ErrorIs(t, err, cluster.ErrInvalidInput)
}

func TestPipeline_DegenerateSplitIsAdvisory(t *testing.T) {
	// every initial cluster holds identical rows, so no split can separate them
	table := features.Table{}
	for _, speed := range []float64{120, 120, 70, 70, 30, 30} {
		table = append(table, features.Window{MeanSpeed: speed, MaxSpeed: speed + 10, SpeedVariation: 2})
	}
	p := &Pipeline{
		Initial:  cluster.NewKMeans(3, config.EmptyTuningConfig()),
		Splitter: cluster.NewKMeans(2, config.EmptyTuningConfig()),
		Bands:    []string{"Only"},
	}

	// three degenerate clusters leave three refined labels, which cannot
	// fill bands of two
	_, err := p.Run(table)
	assert.ErrorIs(t, err, cluster.ErrInvalidInput)

	p.Initial = cluster.NewKMeans(1, config.EmptyTuningConfig())
	res, err := p.Run(table)
	require.NoError(t, err)
	assert.Empty(t, res.Degenerate)
	assert.Len(t, res.Stats, 2)
}

package behavior

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/drivestyle/internal/cluster"
	"github.com/banshee-data/drivestyle/internal/features"
)

func TestSummarize(t *testing.T) {
	table := features.Table{
		{MeanSpeed: 100, SpeedVariation: 1},
		{MeanSpeed: 30, SpeedVariation: 7},
		{MeanSpeed: 110, SpeedVariation: 3},
		{MeanSpeed: 20, SpeedVariation: 4},
	}
	refined := []int{3, 0, 3, 5}

	stats, err := Summarize(table, refined)
	require.NoError(t, err)
	require.Len(t, stats, 3)

	assert.Equal(t, ClusterStats{Refined: 0, Count: 1, MeanSpeed: 30}, stats[0], "single member has zero dispersion")

	assert.Equal(t, 3, stats[1].Refined)
	assert.Equal(t, 2, stats[1].Count)
	assert.InDelta(t, 105, stats[1].MeanSpeed, 1e-12)
	assert.InDelta(t, math.Sqrt2, stats[1].VariationStd, 1e-12, "sample standard deviation")

	assert.Equal(t, 5, stats[2].Refined)
}

func TestSummarize_LengthMismatch(t *testing.T) {
	_, err := Summarize(features.Table{{}}, []int{0, 1})
	assert.ErrorIs(t, err, cluster.ErrInvalidInput)
}

func TestSizes(t *testing.T) {
	got := Sizes([]int{2, 0, 2, 1, 2})
	assert.Equal(t, []ClusterSize{{0, 1}, {1, 1}, {2, 3}}, got)
	assert.Empty(t, Sizes(nil))
}

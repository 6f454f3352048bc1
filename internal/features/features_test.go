package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func TestWindowVector(t *testing.T) {
	w := Window{MeanSpeed: 1, MaxSpeed: 2, StdAccelX: 3, StdAccelY: 4, StopTimePct: 5, SpeedVariation: 6}
	v := w.Vector()
	require.Len(t, v, Dimensions)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, v)
}

func TestTableIndexOf(t *testing.T) {
	table := Table{
		{Source: "a.csv", MeanSpeed: 30},
		{Source: "b.csv", MeanSpeed: 90},
		{Source: "b.csv", MeanSpeed: 90},
	}
	assert.Equal(t, 1, table.IndexOf(Window{Source: "b.csv", MeanSpeed: 90}))
	assert.Equal(t, -1, table.IndexOf(Window{Source: "c.csv"}))
	assert.Equal(t, 1, table.IndexOf(Window{Source: "b.csv", Segment: 4, MeanSpeed: 90}), "segment is ignored")
}

func TestStandardize(t *testing.T) {
	rows := [][]float64{
		{10, 1, 7},
		{20, 2, 7},
		{30, 6, 7},
		{40, 3, 7},
	}

	out, err := Standardize(rows)
	require.NoError(t, err)

	col := make([]float64, len(out))
	for j := 0; j < 2; j++ {
		for i := range out {
			col[i] = out[i][j]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		assert.InDelta(t, 0, mean, 1e-12, "column %d mean", j)
		assert.InDelta(t, 1, std, 1e-12, "column %d std", j)
	}

	// constant column is centred to zero, not divided by zero
	for i := range out {
		assert.Equal(t, 0.0, out[i][2])
		assert.False(t, math.IsNaN(out[i][2]))
	}

	// input untouched
	assert.Equal(t, 10.0, rows[0][0])
}

func TestStandardizeErrors(t *testing.T) {
	_, err := Standardize(nil)
	assert.Error(t, err)

	_, err = Standardize([][]float64{{1, 2}, {3}})
	assert.Error(t, err)
}

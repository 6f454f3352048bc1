package cluster

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// randomPoints returns n reproducible points of the given dimension.
func randomPoints(seed uint64, n, dim int) [][]float64 {
	rng := rand.New(rand.NewPCG(seed, seed))
	points := make([][]float64, n)
	for i := range points {
		points[i] = make([]float64, dim)
		for j := range points[i] {
			points[i][j] = rng.NormFloat64()
		}
	}
	return points
}

func TestIterativeNeighbors_TwoSeparatedGroups(t *testing.T) {
	// Groups interleaved by index: even rows near the origin, odd rows far away.
	points := [][]float64{
		{0, 0},
		{10, 10},
		{0.1, 0},
		{10.1, 10},
		{0, 0.1},
		{10, 10.1},
	}

	a, err := NewIterativeNeighbors(3, 2).Fit(points)
	require.NoError(t, err)

	want := []int{0, 1, 0, 1, 0, 1}
	if diff := cmp.Diff(want, a.Labels); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 2, a.Clusters)
	assert.Empty(t, a.Fallback, "no fallback assignment should be needed")
}

func TestIterativeNeighbors_ChainLongerThanData(t *testing.T) {
	points := randomPoints(1, 5, 3)

	a, err := NewIterativeNeighbors(10, 1).Fit(points)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 0, 0, 0, 0}, a.Labels)
	assert.Equal(t, 1, a.Clusters)
	assert.Empty(t, a.Fallback)
}

func TestIterativeNeighbors_SingleClusterCapPushesRemainder(t *testing.T) {
	points := randomPoints(2, 9, 2)

	a, err := NewIterativeNeighbors(3, 1).Fit(points)
	require.NoError(t, err)

	for i, l := range a.Labels {
		assert.Equalf(t, 0, l, "point %d", i)
	}
	assert.Len(t, a.Fallback, 6)
}

func TestIterativeNeighbors_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		k, max int
		points [][]float64
	}{
		{name: "empty dataset", k: 5, max: 3, points: nil},
		{name: "zero k", k: 0, max: 3, points: randomPoints(3, 4, 2)},
		{name: "negative k", k: -2, max: 3, points: randomPoints(3, 4, 2)},
		{name: "zero max clusters", k: 5, max: 0, points: randomPoints(3, 4, 2)},
		{name: "ragged rows", k: 2, max: 2, points: [][]float64{{1, 2}, {3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			labels, err := NewIterativeNeighbors(tt.k, tt.max).Labels(tt.points)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if labels != nil {
				t.Errorf("expected no labels on error, got %v", labels)
			}
		})
	}
}

func TestIterativeNeighbors_TieGoesToLowestIndex(t *testing.T) {
	// Points 1 and 2 are both at distance 1 from the seed.
	points := [][]float64{{0}, {-1}, {1}}

	labels, err := NewIterativeNeighbors(2, 2).Labels(points)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 0, 1}, labels)
}

func TestIterativeNeighbors_UsesMeanDistanceToChain(t *testing.T) {
	// From seed 0 the nearest point is 1. With chain {0, 1}, point 2 is
	// closest to a single member (1.4 from point 1) but point 3 has the
	// smaller mean distance to the whole chain (2.147 vs 2.4), so 3 joins.
	points := [][]float64{{0, 0}, {2, 0}, {3.4, 0}, {1, 1.9}}

	a, err := NewIterativeNeighbors(3, 2).Fit(points)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 0, 1, 0}, a.Labels)
}

func TestIterativeNeighbors_Deterministic(t *testing.T) {
	points := randomPoints(4, 40, 6)
	c := NewIterativeNeighbors(5, 3)

	first, err := c.Labels(points)
	require.NoError(t, err)
	second, err := c.Labels(points)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated runs differ (-first +second):\n%s", diff)
	}
}

func TestIterativeNeighbors_Properties(t *testing.T) {
	for seed := uint64(10); seed < 30; seed++ {
		n := 5 + int(seed%17)
		k := 1 + int(seed%6)
		m := 1 + int(seed%4)
		points := randomPoints(seed, n, 4)

		a, err := NewIterativeNeighbors(k, m).Fit(points)
		require.NoError(t, err)

		require.Len(t, a.Labels, n)
		assert.LessOrEqual(t, a.Clusters, m, "seed %d: cluster cap exceeded", seed)

		used := make(map[int]bool)
		for i, l := range a.Labels {
			require.GreaterOrEqualf(t, l, 0, "seed %d: point %d unassigned", seed, i)
			require.Lessf(t, l, a.Clusters, "seed %d: point %d label out of range", seed, i)
			used[l] = true
		}
		assert.Len(t, used, a.Clusters, "seed %d: every formed cluster keeps its chain", seed)

		checkFallbackOptimal(t, points, a)
	}
}

// checkFallbackOptimal replays the fallback phase: each fallback point must
// have the smallest mean distance to its assigned cluster, measured against
// the membership in place when it was assigned.
func checkFallbackOptimal(t *testing.T, points [][]float64, a *Assignment) {
	t.Helper()

	dist, err := NewDistanceMatrix(points)
	require.NoError(t, err)

	isFallback := make(map[int]bool, len(a.Fallback))
	for _, i := range a.Fallback {
		isFallback[i] = true
	}
	members := make([][]int, a.Clusters)
	for i, l := range a.Labels {
		if !isFallback[i] {
			members[l] = append(members[l], i)
		}
	}

	for _, i := range a.Fallback {
		assigned := a.Labels[i]
		own := dist.MeanTo(i, members[assigned])
		for label := range members {
			if other := dist.MeanTo(i, members[label]); other < own {
				t.Errorf("point %d assigned to %d (mean %.4f) but cluster %d is closer (%.4f)",
					i, assigned, own, label, other)
			}
		}
		members[assigned] = append(members[assigned], i)
	}
}

func TestIterativeNeighbors_NoStateBetweenCalls(t *testing.T) {
	c := NewIterativeNeighbors(2, 2)

	small := [][]float64{{0}, {1}, {5}}
	big := randomPoints(5, 12, 2)

	want, err := c.Labels(small)
	require.NoError(t, err)
	_, err = c.Labels(big)
	require.NoError(t, err)
	got, err := c.Labels(small)
	require.NoError(t, err)

	assert.Equal(t, want, got)
}

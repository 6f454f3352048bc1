package cluster

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/drivestyle/internal/config"
)

func TestAgglomerative_Linkages(t *testing.T) {
	// Three tight groups on a line.
	points := [][]float64{{0}, {0.2}, {10}, {10.3}, {20}, {20.1}, {0.1}}
	want := []int{0, 0, 1, 1, 2, 2, 0}

	for _, linkage := range []string{
		config.LinkageWard,
		config.LinkageComplete,
		config.LinkageAverage,
		config.LinkageSingle,
	} {
		t.Run(linkage, func(t *testing.T) {
			labels, err := NewAgglomerative(3, linkage).Labels(points)
			require.NoError(t, err)
			assert.Equal(t, want, labels)
		})
	}
}

func TestAgglomerative_SingleVersusComplete(t *testing.T) {
	// Evenly spaced points plus one far point. Single linkage keeps chaining
	// onto the first group; complete linkage caps the group diameter.
	points := [][]float64{{0}, {1}, {2}, {3}, {4}, {5}, {12}}

	single, err := NewAgglomerative(3, config.LinkageSingle).Labels(points)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 0, 0, 0, 1, 2}, single)

	complete, err := NewAgglomerative(3, config.LinkageComplete).Labels(points)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 0, 0, 1, 1, 2}, complete)
}

func TestAgglomerative_KAtLeastN(t *testing.T) {
	labels, err := NewAgglomerative(4, config.LinkageWard).Labels([][]float64{{0}, {1}, {2}})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, labels)
}

func TestAgglomerative_Invalid(t *testing.T) {
	_, err := NewAgglomerative(2, "centroid").Labels([][]float64{{0}, {1}})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = NewAgglomerative(0, config.LinkageWard).Labels([][]float64{{0}})
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

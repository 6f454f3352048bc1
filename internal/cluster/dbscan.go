package cluster

import (
	"fmt"

	"github.com/banshee-data/drivestyle/internal/config"
)

// DBSCAN is density-based clustering over the feature space. A point with at
// least MinSamples neighbours within Eps (itself included) is a core point;
// clusters grow from core points through their neighbourhoods.
//
// Noise points are not left unlabelled: they are gathered into one extra
// cluster numbered after the density clusters, so every point has a label
// and the recluster stage can split them like any other group.
type DBSCAN struct {
	Eps        float64
	MinSamples int
}

// NewDBSCAN creates a DBSCAN clusterer.
func NewDBSCAN(eps float64, minSamples int) *DBSCAN {
	return &DBSCAN{Eps: eps, MinSamples: minSamples}
}

// Name implements Clusterer.
func (c *DBSCAN) Name() string { return config.MethodDBSCAN }

// Labels implements Clusterer. Density clusters are numbered in discovery
// order (lowest-index core point first).
func (c *DBSCAN) Labels(points [][]float64) ([]int, error) {
	if c.Eps <= 0 {
		return nil, fmt.Errorf("%w: eps must be positive, got %f", ErrInvalidInput, c.Eps)
	}
	if c.MinSamples <= 0 {
		return nil, fmt.Errorf("%w: min_samples must be positive, got %d", ErrInvalidInput, c.MinSamples)
	}
	dist, err := NewDistanceMatrix(points)
	if err != nil {
		return nil, err
	}

	n := dist.Len()
	labels := make([]int, n) // 0=unvisited, -1=noise, >0=clusterID
	clusterID := 0

	for i := 0; i < n; i++ {
		if labels[i] != 0 {
			continue
		}

		neighbors := c.regionQuery(dist, i)
		if len(neighbors) < c.MinSamples {
			labels[i] = -1
			continue
		}

		clusterID++
		c.expandCluster(dist, labels, i, neighbors, clusterID)
	}

	out := make([]int, n)
	for i, l := range labels {
		if l == -1 {
			out[i] = clusterID // trailing noise cluster
		} else {
			out[i] = l - 1
		}
	}
	return out, nil
}

// regionQuery returns the indices within Eps of point idx, idx included.
func (c *DBSCAN) regionQuery(dist *DistanceMatrix, idx int) []int {
	var neighbors []int
	for j := 0; j < dist.Len(); j++ {
		if dist.At(idx, j) <= c.Eps {
			neighbors = append(neighbors, j)
		}
	}
	return neighbors
}

// expandCluster grows a cluster from a core point using a work queue.
func (c *DBSCAN) expandCluster(dist *DistanceMatrix, labels []int, seedIdx int, neighbors []int, clusterID int) {
	labels[seedIdx] = clusterID

	for j := 0; j < len(neighbors); j++ {
		idx := neighbors[j]

		if labels[idx] == -1 {
			labels[idx] = clusterID // noise becomes border point
		}
		if labels[idx] != 0 {
			continue
		}

		labels[idx] = clusterID
		if more := c.regionQuery(dist, idx); len(more) >= c.MinSamples {
			neighbors = append(neighbors, more...)
		}
	}
}

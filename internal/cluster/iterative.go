package cluster

import (
	"fmt"

	"github.com/banshee-data/drivestyle/internal/config"
)

const unassigned = -1

// IterativeNeighbors greedily grows clusters by nearest-neighbour chaining.
//
// Starting from the lowest-index unvisited point, a chain repeatedly absorbs
// the unvisited point with the smallest mean distance to every current chain
// member, until the chain holds K points or no candidates remain. At most
// MaxClusters chains are formed; points left over once the cap is reached
// join the formed cluster they are closest to on average.
type IterativeNeighbors struct {
	K           int // chain length
	MaxClusters int // cap on greedy clusters
}

// NewIterativeNeighbors creates an IterativeNeighbors clusterer.
func NewIterativeNeighbors(k, maxClusters int) *IterativeNeighbors {
	return &IterativeNeighbors{K: k, MaxClusters: maxClusters}
}

// Assignment is the full outcome of one IterativeNeighbors run.
type Assignment struct {
	Labels   []int // one label per point, all in [0, Clusters)
	Clusters int   // number of chains formed in the greedy phase
	Fallback []int // ascending indices labelled by nearest-cluster fallback
}

// Name implements Clusterer.
func (c *IterativeNeighbors) Name() string { return config.MethodIterative }

// Labels implements Clusterer.
func (c *IterativeNeighbors) Labels(points [][]float64) ([]int, error) {
	a, err := c.Fit(points)
	if err != nil {
		return nil, err
	}
	return a.Labels, nil
}

// Fit computes the distance matrix for points and runs the algorithm.
func (c *IterativeNeighbors) Fit(points [][]float64) (*Assignment, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	dist, err := NewDistanceMatrix(points)
	if err != nil {
		return nil, err
	}
	return c.FitDistances(dist)
}

// FitDistances runs the algorithm over a precomputed distance matrix.
func (c *IterativeNeighbors) FitDistances(dist *DistanceMatrix) (*Assignment, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	if dist == nil || dist.Len() == 0 {
		return nil, fmt.Errorf("%w: empty dataset", ErrInvalidInput)
	}

	n := dist.Len()
	labels := make([]int, n)
	for i := range labels {
		labels[i] = unassigned
	}
	visited := make([]bool, n)

	current := 0
	seed := 0
	for current < c.MaxClusters {
		for seed < n && visited[seed] {
			seed++
		}
		if seed == n {
			break
		}
		for _, idx := range c.growChain(dist, seed, visited) {
			labels[idx] = current
		}
		current++
	}

	fallback := assignLeftovers(dist, labels, current)
	return &Assignment{Labels: labels, Clusters: current, Fallback: fallback}, nil
}

func (c *IterativeNeighbors) validate() error {
	if c.K <= 0 {
		return fmt.Errorf("%w: k must be positive, got %d", ErrInvalidInput, c.K)
	}
	if c.MaxClusters <= 0 {
		return fmt.Errorf("%w: max_clusters must be positive, got %d", ErrInvalidInput, c.MaxClusters)
	}
	return nil
}

// growChain builds one chain from seed, marking members visited as they join.
// sums[i] carries the total distance from candidate i to the chain so each
// growth step is a single O(n) scan. Candidates are scanned in index order
// and only a strictly smaller mean replaces the best, so ties go to the
// lowest index.
func (c *IterativeNeighbors) growChain(dist *DistanceMatrix, seed int, visited []bool) []int {
	n := dist.Len()
	chain := make([]int, 0, min(c.K, n))
	chain = append(chain, seed)
	visited[seed] = true

	sums := make([]float64, n)
	for i := 0; i < n; i++ {
		if !visited[i] {
			sums[i] = dist.At(i, seed)
		}
	}

	for len(chain) < c.K {
		size := float64(len(chain))
		best := unassigned
		var bestMean float64
		for i := 0; i < n; i++ {
			if visited[i] {
				continue
			}
			if mean := sums[i] / size; best == unassigned || mean < bestMean {
				best, bestMean = i, mean
			}
		}
		if best == unassigned {
			break
		}

		chain = append(chain, best)
		visited[best] = true
		for i := 0; i < n; i++ {
			if !visited[i] {
				sums[i] += dist.At(i, best)
			}
		}
	}
	return chain
}

// assignLeftovers labels every still-unassigned point with the formed cluster
// of smallest mean distance, ties to the lowest label. Points are handled in
// index order and each assignment joins its cluster immediately, so later
// leftovers measure against the grown membership.
//
// This rescans cluster membership per leftover point:
// O(n · clusters · cluster size). Acceptable at the scale of a trip history;
// it is the known ceiling of the algorithm.
func assignLeftovers(dist *DistanceMatrix, labels []int, clusters int) []int {
	members := make([][]int, clusters)
	for i, l := range labels {
		if l != unassigned {
			members[l] = append(members[l], i)
		}
	}

	var fallback []int
	for i, l := range labels {
		if l != unassigned {
			continue
		}
		best := 0
		bestMean := dist.MeanTo(i, members[0])
		for label := 1; label < clusters; label++ {
			if mean := dist.MeanTo(i, members[label]); mean < bestMean {
				best, bestMean = label, mean
			}
		}
		labels[i] = best
		members[best] = append(members[best], i)
		fallback = append(fallback, i)
	}
	return fallback
}

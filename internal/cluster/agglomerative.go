package cluster

import (
	"fmt"
	"math"

	"github.com/banshee-data/drivestyle/internal/config"
)

// Agglomerative is bottom-up hierarchical clustering. Starting from
// singletons it merges the closest pair of clusters until K remain, updating
// inter-cluster distances with the Lance-Williams formula for Linkage.
//
// The naive merge loop is O(n³); intended for per-cluster splits and trip
// histories of a few thousand windows at most.
type Agglomerative struct {
	K       int
	Linkage string
}

// NewAgglomerative creates an Agglomerative clusterer.
func NewAgglomerative(k int, linkage string) *Agglomerative {
	return &Agglomerative{K: k, Linkage: linkage}
}

// Name implements Clusterer.
func (a *Agglomerative) Name() string { return config.MethodAgglomerative }

// Labels implements Clusterer. When several pairs share the minimum distance
// the pair with the lowest (i, j) merges first. Labels are renumbered by
// first appearance.
func (a *Agglomerative) Labels(points [][]float64) ([]int, error) {
	if a.K <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", ErrInvalidInput, a.K)
	}
	update, err := linkageUpdate(a.Linkage)
	if err != nil {
		return nil, err
	}
	dm, err := NewDistanceMatrix(points)
	if err != nil {
		return nil, err
	}

	n := dm.Len()
	d := make([][]float64, n)
	for i := range d {
		d[i] = make([]float64, n)
		for j := range d[i] {
			d[i][j] = dm.At(i, j)
		}
	}

	// owner[p] is the representative of the cluster containing p; a
	// representative is active until merged into a lower one.
	owner := make([]int, n)
	size := make([]int, n)
	active := make([]bool, n)
	for i := range owner {
		owner[i] = i
		size[i] = 1
		active[i] = true
	}

	for remaining := n; remaining > a.K; remaining-- {
		bi, bj := -1, -1
		best := math.Inf(1)
		for i := 0; i < n; i++ {
			if !active[i] {
				continue
			}
			for j := i + 1; j < n; j++ {
				if active[j] && d[i][j] < best {
					bi, bj, best = i, j, d[i][j]
				}
			}
		}

		for k := 0; k < n; k++ {
			if !active[k] || k == bi || k == bj {
				continue
			}
			v := update(d[bi][k], d[bj][k], d[bi][bj], size[bi], size[bj], size[k])
			d[bi][k], d[k][bi] = v, v
		}
		size[bi] += size[bj]
		active[bj] = false
		for p := range owner {
			if owner[p] == bj {
				owner[p] = bi
			}
		}
	}

	return renumber(owner), nil
}

// lanceWilliams computes the distance from a merged cluster (i ∪ j) to k.
type lanceWilliams func(dik, djk, dij float64, ni, nj, nk int) float64

func linkageUpdate(linkage string) (lanceWilliams, error) {
	switch linkage {
	case config.LinkageSingle:
		return func(dik, djk, _ float64, _, _, _ int) float64 {
			return math.Min(dik, djk)
		}, nil
	case config.LinkageComplete:
		return func(dik, djk, _ float64, _, _, _ int) float64 {
			return math.Max(dik, djk)
		}, nil
	case config.LinkageAverage:
		return func(dik, djk, _ float64, ni, nj, _ int) float64 {
			return (float64(ni)*dik + float64(nj)*djk) / float64(ni+nj)
		}, nil
	case config.LinkageWard, "":
		return func(dik, djk, dij float64, ni, nj, nk int) float64 {
			fi, fj, fk := float64(ni), float64(nj), float64(nk)
			v := ((fi+fk)*dik*dik + (fj+fk)*djk*djk - fk*dij*dij) / (fi + fj + fk)
			return math.Sqrt(math.Max(v, 0))
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown linkage %q", ErrInvalidInput, linkage)
	}
}

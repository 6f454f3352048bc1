package cluster

import (
	"fmt"

	"github.com/banshee-data/drivestyle/internal/config"
)

// Clusterer abstracts the clustering implementation so the pipeline can swap
// algorithms without change.
type Clusterer interface {
	// Labels assigns a non-negative cluster label to every point, aligned by
	// row index. Points must be standardized feature vectors of equal length.
	Labels(points [][]float64) ([]int, error)

	// Name identifies the algorithm in logs, metrics and stored runs.
	Name() string
}

// New builds the initial clusterer named by method from cfg.
func New(method string, cfg *config.TuningConfig) (Clusterer, error) {
	switch method {
	case config.MethodIterative:
		return NewIterativeNeighbors(cfg.GetK(), cfg.GetMaxClusters()), nil
	case config.MethodKMeans:
		return NewKMeans(cfg.GetNClusters(), cfg), nil
	case config.MethodAgglomerative:
		return NewAgglomerative(cfg.GetNClusters(), cfg.GetLinkage()), nil
	case config.MethodDBSCAN:
		return NewDBSCAN(cfg.GetDBSCANEps(), cfg.GetDBSCANMinSamples()), nil
	default:
		return nil, fmt.Errorf("%w: unknown clustering method %q", ErrInvalidInput, method)
	}
}

// NewSplitter builds the two-group clusterer used by the recluster stage.
func NewSplitter(method string, cfg *config.TuningConfig) (Clusterer, error) {
	switch method {
	case config.MethodKMeans:
		return NewKMeans(2, cfg), nil
	case config.MethodAgglomerative:
		return NewAgglomerative(2, cfg.GetLinkage()), nil
	default:
		return nil, fmt.Errorf("%w: %q cannot be used as a binary splitter", ErrInvalidInput, method)
	}
}

// renumber relabels groups in order of first appearance, so the first point
// always carries label 0 and label values are dense.
func renumber(labels []int) []int {
	mapping := make(map[int]int)
	out := make([]int, len(labels))
	for i, l := range labels {
		id, ok := mapping[l]
		if !ok {
			id = len(mapping)
			mapping[l] = id
		}
		out[i] = id
	}
	return out
}

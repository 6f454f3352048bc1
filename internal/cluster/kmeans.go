package cluster

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/drivestyle/internal/config"
)

// kmeansTol is the squared centroid shift below which Lloyd iterations stop.
const kmeansTol = 1e-8

// KMeans is Lloyd's algorithm with k-means++ seeding. Restarts draw from one
// RNG seeded with Seed, so results are reproducible for a fixed input.
type KMeans struct {
	K       int
	MaxIter int
	NInit   int
	Seed    uint64
}

// NewKMeans creates a KMeans with k clusters and iteration settings from cfg.
func NewKMeans(k int, cfg *config.TuningConfig) *KMeans {
	return &KMeans{
		K:       k,
		MaxIter: cfg.GetKMeansMaxIter(),
		NInit:   cfg.GetKMeansNInit(),
		Seed:    cfg.GetSeed(),
	}
}

// Name implements Clusterer.
func (km *KMeans) Name() string { return config.MethodKMeans }

// Labels implements Clusterer. The run with the lowest inertia wins; earlier
// runs win ties. Labels are renumbered by first appearance. When fewer than K
// distinct points exist, fewer clusters come back.
func (km *KMeans) Labels(points [][]float64) ([]int, error) {
	if km.K <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", ErrInvalidInput, km.K)
	}
	if err := validatePoints(points); err != nil {
		return nil, err
	}

	k := min(km.K, len(points))
	nInit := max(km.NInit, 1)
	maxIter := max(km.MaxIter, 1)
	rng := rand.New(rand.NewPCG(km.Seed, km.Seed))

	var best []int
	bestInertia := math.Inf(1)
	for run := 0; run < nInit; run++ {
		centroids := seedPlusPlus(points, k, rng)
		labels, inertia := lloyd(points, centroids, maxIter)
		if inertia < bestInertia {
			best, bestInertia = labels, inertia
		}
	}
	return renumber(best), nil
}

// seedPlusPlus picks k initial centroids: the first uniformly, each next one
// with probability proportional to its squared distance from the nearest
// centroid already chosen.
func seedPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(points)
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, append([]float64(nil), points[rng.IntN(n)]...))

	d2 := make([]float64, n)
	for i, p := range points {
		d2[i] = sqDist(p, centroids[0])
	}

	for len(centroids) < k {
		total := floats.Sum(d2)
		next := 0
		if total > 0 {
			target := rng.Float64() * total
			var acc float64
			for i, w := range d2 {
				if w == 0 {
					continue
				}
				// rounding can leave acc just short of total; the last
				// positive-weight point is the fallback
				next = i
				acc += w
				if acc >= target {
					break
				}
			}
		}
		c := append([]float64(nil), points[next]...)
		centroids = append(centroids, c)
		for i, p := range points {
			if d := sqDist(p, c); d < d2[i] {
				d2[i] = d
			}
		}
	}
	return centroids
}

// lloyd refines centroids in place and returns the final assignment and its
// inertia (sum of squared distances to the assigned centroid). A centroid
// that loses all members keeps its previous position.
func lloyd(points, centroids [][]float64, maxIter int) ([]int, float64) {
	dim := len(points[0])
	labels := make([]int, len(points))
	counts := make([]int, len(centroids))
	sums := make([][]float64, len(centroids))
	for c := range sums {
		sums[c] = make([]float64, dim)
	}

	for iter := 0; iter < maxIter; iter++ {
		for i, p := range points {
			labels[i], _ = nearestCentroid(p, centroids)
		}

		for c := range sums {
			counts[c] = 0
			for j := range sums[c] {
				sums[c][j] = 0
			}
		}
		for i, p := range points {
			counts[labels[i]]++
			floats.Add(sums[labels[i]], p)
		}

		var shift float64
		for c := range centroids {
			if counts[c] == 0 {
				continue
			}
			floats.Scale(1/float64(counts[c]), sums[c])
			shift += sqDist(sums[c], centroids[c])
			copy(centroids[c], sums[c])
		}
		if shift <= kmeansTol {
			break
		}
	}

	var inertia float64
	for i, p := range points {
		var d float64
		labels[i], d = nearestCentroid(p, centroids)
		inertia += d
	}
	return labels, inertia
}

// nearestCentroid returns the index of the closest centroid and the squared
// distance to it. Ties go to the lower index.
func nearestCentroid(p []float64, centroids [][]float64) (int, float64) {
	best := 0
	bestDist := sqDist(p, centroids[0])
	for c := 1; c < len(centroids); c++ {
		if d := sqDist(p, centroids[c]); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, bestDist
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

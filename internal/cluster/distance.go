package cluster

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DistanceMatrix holds the pairwise Euclidean distances between feature
// vectors. It is built once per clustering call and is read-only afterwards.
type DistanceMatrix struct {
	sym *mat.SymDense
}

// NewDistanceMatrix computes D[i][j] = ||points[i] - points[j]|| for every
// pair. Cost is O(n²) in time and space.
func NewDistanceMatrix(points [][]float64) (*DistanceMatrix, error) {
	if err := validatePoints(points); err != nil {
		return nil, err
	}

	n := len(points)
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sym.SetSym(i, j, floats.Distance(points[i], points[j], 2))
		}
	}
	return &DistanceMatrix{sym: sym}, nil
}

// Len returns the number of points.
func (d *DistanceMatrix) Len() int {
	return d.sym.SymmetricDim()
}

// At returns the distance between points i and j.
func (d *DistanceMatrix) At(i, j int) float64 {
	return d.sym.At(i, j)
}

// MeanTo returns the mean distance from point i to every index in members.
// It returns +Inf for an empty member list so that an empty group never wins
// a minimum.
func (d *DistanceMatrix) MeanTo(i int, members []int) float64 {
	if len(members) == 0 {
		return math.Inf(1)
	}
	var sum float64
	for _, j := range members {
		sum += d.sym.At(i, j)
	}
	return sum / float64(len(members))
}

// validatePoints rejects empty input, zero-width rows, rows of differing
// dimension and non-finite values.
func validatePoints(points [][]float64) error {
	if len(points) == 0 {
		return fmt.Errorf("%w: empty dataset", ErrInvalidInput)
	}
	dim := len(points[0])
	if dim == 0 {
		return fmt.Errorf("%w: feature vectors have no dimensions", ErrInvalidInput)
	}
	for i, p := range points {
		if len(p) != dim {
			return fmt.Errorf("%w: row %d has %d features, want %d", ErrInvalidInput, i, len(p), dim)
		}
		for j, v := range p {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: row %d feature %d is not finite", ErrInvalidInput, i, j)
			}
		}
	}
	return nil
}

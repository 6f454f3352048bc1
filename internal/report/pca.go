// Package report renders pipeline results as charts: an interactive HTML
// scatter of the PCA projection and a PNG bar chart of cluster sizes.
package report

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Project returns the coordinates of every point on the first two principal
// components. With fewer than two points, or one feature, the missing
// coordinates are zero.
func Project(points [][]float64) ([][2]float64, error) {
	n := len(points)
	out := make([][2]float64, n)
	if n < 2 {
		return out, nil
	}
	d := len(points[0])

	data := mat.NewDense(n, d, nil)
	for i, p := range points {
		if len(p) != d {
			return nil, fmt.Errorf("project: row %d has %d columns, want %d", i, len(p), d)
		}
		data.SetRow(i, p)
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(data, nil); !ok {
		return nil, fmt.Errorf("project: principal component analysis failed")
	}
	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	_, cols := vecs.Dims()
	k := min(2, cols)

	centered := mat.NewDense(n, d, nil)
	col := make([]float64, n)
	for j := 0; j < d; j++ {
		mat.Col(col, j, data)
		mean := stat.Mean(col, nil)
		for i := range col {
			centered.Set(i, j, col[i]-mean)
		}
	}

	var proj mat.Dense
	proj.Mul(centered, vecs.Slice(0, d, 0, k))
	for i := range out {
		for c := 0; c < k; c++ {
			out[i][c] = proj.At(i, c)
		}
	}
	return out, nil
}

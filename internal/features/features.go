// Package features defines the per-window feature table consumed by the
// clustering pipeline.
package features

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Dimensions is the length of a Window feature vector.
const Dimensions = 6

// Window is the feature summary of one fixed-duration telemetry window.
// Speeds are km/h, accelerations m/s².
type Window struct {
	Source         string  `json:"source"`
	Segment        int     `json:"segment"`
	MeanSpeed      float64 `json:"mean_speed_kmh"`
	MaxSpeed       float64 `json:"max_speed_kmh"`
	StdAccelX      float64 `json:"std_accel_x"`
	StdAccelY      float64 `json:"std_accel_y"`
	StopTimePct    float64 `json:"stop_time_pct"`
	SpeedVariation float64 `json:"speed_variation"`
}

// Vector returns the numeric features in column order.
func (w Window) Vector() []float64 {
	return []float64{
		w.MeanSpeed,
		w.MaxSpeed,
		w.StdAccelX,
		w.StdAccelY,
		w.StopTimePct,
		w.SpeedVariation,
	}
}

// Table is an ordered set of windows; the row index is the window identity
// for the duration of a clustering run.
type Table []Window

// Matrix returns one feature vector per row.
func (t Table) Matrix() [][]float64 {
	rows := make([][]float64, len(t))
	for i, w := range t {
		rows[i] = w.Vector()
	}
	return rows
}

// IndexOf returns the index of the first row with the same source and
// feature values as w, or -1. Segment numbers are not compared.
func (t Table) IndexOf(w Window) int {
	for i := range t {
		row := t[i]
		row.Segment = w.Segment
		if row == w {
			return i
		}
	}
	return -1
}

// Standardize rescales every column to zero mean and unit population
// standard deviation. A constant column is centred but left unscaled.
// The input is not modified.
func Standardize(rows [][]float64) ([][]float64, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("standardize: no rows")
	}
	dim := len(rows[0])
	for i, r := range rows {
		if len(r) != dim {
			return nil, fmt.Errorf("standardize: row %d has %d columns, want %d", i, len(r), dim)
		}
	}

	out := make([][]float64, len(rows))
	for i := range out {
		out[i] = make([]float64, dim)
	}

	col := make([]float64, len(rows))
	for j := 0; j < dim; j++ {
		for i, r := range rows {
			col[i] = r[j]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 {
			std = 1
		}
		for i, r := range rows {
			out[i][j] = (r[j] - mean) / std
		}
	}
	return out, nil
}

package cluster

import (
	"errors"
	"math"
	"testing"
)

func TestNewDistanceMatrix(t *testing.T) {
	points := [][]float64{{0, 0}, {3, 4}, {6, 8}}

	dm, err := NewDistanceMatrix(points)
	if err != nil {
		t.Fatalf("NewDistanceMatrix: %v", err)
	}
	if dm.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", dm.Len())
	}

	tests := []struct {
		i, j int
		want float64
	}{
		{0, 0, 0},
		{0, 1, 5},
		{1, 0, 5},
		{0, 2, 10},
		{1, 2, 5},
	}
	for _, tt := range tests {
		if got := dm.At(tt.i, tt.j); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("At(%d, %d) = %v, want %v", tt.i, tt.j, got, tt.want)
		}
	}
}

func TestDistanceMatrix_MeanTo(t *testing.T) {
	dm, err := NewDistanceMatrix([][]float64{{0}, {1}, {3}})
	if err != nil {
		t.Fatalf("NewDistanceMatrix: %v", err)
	}

	if got := dm.MeanTo(0, []int{1, 2}); got != 2 {
		t.Errorf("MeanTo(0, {1,2}) = %v, want 2", got)
	}
	if got := dm.MeanTo(0, nil); !math.IsInf(got, 1) {
		t.Errorf("MeanTo with no members = %v, want +Inf", got)
	}
}

func TestNewDistanceMatrix_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		points [][]float64
	}{
		{"nil", nil},
		{"zero width", [][]float64{{}, {}}},
		{"ragged", [][]float64{{1, 2}, {1, 2, 3}}},
		{"nan", [][]float64{{1, math.NaN()}}},
		{"inf", [][]float64{{math.Inf(-1)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewDistanceMatrix(tt.points); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

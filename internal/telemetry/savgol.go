package telemetry

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// SavGol smooths x with a Savitzky-Golay filter: a least-squares polynomial
// of order polyorder fitted over a sliding window of odd length window.
// The first and last window/2 samples are taken from the polynomial fitted to
// the first and last full window (scipy's "interp" mode).
//
// A series shorter than window is smoothed with the largest odd window that
// fits; when that window cannot hold the polynomial the series is returned
// unchanged. The input is never modified.
func SavGol(x []float64, window, polyorder int) ([]float64, error) {
	if window <= 0 || window%2 == 0 {
		return nil, fmt.Errorf("savgol: window must be a positive odd number, got %d", window)
	}
	if polyorder < 0 || polyorder >= window {
		return nil, fmt.Errorf("savgol: polyorder must be in [0, %d), got %d", window, polyorder)
	}

	n := len(x)
	out := make([]float64, n)
	if window > n {
		window = n
		if window%2 == 0 {
			window--
		}
	}
	if window <= polyorder {
		copy(out, x)
		return out, nil
	}

	h, err := hatMatrix(window, polyorder)
	if err != nil {
		return nil, err
	}
	half := window / 2

	for i := 0; i < n; i++ {
		// start of the fitting window and the row of h evaluating sample i
		start, row := i-half, half
		switch {
		case start < 0:
			start, row = 0, i
		case start+window > n:
			start, row = n-window, i-(n-window)
		}
		var v float64
		for j := 0; j < window; j++ {
			v += h.At(row, j) * x[start+j]
		}
		out[i] = v
	}
	return out, nil
}

// hatMatrix returns H = A(AᵀA)⁻¹Aᵀ for the Vandermonde matrix A of the window
// positions. Row r of H maps window samples to the fitted value at position r.
func hatMatrix(window, polyorder int) (*mat.Dense, error) {
	half := window / 2
	scale := float64(max(half, 1))

	a := mat.NewDense(window, polyorder+1, nil)
	for r := 0; r < window; r++ {
		t := float64(r-half) / scale
		p := 1.0
		for c := 0; c <= polyorder; c++ {
			a.Set(r, c, p)
			p *= t
		}
	}

	var ata mat.SymDense
	ata.SymOuterK(1, a.T())
	var chol mat.Cholesky
	if ok := chol.Factorize(&ata); !ok {
		return nil, fmt.Errorf("savgol: normal equations not positive definite (window %d, polyorder %d)", window, polyorder)
	}

	var coef mat.Dense
	if err := chol.SolveTo(&coef, a.T()); err != nil {
		return nil, fmt.Errorf("savgol: solve normal equations: %w", err)
	}
	var hat mat.Dense
	hat.Mul(a, &coef)
	return &hat, nil
}

// Package testutil provides shared test utilities and fixtures.
package testutil

import (
	"fmt"
	"math/rand/v2"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/banshee-data/drivestyle/internal/features"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// NewTestRecorder creates a test response recorder.
func NewTestRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}

// Profile is the centre of one synthetic driving style.
type Profile struct {
	Name           string
	MeanSpeed      float64
	MaxSpeed       float64
	StdAccel       float64
	StopTimePct    float64
	SpeedVariation float64
}

// Profiles are six well separated styles: three road types, each driven
// calmly and aggressively.
var Profiles = []Profile{
	{"highway-calm", 115, 125, 0.3, 0, 1.5},
	{"highway-aggressive", 125, 150, 0.9, 0, 6},
	{"periurban-calm", 65, 80, 0.5, 5, 2},
	{"periurban-aggressive", 70, 95, 1.3, 5, 8},
	{"urban-calm", 25, 45, 0.6, 30, 2.5},
	{"urban-aggressive", 30, 60, 1.6, 25, 9},
}

// SyntheticWindows returns perProfile windows around each Profile, with small
// reproducible jitter. Rows are interleaved by profile so that no clustering
// result depends on input order matching the groups.
func SyntheticWindows(perProfile int) features.Table {
	rng := rand.New(rand.NewPCG(7, 11))
	jitter := func(scale float64) float64 { return (rng.Float64() - 0.5) * scale }

	table := make(features.Table, 0, perProfile*len(Profiles))
	for i := 0; i < perProfile; i++ {
		for _, p := range Profiles {
			table = append(table, features.Window{
				Source:         p.Name + ".csv",
				Segment:        i,
				MeanSpeed:      p.MeanSpeed + jitter(4),
				MaxSpeed:       p.MaxSpeed + jitter(4),
				StdAccelX:      p.StdAccel + jitter(0.1),
				StdAccelY:      p.StdAccel + jitter(0.1),
				StopTimePct:    max(p.StopTimePct+jitter(2), 0),
				SpeedVariation: p.SpeedVariation + jitter(1),
			})
		}
	}
	return table
}

// TripCSV renders n 1 Hz samples at a constant speed (m/s) in the phone
// collector format, with the ", " separators that collector writes.
func TripCSV(n int, speedMPS float64) string {
	var b strings.Builder
	b.WriteString("Location-lat, Location-long, Speed, Accelerometer-X, Accelerometer-Y, Accelerometer-Z\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%.5f, %.5f, %g, %g, %g, 9.81\n",
			48.85+float64(i)*1e-5, 2.35, speedMPS, 0.1*float64(i%3), -0.05*float64(i%2))
	}
	return b.String()
}

package telemetry

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/drivestyle/internal/config"
	"github.com/banshee-data/drivestyle/internal/monitoring"
)

func init() {
	monitoring.SetLogger(nil)
}

func constantTrip(n int, speedMPS float64) []Sample {
	samples := make([]Sample, n)
	for i := range samples {
		samples[i] = Sample{Speed: speedMPS, AccelX: 0.2, AccelY: -0.1, AccelZ: 9.81}
	}
	return samples
}

func TestExtractor_ConstantSpeed(t *testing.T) {
	e := NewExtractor(config.EmptyTuningConfig())

	windows, err := e.Windows("trip.csv", constantTrip(400, 10))
	require.NoError(t, err)
	require.Len(t, windows, 2, "trailing 40 samples are dropped")

	for i, w := range windows {
		assert.Equal(t, "trip.csv", w.Source)
		assert.Equal(t, i, w.Segment)
		assert.InDelta(t, 36.0, w.MeanSpeed, 1e-9)
		assert.InDelta(t, 36.0, w.MaxSpeed, 1e-9)
		assert.InDelta(t, 0, w.StdAccelX, 1e-9)
		assert.InDelta(t, 0, w.StdAccelY, 1e-9)
		assert.Equal(t, 0.0, w.StopTimePct)
		assert.InDelta(t, 0, w.SpeedVariation, 1e-9)
	}
}

func TestExtractor_LinearRamp(t *testing.T) {
	samples := make([]Sample, 180)
	for i := range samples {
		samples[i] = Sample{Speed: 1 + 0.1*float64(i)}
	}
	e := NewExtractor(config.EmptyTuningConfig())

	windows, err := e.Windows("ramp.csv", samples)
	require.NoError(t, err)
	require.Len(t, windows, 1)

	w := windows[0]
	assert.InDelta(t, 35.82, w.MeanSpeed, 1e-9)
	assert.InDelta(t, 68.04, w.MaxSpeed, 1e-9)
	assert.Equal(t, 0.0, w.StopTimePct)
	// 175 lagged differences of 5 * 0.36 km/h, averaged over 180 samples
	assert.InDelta(t, 1.75, w.SpeedVariation, 1e-9)
}

func TestExtractor_StoppedVehicle(t *testing.T) {
	e := NewExtractor(config.EmptyTuningConfig())
	e.StopSpeedKMH = 1

	w, err := e.Summarize("parked.csv", constantTrip(50, 0))
	require.NoError(t, err)
	assert.Equal(t, 100.0, w.StopTimePct)
	assert.InDelta(t, 0, w.MeanSpeed, 1e-9)
}

func TestExtractor_SpeedUnit(t *testing.T) {
	e := NewExtractor(config.EmptyTuningConfig())
	e.SpeedUnit = "kmph"

	w, err := e.Summarize("kmh.csv", constantTrip(30, 50))
	require.NoError(t, err)
	assert.InDelta(t, 50.0, w.MeanSpeed, 1e-9)
}

func TestExtractor_ShortTrip(t *testing.T) {
	e := NewExtractor(config.EmptyTuningConfig())

	windows, err := e.Windows("short.csv", constantTrip(100, 5))
	require.NoError(t, err)
	assert.Empty(t, windows)

	w, err := e.Summarize("short.csv", constantTrip(100, 5))
	require.NoError(t, err)
	assert.InDelta(t, 18.0, w.MeanSpeed, 1e-9)

	_, err = e.Summarize("empty.csv", nil)
	assert.Error(t, err)
}

func TestReadSamples(t *testing.T) {
	input := "Location-lat, Location-long, Speed, Accelerometer-X, Accelerometer-Y, Accelerometer-Z\n" +
		"48.85, 2.35, 12.5, 0.1, -0.2, 9.8\n" +
		"48.86, 2.36, 13.0, 0.3, -0.1, 9.7\n"

	samples, err := ReadSamples(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, Sample{Latitude: 48.85, Longitude: 2.35, Speed: 12.5, AccelX: 0.1, AccelY: -0.2, AccelZ: 9.8}, samples[0])
	assert.Equal(t, 13.0, samples[1].Speed)
}

func TestReadSamples_OptionalColumns(t *testing.T) {
	input := "speed,accelerometer-x,accelerometer-y\n3,0.5,0.25\n"

	samples, err := ReadSamples(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, Sample{Speed: 3, AccelX: 0.5, AccelY: 0.25}, samples[0])
}

func TestReadSamples_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"missing speed", "Accelerometer-X,Accelerometer-Y\n1,2\n"},
		{"bad number", "Speed,Accelerometer-X,Accelerometer-Y\nfast,1,2\n"},
		{"ragged row", "Speed,Accelerometer-X,Accelerometer-Y\n1,2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadSamples(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

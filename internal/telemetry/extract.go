package telemetry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/drivestyle/internal/config"
	"github.com/banshee-data/drivestyle/internal/features"
	"github.com/banshee-data/drivestyle/internal/monitoring"
	"github.com/banshee-data/drivestyle/internal/units"
)

var logf = monitoring.Tagged("telemetry")

// Extractor computes feature windows from raw samples.
type Extractor struct {
	WindowSamples   int
	SmoothingWindow int
	PolyOrder       int
	VariationLag    int
	StopSpeedKMH    float64
	SpeedUnit       string
}

// NewExtractor creates an Extractor from the feature-extraction settings in cfg.
func NewExtractor(cfg *config.TuningConfig) *Extractor {
	return &Extractor{
		WindowSamples:   cfg.GetWindowSamples(),
		SmoothingWindow: cfg.GetSmoothingWindow(),
		PolyOrder:       cfg.GetSmoothingPolyOrder(),
		VariationLag:    cfg.GetSpeedVariationLag(),
		StopSpeedKMH:    cfg.GetStopSpeedKMH(),
		SpeedUnit:       cfg.GetSpeedUnit(),
	}
}

// Windows splits a trip into consecutive full windows of WindowSamples and
// returns one feature row per window. Trailing samples that do not fill a
// window are dropped. Each window is smoothed on its own.
func (e *Extractor) Windows(source string, samples []Sample) ([]features.Window, error) {
	if e.WindowSamples <= 0 {
		return nil, fmt.Errorf("window_samples must be positive, got %d", e.WindowSamples)
	}

	count := len(samples) / e.WindowSamples
	if count == 0 {
		logf("%s: %d samples, shorter than one %d-sample window", source, len(samples), e.WindowSamples)
		return nil, nil
	}
	if dropped := len(samples) % e.WindowSamples; dropped > 0 {
		logf("%s: dropping %d trailing samples", source, dropped)
	}

	windows := make([]features.Window, 0, count)
	for seg := 0; seg < count; seg++ {
		start := seg * e.WindowSamples
		w, err := e.compute(source, seg, samples[start:start+e.WindowSamples])
		if err != nil {
			return nil, fmt.Errorf("%s segment %d: %w", source, seg, err)
		}
		windows = append(windows, w)
	}
	return windows, nil
}

// Summarize computes a single feature row over the whole trip, as used for a
// trip submitted for classification.
func (e *Extractor) Summarize(source string, samples []Sample) (features.Window, error) {
	if len(samples) == 0 {
		return features.Window{}, fmt.Errorf("%s: trip has no samples", source)
	}
	return e.compute(source, 0, samples)
}

func (e *Extractor) compute(source string, segment int, samples []Sample) (features.Window, error) {
	n := len(samples)
	speed := make([]float64, n)
	ax := make([]float64, n)
	ay := make([]float64, n)
	for i, s := range samples {
		speed[i] = units.ToKMPH(s.Speed, e.SpeedUnit)
		ax[i] = s.AccelX
		ay[i] = s.AccelY
	}

	var err error
	for _, series := range []*[]float64{&speed, &ax, &ay} {
		if *series, err = SavGol(*series, e.SmoothingWindow, e.PolyOrder); err != nil {
			return features.Window{}, err
		}
	}

	_, stdX := stat.PopMeanStdDev(ax, nil)
	_, stdY := stat.PopMeanStdDev(ay, nil)

	return features.Window{
		Source:         source,
		Segment:        segment,
		MeanSpeed:      stat.Mean(speed, nil),
		MaxSpeed:       floats.Max(speed),
		StdAccelX:      stdX,
		StdAccelY:      stdY,
		StopTimePct:    stopTimePct(speed, e.StopSpeedKMH),
		SpeedVariation: speedVariation(speed, e.VariationLag),
	}, nil
}

// stopTimePct is the share of samples at or below the stop threshold, in percent.
func stopTimePct(speed []float64, threshold float64) float64 {
	var stopped int
	for _, v := range speed {
		if v <= threshold {
			stopped++
		}
	}
	return float64(stopped) / float64(len(speed)) * 100
}

// speedVariation is the mean absolute lag-difference of speed over all
// samples; the first lag samples have no predecessor and count as zero.
func speedVariation(speed []float64, lag int) float64 {
	var sum float64
	for i := lag; i < len(speed); i++ {
		sum += math.Abs(speed[i] - speed[i-lag])
	}
	return sum / float64(len(speed))
}

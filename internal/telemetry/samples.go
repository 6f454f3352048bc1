// Package telemetry turns raw 1 Hz trip recordings into feature windows.
package telemetry

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Column names written by the phone collector.
const (
	ColLatitude  = "Location-lat"
	ColLongitude = "Location-long"
	ColSpeed     = "Speed"
	ColAccelX    = "Accelerometer-X"
	ColAccelY    = "Accelerometer-Y"
	ColAccelZ    = "Accelerometer-Z"
)

// Sample is one telemetry reading. Speed is in the unit of the recording
// (m/s for the phone collector); accelerations are m/s².
type Sample struct {
	Latitude  float64
	Longitude float64
	Speed     float64
	AccelX    float64
	AccelY    float64
	AccelZ    float64
}

// ReadSamples parses a trip CSV. Columns are matched by header name,
// case-insensitively; speed and the X/Y accelerometer axes are required, the
// location and Z axis are optional.
func ReadSamples(r io.Reader) ([]Sample, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read trip: missing header")
		}
		return nil, fmt.Errorf("read trip header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, col := range []string{ColSpeed, ColAccelX, ColAccelY} {
		if _, ok := index[strings.ToLower(col)]; !ok {
			return nil, fmt.Errorf("read trip: missing column %q", col)
		}
	}

	var samples []Sample
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read trip line %d: %w", line, err)
		}

		var s Sample
		fields := []struct {
			col      string
			dst      *float64
			required bool
		}{
			{ColLatitude, &s.Latitude, false},
			{ColLongitude, &s.Longitude, false},
			{ColSpeed, &s.Speed, true},
			{ColAccelX, &s.AccelX, true},
			{ColAccelY, &s.AccelY, true},
			{ColAccelZ, &s.AccelZ, false},
		}
		for _, f := range fields {
			i, ok := index[strings.ToLower(f.col)]
			if !ok {
				continue
			}
			raw := strings.TrimSpace(record[i])
			if raw == "" && !f.required {
				continue
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: failed to parse %s: %w", line, f.col, err)
			}
			*f.dst = v
		}
		samples = append(samples, s)
	}
	return samples, nil
}

// ReadSamplesFile opens path and parses it with ReadSamples.
func ReadSamplesFile(path string) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trip: %w", err)
	}
	defer f.Close()

	samples, err := ReadSamples(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return samples, nil
}

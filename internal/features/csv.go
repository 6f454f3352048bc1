package features

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Column names written by WriteCSV.
const (
	ColSource         = "source"
	ColSegment        = "segment"
	ColMeanSpeed      = "mean_speed_kmh"
	ColMaxSpeed       = "max_speed_kmh"
	ColStdAccelX      = "std_accel_x"
	ColStdAccelY      = "std_accel_y"
	ColStopTimePct    = "stop_time_pct"
	ColSpeedVariation = "speed_variation"
)

// Header is the column order written by WriteCSV.
var Header = []string{
	ColSource, ColSegment, ColMeanSpeed, ColMaxSpeed,
	ColStdAccelX, ColStdAccelY, ColStopTimePct, ColSpeedVariation,
}

// headerAliases maps the column names of the legacy summary export
// (summary_by_3min.csv) onto the canonical names.
var headerAliases = map[string]string{
	"fichier":                ColSource,
	"vitesse moyenne (km/h)": ColMeanSpeed,
	"vitesse maximal (km/h)": ColMaxSpeed,
	"ecart type x (m/s²)":    ColStdAccelX,
	"ecart type y (m/s²)":    ColStdAccelY,
	"stop time (%)":          ColStopTimePct,
	"variation vitesse":      ColSpeedVariation,
}

// ReadCSV parses a summary table. Columns are matched by header name, so
// order does not matter; the segment column is optional and, when absent,
// windows are numbered in file order per source.
func ReadCSV(r io.Reader) (Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read feature csv: missing header")
		}
		return nil, fmt.Errorf("read feature csv header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if alias, ok := headerAliases[key]; ok {
			key = alias
		}
		index[key] = i
	}
	for _, required := range Header {
		if required == ColSegment {
			continue
		}
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("read feature csv: missing column %q", required)
		}
	}

	var table Table
	segments := make(map[string]int)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read feature csv line %d: %w", line, err)
		}

		w := Window{Source: record[index[ColSource]]}
		if i, ok := index[ColSegment]; ok {
			if w.Segment, err = strconv.Atoi(strings.TrimSpace(record[i])); err != nil {
				return nil, fmt.Errorf("line %d: failed to parse %s: %w", line, ColSegment, err)
			}
		} else {
			w.Segment = segments[w.Source]
			segments[w.Source]++
		}

		fields := []struct {
			col string
			dst *float64
		}{
			{ColMeanSpeed, &w.MeanSpeed},
			{ColMaxSpeed, &w.MaxSpeed},
			{ColStdAccelX, &w.StdAccelX},
			{ColStdAccelY, &w.StdAccelY},
			{ColStopTimePct, &w.StopTimePct},
			{ColSpeedVariation, &w.SpeedVariation},
		}
		for _, f := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[index[f.col]]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: failed to parse %s: %w", line, f.col, err)
			}
			*f.dst = v
		}
		table = append(table, w)
	}
	return table, nil
}

// WriteCSV writes the table with the canonical Header.
func WriteCSV(w io.Writer, table Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("write feature csv header: %w", err)
	}
	for _, row := range table {
		record := []string{row.Source, strconv.Itoa(row.Segment)}
		for _, v := range row.Vector() {
			record = append(record, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write feature csv: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

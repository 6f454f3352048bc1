package report

import (
	"fmt"
	"io"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/drivestyle/internal/behavior"
)

// SizesPlot builds a bar chart of members per cluster.
func SizesPlot(sizes []behavior.ClusterSize, title string) (*plot.Plot, error) {
	if len(sizes) == 0 {
		return nil, fmt.Errorf("no clusters to plot")
	}

	values := make(plotter.Values, len(sizes))
	names := make([]string, len(sizes))
	for i, s := range sizes {
		values[i] = float64(s.Count)
		names[i] = strconv.Itoa(s.Label)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Cluster"
	p.Y.Label.Text = "Windows"

	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return nil, fmt.Errorf("bar chart: %w", err)
	}
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(names...)
	return p, nil
}

// WriteSizesPNG renders SizesPlot as a PNG image.
func WriteSizesPNG(w io.Writer, sizes []behavior.ClusterSize, title string) error {
	p, err := SizesPlot(sizes, title)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(6*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("png writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}

package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/drivestyle/internal/behavior"
)

// palette is the tab10 colour cycle.
var palette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// NoTarget disables the target marker in Scatter.
const NoTarget = -1

// Scatter builds the PCA scatter of a result: one series per refined
// cluster, named with its behavior label. When target is a window index it
// is drawn as a separate, larger marker in its cluster's colour.
func Scatter(res *behavior.Result, target int) (*charts.Scatter, error) {
	coords, err := Project(res.Scaled)
	if err != nil {
		return nil, err
	}
	if target >= len(coords) {
		return nil, fmt.Errorf("target index %d out of range (%d windows)", target, len(coords))
	}

	series := make(map[int][]opts.ScatterData)
	for i, c := range coords {
		if i == target {
			continue
		}
		w := res.Windows[i]
		series[res.Refined[i]] = append(series[res.Refined[i]], opts.ScatterData{
			Name:  fmt.Sprintf("%s #%d", w.Source, w.Segment),
			Value: []interface{}{c[0], c[1]},
		})
	}
	refined := make([]int, 0, len(series))
	for r := range series {
		refined = append(refined, r)
	}
	sort.Ints(refined)

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Driving behavior clusters", Width: "900px", Height: "700px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Driving behavior (PCA)",
			Subtitle: fmt.Sprintf("method=%s split=%s windows=%d", res.Method, res.SplitMethod, len(res.Windows)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "PC1", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "PC2", NameLocation: "middle", NameGap: 30}),
	)

	for _, r := range refined {
		scatter.AddSeries(seriesName(res, r), series[r],
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: palette[r%len(palette)]}),
		)
	}

	if target >= 0 {
		r := res.Refined[target]
		w := res.Windows[target]
		point := opts.ScatterData{
			Name:       w.Source,
			Value:      []interface{}{coords[target][0], coords[target][1]},
			Symbol:     "diamond",
			SymbolSize: 20,
		}
		scatter.AddSeries("Target: "+res.LabelOf(target).String(), []opts.ScatterData{point},
			charts.WithItemStyleOpts(opts.ItemStyle{Color: palette[r%len(palette)], BorderColor: "#000000", BorderWidth: 2}),
		)
	}
	return scatter, nil
}

// WriteScatterHTML renders Scatter as a standalone HTML page.
func WriteScatterHTML(w io.Writer, res *behavior.Result, target int) error {
	scatter, err := Scatter(res, target)
	if err != nil {
		return err
	}
	if err := scatter.Render(w); err != nil {
		return fmt.Errorf("render scatter: %w", err)
	}
	return nil
}

func seriesName(res *behavior.Result, refined int) string {
	if l, ok := res.Labels[refined]; ok {
		return fmt.Sprintf("Cluster %d: %s", refined, l)
	}
	return fmt.Sprintf("Cluster %d", refined)
}

package behavior

import (
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/drivestyle/internal/cluster"
	"github.com/banshee-data/drivestyle/internal/config"
	"github.com/banshee-data/drivestyle/internal/features"
	"github.com/banshee-data/drivestyle/internal/monitoring"
	"github.com/banshee-data/drivestyle/internal/timeutil"
)

var logf = monitoring.Tagged("pipeline")

// Pipeline runs initial clustering, the two-way recluster and labelling over
// a feature table. A Pipeline holds configuration only and may be shared by
// concurrent callers.
type Pipeline struct {
	Initial  cluster.Clusterer
	Splitter cluster.Clusterer
	Bands    []string
	// Clock times runs; nil means the wall clock.
	Clock timeutil.Clock
}

// NewPipeline builds a Pipeline from the methods and band names in cfg.
func NewPipeline(cfg *config.TuningConfig) (*Pipeline, error) {
	initial, err := cluster.New(cfg.GetInitialMethod(), cfg)
	if err != nil {
		return nil, err
	}
	splitter, err := cluster.NewSplitter(cfg.GetSplitMethod(), cfg)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		Initial:  initial,
		Splitter: splitter,
		Bands:    cfg.GetBandNames(),
	}, nil
}

// Result is the output of one pipeline run. Slices are aligned with Windows.
type Result struct {
	Method      string         `json:"method"`
	SplitMethod string         `json:"split_method"`
	Windows     features.Table `json:"windows"`
	Clusters    []int          `json:"clusters"`
	Refined     []int          `json:"refined"`
	Sizes       []ClusterSize  `json:"sizes"`
	Stats       []ClusterStats `json:"stats"`
	Labels      map[int]Label  `json:"labels"`
	Degenerate  []int          `json:"degenerate,omitempty"`
	Warnings    []string       `json:"warnings,omitempty"`
	Duration    time.Duration  `json:"duration_ns"`
	Scaled      [][]float64    `json:"-"`
}

// LabelOf returns the behavior label of window i.
func (r *Result) LabelOf(i int) Label {
	return r.Labels[r.Refined[i]]
}

// Run clusters the table. Errors wrap cluster.ErrInvalidInput for empty
// tables, bad parameters or a refined-cluster count that does not match the
// configured bands; no partial result is returned with an error.
func (p *Pipeline) Run(table features.Table) (*Result, error) {
	clock := p.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	start := clock.Now()
	method := p.Initial.Name()

	res, err := p.run(table)
	elapsed := clock.Since(start)
	monitoring.PipelineDurationSeconds.WithLabelValues(method).Observe(elapsed.Seconds())
	if err != nil {
		status := "error"
		if errors.Is(err, cluster.ErrInvalidInput) {
			status = "invalid"
		}
		monitoring.PipelineRunsTotal.WithLabelValues(method, status).Inc()
		logf("run failed method=%s windows=%d: %v", method, len(table), err)
		return nil, err
	}
	res.Duration = elapsed
	monitoring.PipelineRunsTotal.WithLabelValues(method, "ok").Inc()
	logf("run ok method=%s split=%s windows=%d clusters=%d refined=%d in %s",
		method, res.SplitMethod, len(table), len(res.Sizes), len(res.Stats), elapsed)
	return res, nil
}

func (p *Pipeline) run(table features.Table) (*Result, error) {
	if len(table) == 0 {
		return nil, fmt.Errorf("%w: empty feature table", cluster.ErrInvalidInput)
	}
	scaled, err := features.Standardize(table.Matrix())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cluster.ErrInvalidInput, err)
	}

	clusters, err := p.Initial.Labels(scaled)
	if err != nil {
		return nil, fmt.Errorf("initial clustering (%s): %w", p.Initial.Name(), err)
	}

	ref, err := Recluster(scaled, clusters, p.Splitter)
	if err != nil {
		return nil, fmt.Errorf("recluster: %w", err)
	}
	warnings := make([]string, 0, len(ref.Warnings))
	for _, w := range ref.Warnings {
		logf("warning: %v", w)
		warnings = append(warnings, w.Error())
	}
	monitoring.DegenerateSplitsTotal.Add(float64(len(ref.Degenerate)))

	stats, err := Summarize(table, ref.Refined)
	if err != nil {
		return nil, err
	}
	labels, err := AssignLabels(stats, p.Bands)
	if err != nil {
		return nil, fmt.Errorf("assign labels: %w", err)
	}

	return &Result{
		Method:      p.Initial.Name(),
		SplitMethod: p.Splitter.Name(),
		Windows:     table,
		Clusters:    clusters,
		Refined:     ref.Refined,
		Sizes:       Sizes(clusters),
		Stats:       stats,
		Labels:      labels,
		Degenerate:  ref.Degenerate,
		Warnings:    warnings,
		Scaled:      scaled,
	}, nil
}

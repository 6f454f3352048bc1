package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/banshee-data/drivestyle/internal/behavior"
	"github.com/banshee-data/drivestyle/internal/report"
	"github.com/banshee-data/drivestyle/internal/telemetry"
)

// chartFlags are the report outputs shared by cluster and classify.
type chartFlags struct {
	chart string
	plot  string
}

func (f *chartFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.chart, "chart", "", "write the interactive PCA scatter to this HTML file")
	cmd.Flags().StringVar(&f.plot, "plot", "", "write the initial cluster size bar chart to this PNG file")
}

func (f *chartFlags) write(res *behavior.Result, target int) error {
	if f.chart != "" {
		if err := writeFile(f.chart, func(w io.Writer) error {
			return report.WriteScatterHTML(w, res, target)
		}); err != nil {
			return err
		}
	}
	if f.plot != "" {
		title := fmt.Sprintf("Initial clusters (%s)", res.Method)
		if err := writeFile(f.plot, func(w io.Writer) error {
			return report.WriteSizesPNG(w, res.Sizes, title)
		}); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, render func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(f); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}

// pipeline builds the pipeline from the loaded config with optional method
// overrides.
func (a *app) pipeline(method, split string) (*behavior.Pipeline, error) {
	cfg := *a.cfg
	if method != "" {
		cfg.InitialMethod = &method
	}
	if split != "" {
		cfg.SplitMethod = &split
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return behavior.NewPipeline(&cfg)
}

func printStats(w io.Writer, res *behavior.Result) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "REFINED\tWINDOWS\tMEAN SPEED (km/h)\tVARIATION STD\tBEHAVIOR")
	for _, s := range res.Stats {
		fmt.Fprintf(tw, "%d\t%d\t%.1f\t%.3f\t%s\n",
			s.Refined, s.Count, s.MeanSpeed, s.VariationStd, res.Labels[s.Refined])
	}
	tw.Flush()
	for _, warning := range res.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
}

func newClusterCmd(a *app) *cobra.Command {
	var (
		method, split string
		save, asJSON  bool
		charts        chartFlags
	)
	cmd := &cobra.Command{
		Use:   "cluster",
		Short: "Cluster the stored windows into behavior groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.pipeline(method, split)
			if err != nil {
				return err
			}
			database, err := a.openDB()
			if err != nil {
				return err
			}
			defer database.Close()

			table, err := database.ListWindows()
			if err != nil {
				return err
			}
			res, err := p.Run(table)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(res); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(out, "%d windows, %s then %s split, %d initial clusters, %s\n\n",
					len(res.Windows), res.Method, res.SplitMethod, len(res.Sizes), res.Duration.Round(time.Millisecond))
				printStats(out, res)
			}

			if save {
				runID, err := database.InsertRun(res)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Saved run %s\n", runID)
			}
			return charts.write(res, report.NoTarget)
		},
	}
	cmd.Flags().StringVar(&method, "method", "", "initial clustering method: iterative, kmeans, agglomerative, dbscan")
	cmd.Flags().StringVar(&split, "split", "", "recluster method: kmeans, agglomerative")
	cmd.Flags().BoolVar(&save, "save", false, "store the run output in the database")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	charts.register(cmd)
	return cmd
}

func newClassifyCmd(a *app) *cobra.Command {
	var (
		method string
		charts chartFlags
	)
	cmd := &cobra.Command{
		Use:   "classify FILE",
		Short: "Classify a raw trip recording against the stored windows",
		Long: `classify summarises the whole trip as one feature row, clusters it
together with the stored windows and reports the behavior of the group it
joins. The trip itself is not stored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.pipeline(method, "")
			if err != nil {
				return err
			}
			samples, err := telemetry.ReadSamplesFile(args[0])
			if err != nil {
				return err
			}
			target, err := telemetry.NewExtractor(a.cfg).Summarize(filepath.Base(args[0]), samples)
			if err != nil {
				return err
			}

			database, err := a.openDB()
			if err != nil {
				return err
			}
			defer database.Close()

			history, err := database.ListWindows()
			if err != nil {
				return err
			}
			c, err := p.Classify(history, target)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %s\n", target.Source, c.Label)
			fmt.Fprintf(out, "  mean speed %.1f km/h, max %.1f km/h, stopped %.1f%%, speed variation %.3f\n",
				target.MeanSpeed, target.MaxSpeed, target.StopTimePct, target.SpeedVariation)
			fmt.Fprintf(out, "  cluster %d, refined %d", c.Cluster, c.Refined)
			if c.Duplicate {
				fmt.Fprint(out, " (already in history)")
			}
			fmt.Fprint(out, "\n\n")
			printStats(out, c.Result)

			return charts.write(c.Result, c.Index)
		},
	}
	cmd.Flags().StringVar(&method, "method", "", "initial clustering method override")
	charts.register(cmd)
	return cmd
}

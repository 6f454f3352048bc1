package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/banshee-data/drivestyle/internal/report"
)

func newRunsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect stored clustering runs",
	}
	cmd.AddCommand(newRunsListCmd(a), newRunsShowCmd(a), newRunsPruneCmd(a))
	return cmd
}

func newRunsListCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the most recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := a.openDB()
			if err != nil {
				return err
			}
			defer database.Close()

			runs, err := database.ListRuns(limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN\tCREATED\tMETHOD\tSPLIT\tWINDOWS\tWARNINGS")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n",
					r.RunID, time.Unix(0, r.CreatedAtNs).Format(time.RFC3339),
					r.Method, r.SplitMethod, r.WindowCount, len(r.Warnings))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to list")
	return cmd
}

func newRunsShowCmd(a *app) *cobra.Command {
	var charts chartFlags
	cmd := &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Print the clusters of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := a.openDB()
			if err != nil {
				return err
			}
			defer database.Close()

			run, err := database.GetRun(args[0])
			if err != nil {
				return err
			}
			res, err := run.Result()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "run %s: %d windows, %s then %s split, created %s\n\n",
				run.RunID, run.WindowCount, run.Method, run.SplitMethod,
				time.Unix(0, run.CreatedAtNs).Format(time.RFC3339))
			printStats(out, res)
			return charts.write(res, report.NoTarget)
		},
	}
	charts.register(cmd)
	return cmd
}

func newRunsPruneCmd(a *app) *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete runs older than a given age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive")
			}
			database, err := a.openDB()
			if err != nil {
				return err
			}
			defer database.Close()

			n, err := database.DeleteRunsBefore(time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d runs\n", n)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "delete runs created before now minus this duration")
	return cmd
}

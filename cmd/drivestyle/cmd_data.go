package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/banshee-data/drivestyle/internal/features"
	"github.com/banshee-data/drivestyle/internal/telemetry"
)

func newIngestCmd(a *app) *cobra.Command {
	var replace bool
	cmd := &cobra.Command{
		Use:   "ingest FILE...",
		Short: "Extract feature windows from raw trip recordings",
		Long: `ingest reads trip CSVs recorded by the phone collector, cuts them into
fixed-length windows and stores one feature row per complete window. Trips
shorter than one window contribute nothing.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := a.openDB()
			if err != nil {
				return err
			}
			defer database.Close()

			extractor := telemetry.NewExtractor(a.cfg)

			var bar *progressbar.ProgressBar
			if isatty.IsTerminal(os.Stderr.Fd()) {
				bar = progressbar.NewOptions(len(args),
					progressbar.OptionSetDescription("Ingesting trips"),
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionShowCount(),
					progressbar.OptionClearOnFinish(),
				)
			}

			var total, skipped int
			for _, path := range args {
				source := filepath.Base(path)
				samples, err := telemetry.ReadSamplesFile(path)
				if err != nil {
					return err
				}
				windows, err := extractor.Windows(source, samples)
				if err != nil {
					return err
				}
				if len(windows) == 0 {
					log.Printf("%s: %d samples, shorter than one window; skipped", source, len(samples))
					skipped++
				}
				if replace {
					if _, err := database.DeleteSource(source); err != nil {
						return err
					}
				}
				if err := database.InsertWindows(windows, "ingest"); err != nil {
					return fmt.Errorf("%s: %w", source, err)
				}
				total += len(windows)
				if bar != nil {
					bar.Add(1)
				}
			}
			if bar != nil {
				bar.Finish()
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Stored %d windows from %d trips (%d too short)\n",
				total, len(args), skipped)
			return nil
		},
	}
	cmd.Flags().BoolVar(&replace, "replace", false, "delete existing windows of each trip before storing")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Store windows from a feature summary CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			table, err := features.ReadCSV(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			database, err := a.openDB()
			if err != nil {
				return err
			}
			defer database.Close()

			if err := database.InsertWindows(table, "import"); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d windows\n", len(table))
			return nil
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export FILE",
		Short: "Write stored windows as a feature summary CSV (- for stdout)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := a.openDB()
			if err != nil {
				return err
			}
			defer database.Close()

			table, err := database.ListWindows()
			if err != nil {
				return err
			}

			if args[0] == "-" {
				return features.WriteCSV(cmd.OutOrStdout(), table)
			}
			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			if err := features.WriteCSV(f, table); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			log.Printf("Exported %d windows to %s", len(table), args[0])
			return nil
		},
	}
}

// Command drivestyle extracts driving features from phone telemetry,
// clusters them into behavior groups and classifies new trips.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/banshee-data/drivestyle/internal/config"
	"github.com/banshee-data/drivestyle/internal/db"
	"github.com/banshee-data/drivestyle/internal/version"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

// app carries the settings resolved before any subcommand runs.
type app struct {
	dotenv     string
	dbPath     string
	configPath string

	env *config.Env
	cfg *config.TuningConfig
}

func main() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "drivestyle",
		Short: "Driving behavior clustering from phone telemetry",
		Long: `drivestyle turns smartphone trip recordings into per-window driving
features, groups them into road-type bands split into normal and aggressive
driving, and places new trips among the stored history.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.dotenv, "env-file", ".env", "dotenv file to load before reading DRIVESTYLE_* variables")
	rootCmd.PersistentFlags().StringVar(&a.dbPath, "db", "", "SQLite database path (default $DRIVESTYLE_DB_PATH or drivestyle.db)")
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "tuning config file, JSON or YAML (default $DRIVESTYLE_CONFIG)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newIngestCmd(a),
		newImportCmd(a),
		newExportCmd(a),
		newClusterCmd(a),
		newClassifyCmd(a),
		newRunsCmd(a),
		newServeCmd(a),
		newMigrateCmd(a),
	)
	return rootCmd
}

// load resolves the environment, applies flag overrides and loads the
// tuning config.
func (a *app) load() error {
	env, err := config.LoadEnv(a.dotenv)
	if err != nil {
		return err
	}
	if a.dbPath != "" {
		env.DBPath = a.dbPath
	}
	if a.configPath != "" {
		env.ConfigPath = a.configPath
	}
	cfg, err := env.LoadTuning()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid tuning config: %w", err)
	}
	a.env, a.cfg = env, cfg
	return nil
}

// openDB opens the configured database and applies pending migrations.
func (a *app) openDB() (*db.DB, error) {
	database, err := db.NewDB(a.env.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return database, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "drivestyle %s\n", version.String())
		},
	}
}

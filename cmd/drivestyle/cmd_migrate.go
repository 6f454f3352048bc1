package main

import (
	"fmt"
	"io"
	"log"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/banshee-data/drivestyle/internal/db"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	// withDB opens the database without migrating it; the migrate
	// subcommands manage the schema themselves.
	withDB := func(run func(cmd *cobra.Command, database *db.DB, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			database, err := db.OpenDB(a.env.DBPath)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer database.Close()
			return run(cmd, database, args)
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: withDB(func(cmd *cobra.Command, database *db.DB, _ []string) error {
				log.Printf("Running migrations...")
				if err := database.MigrateUp(db.MigrationsFS()); err != nil {
					return fmt.Errorf("migration up failed: %w", err)
				}
				log.Println("✓ All migrations applied successfully")
				return printMigrationStatus(cmd.OutOrStdout(), database)
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back one migration",
			Args:  cobra.NoArgs,
			RunE: withDB(func(cmd *cobra.Command, database *db.DB, _ []string) error {
				log.Printf("Rolling back one migration...")
				if err := database.MigrateDown(db.MigrationsFS()); err != nil {
					return fmt.Errorf("migration down failed: %w", err)
				}
				log.Println("✓ Migration rolled back successfully")
				return printMigrationStatus(cmd.OutOrStdout(), database)
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show the current schema version",
			Args:  cobra.NoArgs,
			RunE: withDB(func(cmd *cobra.Command, database *db.DB, _ []string) error {
				return printMigrationStatus(cmd.OutOrStdout(), database)
			}),
		},
		&cobra.Command{
			Use:   "force VERSION",
			Short: "Set the schema version without running migrations (recovery only)",
			Args:  cobra.ExactArgs(1),
			RunE: withDB(func(cmd *cobra.Command, database *db.DB, args []string) error {
				version, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version number: %s", args[0])
				}
				if err := database.MigrateForce(db.MigrationsFS(), version); err != nil {
					return fmt.Errorf("force version %d failed: %w", version, err)
				}
				log.Printf("✓ Forced version to %d", version)
				return printMigrationStatus(cmd.OutOrStdout(), database)
			}),
		},
	)
	return cmd
}

func printMigrationStatus(w io.Writer, database *db.DB) error {
	status, err := database.GetMigrationStatus(db.MigrationsFS())
	if err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}

	fmt.Fprintln(w, "=== Migration Status ===")
	fmt.Fprintf(w, "Current version: %d\n", status.CurrentVersion)
	fmt.Fprintf(w, "Latest version: %d\n", status.LatestVersion)
	fmt.Fprintf(w, "Dirty: %v\n", status.Dirty)

	if status.Dirty {
		fmt.Fprintln(w, "\n⚠️  WARNING: Database is in a dirty state!")
		fmt.Fprintln(w, "A migration failed mid-execution. Inspect the database, fix it, then run:")
		fmt.Fprintln(w, "  drivestyle migrate force <version>")
	} else if !status.UpToDate() {
		fmt.Fprintln(w, "\nPending migrations. Run: drivestyle migrate up")
	}
	return nil
}

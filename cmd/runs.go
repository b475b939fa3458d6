package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/outlier/core"
	"github.com/huangsam/outlier/internal/contract"
	"github.com/huangsam/outlier/internal/iostore"
	"github.com/huangsam/outlier/schema"
)

// runsCmd focused on run history management.
//
// Note: status, export, clear and migrate use minimal initialization (storeSetup)
// instead of the full sharedSetup, since they only need the backend settings.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage the detection run history",
	Long: `Manage the history of detection runs kept by database backends.

Every 'outlier detect' run against a database stores:
- Run metadata (method, params, filter, timestamps, duration, error)
- The records flagged by the run, with their scores and reasons

Supported backends: SQLite (default), MySQL, PostgreSQL. The none backend keeps no history.

Subcommands:
  status  - Show store statistics and connection info
  list    - Show the most recent runs
  export  - Export runs and flags to Parquet for analytics
  migrate - Run database schema migrations
  clear   - Remove the store, records and history included

Examples:
  # Check the store
  outlier runs status

  # Export for analysis in pandas/DuckDB
  outlier runs export --output-file history`,
}

// runsStatusCmd shows store status.
var runsStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Display store statistics and connection details",
	PreRunE: storeSetup,
	Run: func(_ *cobra.Command, _ []string) {
		store := iostore.Manager.GetRecordStore()
		if store == nil {
			contract.LogFatal("Failed to get store status", core.ErrNoRecordSource)
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get store status", err)
		}
		iostore.PrintStoreStatus(os.Stdout, status)
	},
}

// runsListCmd prints the most recent runs.
var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the most recent detection runs",
	Long: `Print the most recent detection runs, oldest first, up to --limit.

Examples:
  outlier runs list --limit 5
  outlier runs list --detail --output csv --output-file runs.csv`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteRuns(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot list runs", err)
		}
	},
}

// runsExportCmd exports the run history to Parquet files.
var runsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the run history to Parquet for BI tools and analytics",
	Long: `Export all stored runs and flags to Parquet.

Writes two files named after --output-file:
- <output-file>.detection_runs.parquet
- <output-file>.detection_flags.parquet

Examples:
  outlier runs export --output-file history
  duckdb -c "SELECT method, avg(flagged_count) FROM read_parquet('history.detection_runs.parquet') GROUP BY 1"`,
	PreRunE: storeSetup,
	Run: func(_ *cobra.Command, _ []string) {
		runs := iostore.Manager.GetRunStore()
		if runs == nil {
			contract.LogFatal("Failed to export run history", core.ErrNoRecordSource)
		}
		if err := iostore.ExportRuns(rootCtx, runs, cfg.OutputFile, os.Stdout); err != nil {
			contract.LogFatal("Failed to export run history", err)
		}
	},
}

// runsMigrateCmd runs database migrations for the store.
var runsMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  outlier runs migrate

  # Rollback to the initial state
  outlier runs migrate --target-version 0`,
	PreRunE: migrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := iostore.Migrate(cfg.Backend, cfg.DBConnect, targetVersion, os.Stdout); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}

// runsClearCmd removes the store.
var runsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the store, including records and run history",
	Long: `Delete everything the configured backend holds.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the tables

WARNING: This action cannot be undone. Consider exporting the history first.

Examples:
  outlier runs export --output-file backup
  outlier runs clear`,
	PreRunE: migrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		dbPath := cfg.DBConnect
		if cfg.Backend != schema.SQLiteBackend {
			dbPath = ""
		}
		if err := iostore.ClearStore(cfg.Backend, dbPath, cfg.DBConnect); err != nil {
			contract.LogFatal("Failed to clear store", err)
		}
		fmt.Println("Store cleared successfully.")
	},
}

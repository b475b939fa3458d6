// Package cmd defines the command-line interface for outlier.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/outlier/internal/contract"
	"github.com/huangsam/outlier/internal/logger"
	"github.com/huangsam/outlier/schema"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(recordsCmd)
	rootCmd.AddCommand(optionsCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the runs subcommands to the parent runs command
	runsCmd.AddCommand(runsStatusCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsExportCmd)
	runsCmd.AddCommand(runsMigrateCmd)
	runsCmd.AddCommand(runsClearCmd)

	// Bind all persistent flags of rootCmd to Viper
	flags := rootCmd.PersistentFlags()
	flags.StringP("method", "m", string(schema.StatisticalMethod), "Detection method: range or statistical or seasonal_residual")
	flags.String("threshold", "", "Z-score threshold for statistical and seasonal_residual (default 3)")
	flags.String("min", "", "Lower bound for range detection")
	flags.String("max", "", "Upper bound for range detection")
	flags.String("period", "", "Season length in months for seasonal_residual (default 12)")
	flags.String("model", "", "Decomposition model for seasonal_residual: additive or multiplicative")
	flags.String("port-name", "", "Only records of this port")
	flags.String("state", "", "Only records of this state")
	flags.String("border", "", "Only records of this border")
	flags.String("measure", "", "Only records of this measure (e.g., Trucks)")
	flags.String("port-code", "", "Only records of this port code")
	flags.String("date", "", "Only records of this month (e.g., 2024-01-01 or 'Jan 2024')")
	flags.String("start", "", "Only records on or after this date")
	flags.String("end", "", "Only records on or before this date")
	flags.StringP("input", "i", "", "CSV or parquet file to read instead of the record store")
	flags.IntP("limit", "l", contract.DefaultResultLimit, "Number of results to display")
	flags.String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	flags.String("output-file", "", "Optional path to write output to")
	flags.Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	flags.Bool("detail", false, "Print run parameters and record attributes")
	flags.Int("width", 0, "Terminal width override (0 = auto-detect)")
	flags.String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	flags.String("backend", string(schema.SQLiteBackend), "Store backend: sqlite or mysql or postgresql or none")
	flags.String("db-connect", "", "Database connection string (sqlite path, or e.g. user:pass@tcp(host:port)/dbname for mysql)")
	flags.String("log-level", "warn", "Log level: debug or info or warn or error")
	flags.String("log-format", logger.ConsoleFormat, "Log format: console or json")
	flags.String("profile", "", "Enable profiling and write profiles to files with this prefix")
	flags.String("config", "", "Path to config file")
	if err := viper.BindPFlags(flags); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of serveCmd to Viper
	serveCmd.Flags().String("addr", contract.DefaultAddr, "Address for the HTTP API to listen on")
	serveCmd.Flags().String("allow-origins", contract.DefaultOrigin, "Comma-separated list of origins allowed by CORS")
	if err := viper.BindPFlags(serveCmd.Flags()); err != nil {
		contract.LogFatal("Error binding serve flags", err)
	}

	// Bind all flags of runsMigrateCmd to Viper
	runsMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(runsMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding runs migrate flags", err)
	}
}

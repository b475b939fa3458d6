package cmd

import (
	"github.com/spf13/cobra"

	"github.com/huangsam/outlier/core"
	"github.com/huangsam/outlier/internal/contract"
)

// recordsCmd lists the records selected by the filter flags.
var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "List the records matching the filter, newest first.",
	Long: `Print the records selected by the filter flags, newest first.

CSV output uses the layout accepted by 'outlier load', so a filtered subset
can be saved and loaded elsewhere.

Examples:
  # The latest bus crossings at one port
  outlier records --port-name "Blaine" --measure Buses --limit 12

  # Save a subset as parquet
  outlier records --state Maine --output parquet --output-file maine.parquet`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteRecords(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot list records", err)
		}
	},
}

// optionsCmd lists the distinct filter values.
var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "List the distinct values available to each filter flag.",
	Long: `Show the ports, states, borders, measures, dates and port codes present in the
records, together with the available detection methods.

Examples:
  outlier options
  outlier options --input crossings.csv --output json`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteOptions(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot list filter options", err)
		}
	},
}

package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/huangsam/outlier/core"
	"github.com/huangsam/outlier/internal/contract"
)

// loadCmd imports a CSV or parquet file into the record store.
var loadCmd = &cobra.Command{
	Use:   "load <file>",
	Short: "Import records from a CSV or parquet file into the record store.",
	Long: `Read records from a file and insert them into the configured store.

Accepted layouts:
- the Border Crossing Entry Data CSV (Port Name, State, Port Code, Border, Date, Measure, Value, ...)
- the CSV written by 'outlier records --output csv'
- the parquet written by 'outlier records --output parquet'

Rows with an unreadable value or date are kept with the field missing.

Examples:
  outlier load Border_Crossing_Entry_Data.csv
  OUTLIER_BACKEND=postgresql OUTLIER_DB_CONNECT="postgres://..." outlier load crossings.parquet`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteLoad(rootCtx, cfg, storeManager, os.Stdout); err != nil {
			contract.LogFatal("Cannot load records", err)
		}
	},
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/huangsam/outlier/core"
	"github.com/huangsam/outlier/internal/contract"
)

// detectCmd flags anomalous records.
var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Flag anomalous monthly counts.",
	Long: `Select records with the filter flags and flag the anomalous ones.

Methods:
- range: values below --min or above --max
- statistical: values whose z-score magnitude exceeds --threshold
- seasonal_residual: values whose STL residual z-score exceeds --threshold

Records come from the record store unless --input names a CSV or parquet file.
When the store is a database, every run and its flags are kept in the run history.

Examples:
  # Z-score detection on truck crossings in Texas
  outlier detect --state Texas --measure Trucks

  # Values outside a fixed band
  outlier detect --method range --min 100 --max 50000

  # Seasonal residuals of one port, read from a CSV export
  outlier detect --method seasonal_residual --period 12 --port-name "El Paso" --input crossings.csv

  # Export the flagged records for a dashboard
  outlier detect --output parquet --output-file anomalies.parquet`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteDetect(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot run detection", err)
		}
	},
}

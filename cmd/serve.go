package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/huangsam/outlier/internal/server"
)

// serveCmd starts the HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serve records, filter options and detection over HTTP.

Routes:
  GET /api/status          - liveness and store statistics
  GET /api/data            - records matching the filter query parameters
  GET /api/anomalies       - detection with anomaly_type, threshold, value_min, value_max, period, model
  GET /api/filter-options  - distinct filter values
  GET /metrics             - Prometheus metrics

Examples:
  outlier serve --addr :5000
  outlier serve --allow-origins http://localhost:3000,https://dashboard.example.com`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		return server.New(cfg, storeManager).Start(ctx)
	},
}

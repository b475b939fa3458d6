package iostore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/outlier/internal/contract"
	"github.com/huangsam/outlier/internal/parquet"
)

// ExportRuns writes the run history and the flags of every run to two Parquet files
// named after outputFile.
func ExportRuns(ctx context.Context, store contract.RunStore, outputFile string, w io.Writer) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve detection runs: %w", err)
	}
	if len(runs) == 0 {
		return errors.New("no detection runs found to export")
	}
	flags, err := store.ListFlags(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to retrieve detection flags: %w", err)
	}

	runsFile := outputFile + ".detection_runs.parquet"
	if err := parquet.WriteRunsParquet(runs, runsFile); err != nil {
		return fmt.Errorf("failed to write detection runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d detection runs to: %s\n", len(runs), runsFile)

	flagsFile := outputFile + ".detection_flags.parquet"
	if err := parquet.WriteFlagsParquet(flags, flagsFile); err != nil {
		return fmt.Errorf("failed to write detection flags: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d detection flags to: %s\n", len(flags), flagsFile)
	return nil
}

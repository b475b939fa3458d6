package outwriter

import (
	"os"

	"golang.org/x/term"

	"github.com/huangsam/outlier/internal/contract"
)

// getMaxTableReasonWidth calculates the maximum width of the reason column in
// table output, based on the terminal width and the columns shown.
func getMaxTableReasonWidth(cfg *contract.Config) int {
	termWidth := cfg.Width
	if termWidth <= 0 {
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Rank + ID + Date + Value + Score + Severity with borders/padding
	baseWidth := 60
	if cfg.Detail {
		baseWidth += 45 // Port + State + Measure
	}

	available := termWidth - baseWidth
	if available < 20 {
		return 20
	}
	if available > 90 {
		return 90
	}
	return available
}

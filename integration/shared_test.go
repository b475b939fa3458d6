//go:build basic || database

package integration

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	// sharedOutlierPath holds the path to a shared outlier binary built once for all tests.
	sharedOutlierPath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// buildMutex protects the shared binary path.
	buildMutex sync.Mutex

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	code := m.Run()

	// Cleanup the shared binary after all tests
	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}

	os.Exit(code)
}

// getOutlierBinary returns the path to the outlier binary, building it once if needed.
func getOutlierBinary() string {
	buildMutex.Lock()
	defer buildMutex.Unlock()

	buildOnce.Do(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "outlier-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		outlierPath := filepath.Join(tempDir, "outlier")
		buildCmd := exec.Command("go", "build", "-o", outlierPath, ".")
		buildCmd.Dir = ".." // Build from parent directory (project root)
		if err := buildCmd.Run(); err != nil {
			panic(fmt.Sprintf("failed to build outlier: %v", err))
		}

		sharedOutlierPath = outlierPath
	})

	return sharedOutlierPath
}

// runOutlier runs the binary with env appended to the environment and returns stdout.
func runOutlier(t *testing.T, env []string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(getOutlierBinary(), args...)
	cmd.Dir = t.TempDir()
	cmd.Env = append(os.Environ(), env...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		t.Logf("Command failed: %s\nStdout: %s\nStderr: %s", cmd.String(), stdout.String(), stderr.String())
		return stdout.String(), err
	}
	return stdout.String(), nil
}

// fixtureValues are two years of monthly counts; month 21 is a spike.
var fixtureValues = []float64{
	410, 395, 402, 420, 415, 398, 405, 412, 400, 408, 396, 411,
	403, 399, 417, 406, 401, 409, 397, 414, 4200, 404, 400, 407,
}

// writeFixtureCSV writes fixtureValues in the Border Crossing Entry Data layout
// and returns the file path.
func writeFixtureCSV(t *testing.T) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("Port Name,State,Port Code,Border,Date,Measure,Value,Latitude,Longitude,Point\n")
	months := []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
	for i, v := range fixtureValues {
		fmt.Fprintf(&b, "Calais,Maine,115,US-Canada Border,%s %d,Trucks,%g,45.188,-67.275,POINT (-67.275 45.188)\n",
			months[i%12], 2022+i/12, v)
	}
	path := filepath.Join(t.TempDir(), "crossings.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

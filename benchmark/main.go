// Package main provides a performance benchmarking tool for the outlier detectors.
// It times each detection method on synthetic monthly series of growing size,
// running each test multiple times, treating the first run as cold and averaging the rest as warm,
// generating CSV output for performance analysis and documentation.
//
// Usage: go run benchmark/main.go [runs]
//
//	runs: Number of runs per method and size (default 5)
package main

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"strconv"
	"time"

	"github.com/huangsam/outlier/core"
	"github.com/huangsam/outlier/schema"
)

// BenchmarkResult holds the result of a benchmark run (cold run and average of warm runs).
type BenchmarkResult struct {
	Size     int
	Method   schema.Method
	Flagged  int
	ColdTime string
	WarmTime string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	Runs     int
	Sizes    []int
	Requests []schema.DetectionRequest
}

func main() {
	runs := 5
	if len(os.Args) == 2 {
		n, err := strconv.Atoi(os.Args[1])
		if err != nil || n < 2 {
			fmt.Printf("Usage: %s [runs >= 2]\n", os.Args[0])
			os.Exit(1)
		}
		runs = n
	}

	config := BenchmarkConfig{
		Runs:  runs,
		Sizes: []int{120, 600, 2400, 9600},
		Requests: []schema.DetectionRequest{
			{Method: schema.RangeMethod, Params: schema.RangeParams{Min: schema.Float(20), Max: schema.Float(180)}},
			{Method: schema.StatisticalMethod, Params: schema.StatisticalParams{}},
			{Method: schema.SeasonalResidualMethod, Params: schema.SeasonalParams{}},
		},
	}

	results, err := runBenchmarks(config)
	if err != nil {
		fmt.Printf("Benchmark failed: %v\n", err)
		os.Exit(1)
	}

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(config, results)
}

// syntheticRecords returns n monthly records following a trend and a yearly
// cycle with noise, with a spike every 97 months.
func syntheticRecords(n int) []schema.Record {
	rng := rand.New(rand.NewPCG(42, uint64(n)))
	start := time.Date(1996, time.January, 1, 0, 0, 0, 0, time.UTC)
	records := make([]schema.Record, n)
	for i := range records {
		v := 100 + 0.01*float64(i) + 40*math.Sin(2*math.Pi*float64(i)/12) + rng.NormFloat64()*5
		if i > 0 && i%97 == 0 {
			v += 150
		}
		records[i] = schema.Record{
			ID:    int64(i + 1),
			Value: schema.Float(v),
			Date:  start.AddDate(0, i, 0),
		}
	}
	return records
}

// runBenchmarks executes every method on every size.
func runBenchmarks(config BenchmarkConfig) ([]BenchmarkResult, error) {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d sizes, %d methods, %d runs each\n",
		len(config.Sizes), len(config.Requests), config.Runs)

	for _, size := range config.Sizes {
		records := syntheticRecords(size)
		fmt.Printf("Benchmarking %d records\n", size)

		for _, req := range config.Requests {
			result, err := runBenchmark(config, records, req)
			if err != nil {
				return nil, fmt.Errorf("%s on %d records: %w", req.Method, size, err)
			}
			fmt.Printf("  %-18s flagged: %4d, cold: %s, warm average: %s\n",
				result.Method, result.Flagged, result.ColdTime, result.WarmTime)
			results = append(results, result)
		}
	}
	return results, nil
}

// runBenchmark times one method config.Runs times on records.
func runBenchmark(config BenchmarkConfig, records []schema.Record, req schema.DetectionRequest) (BenchmarkResult, error) {
	var (
		times   []time.Duration
		flagged int
	)
	for range config.Runs {
		start := time.Now()
		found, err := core.Detect(records, req)
		if err != nil {
			return BenchmarkResult{}, err
		}
		times = append(times, time.Since(start))
		flagged = len(found)
	}

	var warm time.Duration
	for _, t := range times[1:] {
		warm += t
	}
	warm /= time.Duration(len(times) - 1)

	return BenchmarkResult{
		Size:     len(records),
		Method:   req.Method,
		Flagged:  flagged,
		ColdTime: formatSeconds(times[0]),
		WarmTime: formatSeconds(warm),
	}, nil
}

func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.6fs", d.Seconds())
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("%s/outlier_benchmark_%s.csv", os.TempDir(), timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"size", "method", "flagged", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range results {
		row := []string{strconv.Itoa(r.Size), string(r.Method), strconv.Itoa(r.Flagged), r.ColdTime, r.WarmTime}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(config BenchmarkConfig, results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, req := range config.Requests {
		printMethodSummary(results, req.Method)
	}
}

// printMethodSummary displays results for a specific method
func printMethodSummary(results []BenchmarkResult, method schema.Method) {
	fmt.Printf("%s:\n", method)
	for _, r := range results {
		if r.Method == method {
			fmt.Printf("  %6d records: Cold: %s, Warm: %s\n", r.Size, r.ColdTime, r.WarmTime)
		}
	}
}

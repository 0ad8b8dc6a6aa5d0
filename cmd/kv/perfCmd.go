package kv

import (
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stashdb/stashdb/cmd/util"
	"github.com/stashdb/stashdb/lib/engine"
	"github.com/stashdb/stashdb/rpc/common"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for stashdb servers",
		Long:    "",
		RunE:    run,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix        = "__test"
	perfLargeValueSizeKB = 100
	perfNumThreads       = 10
	perfKeySpread        = 100
	perfStorePath        = "perf-test"
	perfSkip             = make([]string, 0)
)

func init() {
	// add flags
	key := "skip"
	KeyValueCommands.PersistentFlags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. set,get)"))
	key = "threads"
	KeyValueCommands.PersistentFlags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "large-value-size"
	KeyValueCommands.PersistentFlags().Int(key, 1000, util.WrapString("How large the value for the set-large test should be (in KB)"))
	key = "keys-count"
	KeyValueCommands.PersistentFlags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "store"
	KeyValueCommands.PersistentFlags().String(key, "perf-test", util.WrapString("Path of the store the benchmark opens on the server (created if missing, destroyed afterwards)"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfKeySpread = viper.GetInt("keys-count")
	perfNumThreads = viper.GetInt("threads")
	perfStorePath = viper.GetString("store")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

// perfResult bundles the throughput numbers from testing.Benchmark with
// the latency distribution sampled during the run
type perfResult struct {
	bench   testing.BenchmarkResult
	latency gometrics.Timer
}

func run(_ *cobra.Command, _ []string) error {

	fmt.Println("Performance testing tool for stashdb servers")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Println()

	// Open a dedicated store for the benchmark
	handle, err := remoteHost.Connect(perfStorePath, engine.OpenOptions{CreateIfMissing: true})
	if err != nil {
		return fmt.Errorf("failed to open benchmark store: %w", err)
	}
	defer func() {
		if err := remoteHost.Close(handle); err != nil {
			log.Printf("error destroying benchmark store: %v\n", err)
		}
	}()

	fmt.Println("starting tests...")

	// Create results map
	results := make(map[string]perfResult)

	runPerfTest := func(name string, prepare func(getKey func(int) string, iter func(func(string))), op func(key string, counter int) error) {
		timer := gometrics.NewTimer()

		bench := testing.Benchmark(func(b *testing.B) {
			if shouldSkip(name) {
				return
			}

			// prepare keys
			getKey, iter := getKeys(name)

			if prepare != nil {
				prepare(getKey, iter)
			}

			// cleanup
			b.Cleanup(func() {
				iter(func(k string) {
					err := remoteHost.RemoveItem(handle, k)
					if err != nil {
						log.Printf("(%s) - error deleting key: %v\n", name, err)
					}
				})
			})

			b.SetParallelism(perfNumThreads)

			b.ResetTimer()

			b.RunParallel(func(pb *testing.PB) {
				counter := 0
				for pb.Next() {
					start := time.Now()
					err := op(getKey(counter), counter)
					timer.UpdateSince(start)
					if err != nil {
						log.Printf("(%s) - operation error: %v\n", name, err)
					}
					counter++
				}
			})
		})

		result := perfResult{bench: bench, latency: timer}
		results[name] = result
		printResult(name, result)
	}

	// set: write a small value
	runPerfTest("set", nil, func(key string, _ int) error {
		return remoteHost.SetItem(handle, key, "test")
	})

	// set-large: write a value of the configured size
	largeValue := strings.Repeat("x", perfLargeValueSizeKB*1024)
	runPerfTest("set-large", nil, func(key string, _ int) error {
		return remoteHost.SetItem(handle, key, largeValue)
	})

	// get: read keys that exist
	runPerfTest("get", func(_ func(int) string, iter func(func(string))) {
		iter(func(k string) {
			if err := remoteHost.SetItem(handle, k, "test"); err != nil {
				log.Printf("(get) - error setting key: %v\n", err)
			}
		})
	}, func(key string, _ int) error {
		_, _, err := remoteHost.GetItem(handle, key)
		return err
	})

	// get-not: read keys that do not exist
	runPerfTest("get-not", nil, func(_ string, counter int) error {
		key := fmt.Sprintf("%s/get-not-%d", perfKeyPrefix, counter%100)
		_, _, err := remoteHost.GetItem(handle, key)
		return err
	})

	// keys: list all keys with the benchmark prefix
	runPerfTest("keys", func(_ func(int) string, iter func(func(string))) {
		iter(func(k string) {
			if err := remoteHost.SetItem(handle, k, "test"); err != nil {
				log.Printf("(keys) - error setting key: %v\n", err)
			}
		})
	}, func(_ string, _ int) error {
		_, err := remoteHost.GetKeys(handle, perfKeyPrefix)
		return err
	})

	// delete: remove keys (re-set on the fly so there is always work)
	runPerfTest("delete", func(_ func(int) string, iter func(func(string))) {
		iter(func(k string) {
			if err := remoteHost.SetItem(handle, k, "test"); err != nil {
				log.Printf("(delete) - error setting key: %v\n", err)
			}
		})
	}, func(key string, _ int) error {
		return remoteHost.RemoveItem(handle, key)
	})

	// mixed: alternate between set, get, delete and keys
	runPerfTest("mixed", func(_ func(int) string, iter func(func(string))) {
		iter(func(k string) {
			if err := remoteHost.SetItem(handle, k, "test"); err != nil {
				log.Printf("(mixed) - error setting key: %v\n", err)
			}
		})
	}, func(key string, counter int) error {
		switch counter % 4 {
		case 0:
			return remoteHost.SetItem(handle, key, "test")
		case 1:
			_, _, err := remoteHost.GetItem(handle, key)
			return err
		case 2:
			return remoteHost.RemoveItem(handle, key)
		default:
			_, err := remoteHost.GetKeys(handle, perfKeyPrefix)
			return err
		}
	})

	// Write results to csv if specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results, util.GetClientConfig()); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == skip {
			return true
		}
	}
	return false
}

// creates an array of test keys and functions to work with them
func getKeys(prefix string) (func(int) string, func(func(string))) {
	keys := make([]string, perfKeySpread)
	for i := 0; i < perfKeySpread; i++ {
		keys[i] = fmt.Sprintf("%s-%s-%d", perfKeyPrefix, prefix, i)
	}

	// Function to get a key by index (with wraparound)
	getKey := func(i int) string {
		return keys[i%perfKeySpread]
	}

	// Function to iterate over all keys and apply a function to each
	iterateKeys := func(fn func(string)) {
		for _, key := range keys {
			fn(key)
		}
	}

	return getKey, iterateKeys
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result perfResult) {
	if result.bench.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.bench.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	snap := result.latency.Snapshot()
	ps := snap.Percentiles([]float64{0.5, 0.95, 0.99})

	// Print the formatted result
	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\tp50=%s p95=%s p99=%s\n",
		test, nsPerOp, time.Duration(nsPerOp), opsPerSec,
		time.Duration(ps[0]), time.Duration(ps[1]), time.Duration(ps[2]))
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]perfResult, config *common.ClientConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "P50Ns", "P95Ns", "P99Ns", "Skipped",
		"Endpoints", "TimeoutSec", "RetryCount", "ConnectionsPerEndpoint",
		"Serializer", "Transport",
		"Threads", "LargeValueSizeKB", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for test, result := range results {
		var nsPerOp float64
		var opsPerSec float64
		var skipped string

		if result.bench.NsPerOp() == 0 {
			skipped = "true"
			nsPerOp = 0
			opsPerSec = 0
		} else {
			skipped = "false"
			nsPerOp = math.Max(float64(result.bench.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		snap := result.latency.Snapshot()
		ps := snap.Percentiles([]float64{0.5, 0.95, 0.99})

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			fmt.Sprintf("%.0f", ps[0]),
			fmt.Sprintf("%.0f", ps[1]),
			fmt.Sprintf("%.0f", ps[2]),
			skipped,
			strings.Join(config.Endpoints, ";"),
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(config.RetryCount),
			strconv.Itoa(config.ConnectionsPerEndpoint),
			viper.GetString("serializer"),
			viper.GetString("transport"),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfLargeValueSizeKB),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}

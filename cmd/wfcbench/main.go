package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/Le-Vincent56/Procedural-Generation/internal/wfc"
)

func main() {
	catalogFile := flag.String("catalog", "data/catalogs/dungeon.yaml", "Path to catalog YAML file")
	width := flag.Int("width", 16, "Grid width")
	depth := flag.Int("depth", 16, "Grid depth")
	runs := flag.Int("runs", 50, "Number of solves to run")
	startSeed := flag.Int64("seed", 1, "Seed of the first run; later runs use consecutive seeds")
	backtracking := flag.Bool("backtracking", true, "Recover from contradictions by restoring snapshots")
	maxBacktracks := flag.Int("max-backtracks", 32, "Snapshot restore budget")
	propagate := flag.Bool("propagate", true, "Propagate constraints after each collapse")
	verbose := flag.Bool("v", false, "Verbose output - show one line per run")
	flag.Parse()

	if *runs < 1 {
		fmt.Fprintln(os.Stderr, "Error: -runs must be at least 1")
		os.Exit(1)
	}

	catalog, err := wfc.LoadCatalog(*catalogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading catalog: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Benchmarking catalog %q: %d runs of %dx%d, seeds %d..%d\n",
		catalog.Name(), *runs, *width, *depth, *startSeed, *startSeed+int64(*runs)-1)
	fmt.Println()

	var (
		complete, failed                      int
		collapses, contradictions, backtracks int64
		elapsed                               []float64
	)

	for i := 0; i < *runs; i++ {
		seed := *startSeed + int64(i)
		opts := wfc.Options{
			Width:                *width,
			Depth:                *depth,
			Seed:                 seed,
			UseBacktracking:      *backtracking,
			MaxBacktracks:        *maxBacktracks,
			PropagateImmediately: *propagate,
		}

		solver, err := wfc.NewSolver(catalog, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error building solver: %v\n", err)
			os.Exit(1)
		}
		result, err := solver.Solve(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error on seed %d: %v\n", seed, err)
			os.Exit(1)
		}

		if result.Outcome == wfc.OutcomeComplete {
			complete++
		} else {
			failed++
		}
		collapses += int64(result.Stats.Collapses)
		contradictions += int64(result.Stats.Contradictions)
		backtracks += int64(result.Stats.Backtracks)
		elapsed = append(elapsed, float64(result.Stats.ElapsedMS))

		if *verbose {
			fmt.Printf("seed %-8d %-8s collapses=%-5d contradictions=%-4d backtracks=%-4d elapsed=%dms checksum=%s\n",
				seed, result.Outcome, result.Stats.Collapses, result.Stats.Contradictions,
				result.Stats.Backtracks, result.Stats.ElapsedMS, result.Checksum)
		}
	}

	if *verbose {
		fmt.Println()
	}

	total := float64(*runs)
	fmt.Println("Outcomes:")
	fmt.Printf("  complete: %d (%.1f%%)\n", complete, 100*float64(complete)/total)
	fmt.Printf("  failed:   %d (%.1f%%)\n", failed, 100*float64(failed)/total)

	fmt.Println("Counters (total / mean per run):")
	fmt.Printf("  collapses:      %d / %.1f\n", collapses, float64(collapses)/total)
	fmt.Printf("  contradictions: %d / %.1f\n", contradictions, float64(contradictions)/total)
	fmt.Printf("  backtracks:     %d / %.1f\n", backtracks, float64(backtracks)/total)

	sort.Float64s(elapsed)
	fmt.Println("Elapsed (ms):")
	fmt.Printf("  min=%.0f p50=%.0f p90=%.0f max=%.0f mean=%.1f\n",
		elapsed[0], percentile(elapsed, 0.50), percentile(elapsed, 0.90),
		elapsed[len(elapsed)-1], mean(elapsed))
}

// percentile reads the q-quantile from an ascending-sorted slice.
func percentile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)-1)*q + 0.5)
	return sorted[idx]
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

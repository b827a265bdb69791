// Command run_benchmarks runs the SIPP/LNS solver over every instance file
// in a directory and collects per-run metrics into a CSV report.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/elektrokombinacija/mapf-sipp/internal/instanceio"
	"github.com/elektrokombinacija/mapf-sipp/internal/lns"
)

// BenchmarkResult is one row of the output CSV.
type BenchmarkResult struct {
	Timestamp      string
	CommitHash     string
	GoVersion      string
	OS, Arch       string
	Instance       string
	NumAgents      int
	GridSize       string
	InitDestroy    string
	RuntimeMs      float64
	Solved         bool
	SumOfCosts     int
	CollidingPairs int
	NumFailures    int
	NumLLGenerated int
}

func getGitCommit() string {
	out, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(out))
}

func runOne(path string, destroy lns.DestroyHeuristic, timeLimit time.Duration, seed int64) (*BenchmarkResult, error) {
	inst, agents, err := instanceio.Load(path)
	if err != nil {
		return nil, err
	}

	driver := lns.New(inst, agents, lns.Config{
		NeighborSize:    8,
		TimeLimit:       timeLimit,
		ReplanTimeLimit: timeLimit / 4,
		Fixed:           destroy,
		DecayFactor:     0.01,
		ReactionFactor:  0.01,
	}, rand.New(rand.NewSource(seed)))

	result := &BenchmarkResult{
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		CommitHash:  getGitCommit(),
		GoVersion:   runtime.Version(),
		OS:          runtime.GOOS,
		Arch:        runtime.GOARCH,
		Instance:    filepath.Base(path),
		NumAgents:   len(agents),
		GridSize:    fmt.Sprintf("%dx%d", inst.NumRows, inst.NumCols),
		InitDestroy: destroy.String(),
	}

	start := time.Now()
	if err := driver.GetInitialSolution(nil); err != nil {
		result.RuntimeMs = float64(time.Since(start).Microseconds()) / 1000.0
		return result, nil
	}
	driver.Run(nil, start.Add(timeLimit))
	result.RuntimeMs = float64(time.Since(start).Microseconds()) / 1000.0
	result.SumOfCosts = driver.SumOfCosts
	result.CollidingPairs = driver.NumCollidingPairs
	result.NumFailures = driver.NumOfFailures
	result.NumLLGenerated = driver.NumLLGenerated
	result.Solved = driver.NumCollidingPairs == 0
	return result, nil
}

func writeCSV(results []*BenchmarkResult, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	header := []string{"timestamp", "commit_hash", "go_version", "os", "arch", "instance",
		"num_agents", "grid_size", "init_destroy", "runtime_ms", "solved",
		"sum_of_costs", "colliding_pairs", "num_failures", "num_ll_generated"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range results {
		row := []string{
			r.Timestamp, r.CommitHash, r.GoVersion, r.OS, r.Arch, r.Instance,
			strconv.Itoa(r.NumAgents), r.GridSize, r.InitDestroy,
			strconv.FormatFloat(r.RuntimeMs, 'f', 3, 64), strconv.FormatBool(r.Solved),
			strconv.Itoa(r.SumOfCosts), strconv.Itoa(r.CollidingPairs),
			strconv.Itoa(r.NumFailures), strconv.Itoa(r.NumLLGenerated),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

func main() {
	var (
		instDir   = flag.String("instances", "instances", "directory of instance JSON files")
		outPath   = flag.String("out", "benchmark_results.csv", "output CSV path")
		timeLimit = flag.Duration("time-limit", 30*time.Second, "per-instance time limit")
		seed      = flag.Int64("seed", 1, "random seed")
	)
	flag.Parse()

	entries, err := os.ReadDir(*instDir)
	if err != nil {
		log.Fatalf("run_benchmarks: %v", err)
	}

	var results []*BenchmarkResult
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		path := filepath.Join(*instDir, e.Name())
		for _, destroy := range []lns.DestroyHeuristic{lns.CollisionBased, lns.TargetBased} {
			r, err := runOne(path, destroy, *timeLimit, *seed)
			if err != nil {
				log.Printf("run_benchmarks: %s: %v", path, err)
				continue
			}
			results = append(results, r)
			fmt.Printf("%s [%s]: solved=%v cost=%d colliding=%d\n", r.Instance, r.InitDestroy, r.Solved, r.SumOfCosts, r.CollidingPairs)
		}
	}

	if err := writeCSV(results, *outPath); err != nil {
		log.Fatalf("run_benchmarks: writing %s: %v", *outPath, err)
	}
}

// Command mapfsipp runs the SIPP/LNS multi-agent path finder over a grid
// instance file and writes the iteration-stats, result, and paths output
// files.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/elektrokombinacija/mapf-sipp/internal/config"
	"github.com/elektrokombinacija/mapf-sipp/internal/instanceio"
	"github.com/elektrokombinacija/mapf-sipp/internal/lns"
	"github.com/elektrokombinacija/mapf-sipp/internal/logging"
)

var (
	configPath string
	instPath   string
	outDir     string
)

func main() {
	root := &cobra.Command{
		Use:   "mapfsipp",
		Short: "Solve a multi-agent path finding instance with SIPP + adaptive LNS",
		RunE:  run,
	}
	root.Flags().StringVar(&configPath, "config", "", "path to a YAML/JSON/TOML config file")
	root.Flags().StringVar(&instPath, "instance", "", "path to the grid instance file (required)")
	root.Flags().StringVar(&outDir, "out", ".", "directory to write iteration-stats/result/paths files into")
	if err := root.MarkFlagRequired("instance"); err != nil {
		panic(err)
	}

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := logging.New(cfg.Screen)
	if err != nil {
		return err
	}
	defer logger.Sync()

	runID := uuid.NewString()
	logger.Info("starting run", zap.String("run_id", runID), zap.String("instance", instPath))

	inst, agents, err := instanceio.Load(instPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	driver := lns.New(inst, agents, lns.Config{
		NeighborSize:    cfg.NeighborSize,
		TimeLimit:       cfg.TimeLimit,
		ReplanTimeLimit: cfg.TimeLimit / 4,
		ALNS:            cfg.InitDestroy == config.DestroyAdaptive,
		Fixed:           destroyHeuristicFor(cfg.InitDestroy),
		DecayFactor:     0.01,
		ReactionFactor:  0.01,
	}, rng)

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), cfg.TimeLimit)
	defer cancel()

	if err := driver.GetInitialSolution(ctx); err != nil {
		logger.Error("initial solution failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger.Info("initial solution found",
		zap.Int("sum_of_costs", driver.InitialSumOfCosts),
		zap.Int("colliding_pairs", driver.NumCollidingPairs))

	driver.Run(ctx, start.Add(cfg.TimeLimit))

	if err := driver.ValidateSolution(); err != nil {
		logger.Error("invariant violation", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := writeOutputs(driver, instPath, runID, time.Since(start)); err != nil {
		return err
	}

	if driver.NumCollidingPairs == 0 {
		logger.Info("solved", zap.Int("sum_of_costs", driver.SumOfCosts))
		return nil
	}
	logger.Warn("time budget exhausted with residual collisions",
		zap.Int("colliding_pairs", driver.NumCollidingPairs))
	os.Exit(1)
	return nil
}

func destroyHeuristicFor(d config.InitDestroy) lns.DestroyHeuristic {
	if d == config.DestroyTarget {
		return lns.TargetBased
	}
	return lns.CollisionBased
}

// writeOutputs creates outDir/runID and writes the three flat files into
// it, so concurrent or repeated runs against the same outDir never collide
// with each other's reports.
func writeOutputs(driver *lns.Driver, instPath, runID string, runtime time.Duration) error {
	runDir := filepath.Join(outDir, runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return err
	}

	statsPath := filepath.Join(runDir, "iteration_stats.csv")
	statsFile, err := os.Create(statsPath)
	if err != nil {
		return err
	}
	defer statsFile.Close()
	if err := driver.WriteIterationStats(statsFile); err != nil {
		return err
	}

	resultPath := filepath.Join(runDir, "result.csv")
	resultFile, err := os.Create(resultPath)
	if err != nil {
		return err
	}
	defer resultFile.Close()
	if err := driver.WriteResult(resultFile, "InitLNS(PP;PP)", instPath, runtime.Seconds()); err != nil {
		return err
	}

	pathsPath := filepath.Join(runDir, "paths.txt")
	pathsFile, err := os.Create(pathsPath)
	if err != nil {
		return err
	}
	defer pathsFile.Close()
	return driver.WritePaths(pathsFile)
}

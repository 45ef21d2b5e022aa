// Command rbd-sim evaluates a reliability block diagram described in a YAML
// model file and prints its MTTF and reliability curve.
//
// Settings come from RBD_* environment variables; flags override them.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dd0wney/cluso-rbd/pkg/config"
	"github.com/dd0wney/cluso-rbd/pkg/logging"
	"github.com/dd0wney/cluso-rbd/pkg/metrics"
	"github.com/dd0wney/cluso-rbd/pkg/model"
	"github.com/dd0wney/cluso-rbd/pkg/rbd"
)

func main() {
	startTime := time.Now()

	cfg, err := config.LoadConfigFromEnv()
	if err != nil {
		log.Fatalf("Invalid environment configuration: %v", err)
	}

	var (
		modelFile  = flag.String("model", "", "YAML model file (required)")
		trials     = flag.Int("trials", cfg.Trials, "Number of Monte Carlo trials")
		seed       = flag.Uint64("seed", cfg.Seed, "Random seed")
		workers    = flag.Int("workers", cfg.Workers, "Worker goroutines (0: GOMAXPROCS)")
		tolerance  = flag.Float64("tolerance", cfg.Tolerance, "Relative MTTF half-width tolerance (0: off)")
		gridEnd    = flag.Float64("grid-end", cfg.GridEnd, "Last time point of the reliability curve")
		gridPoints = flag.Int("grid-points", cfg.GridPoints, "Number of reliability curve points")
		timeout    = flag.Duration("timeout", cfg.Timeout, "Cancel the run after this long (0: none)")
		logLevel   = flag.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
		cutOrder   = flag.Int("cuts", 0, "Also list minimal cut sets up to this size (0: skip)")
		jsonOut    = flag.Bool("json", false, "Print the result as JSON instead of a summary")
		metricsOut = flag.String("metrics-out", "", "Write Prometheus metrics to this file")
	)
	flag.Parse()

	if *modelFile == "" {
		log.Fatal("--model is required")
	}

	cfg.Trials = *trials
	cfg.Seed = *seed
	cfg.Workers = *workers
	cfg.Tolerance = *tolerance
	cfg.GridEnd = *gridEnd
	cfg.GridPoints = *gridPoints
	cfg.Timeout = *timeout
	cfg.LogLevel = *logLevel
	cfg.MetricsEnabled = cfg.MetricsEnabled || *metricsOut != ""
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logging.NewJSONLogger(os.Stderr, logging.ParseLevel(cfg.LogLevel))
	logging.SetDefaultLogger(logger)

	doc, err := model.Load(*modelFile)
	if err != nil {
		log.Fatalf("Failed to load model: %v", err)
	}

	var registry *metrics.Registry
	opts := []rbd.SystemOption{rbd.WithLogger(logger)}
	if cfg.MetricsEnabled {
		registry = metrics.NewRegistry()
		opts = append(opts, rbd.WithMetrics(registry))
	}

	sys, err := doc.Build(opts...)
	if err != nil {
		log.Fatalf("Failed to build model: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	res, runErr := sys.MonteCarlo(ctx, cfg.Options(logger, nil))
	if runErr != nil && res == nil {
		log.Fatalf("Simulation failed: %v", runErr)
	}

	var cuts [][]string
	if *cutOrder > 0 {
		if cuts, err = sys.MinimalCuts(*cutOrder); err != nil {
			log.Fatalf("Failed to enumerate cut sets: %v", err)
		}
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(newReport(res, cuts)); err != nil {
			log.Fatalf("Failed to encode result: %v", err)
		}
	} else {
		fmt.Println(renderSummary(res, cuts))
	}

	if registry != nil {
		registry.UpdateSystemMetrics(startTime)
		if *metricsOut != "" {
			if err := prometheus.WriteToTextfile(*metricsOut, registry.GetPrometheusRegistry()); err != nil {
				log.Fatalf("Failed to write metrics: %v", err)
			}
		}
	}

	if runErr != nil {
		if errors.Is(runErr, context.DeadlineExceeded) {
			log.Printf("Run stopped after %v with %d of %d trials", cfg.Timeout, res.Trials, res.Requested)
		}
		os.Exit(1)
	}
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/danmuck/qpuctl/internal/catalog"
	"github.com/danmuck/qpuctl/internal/circuit"
	"github.com/danmuck/qpuctl/internal/config"
	"github.com/danmuck/qpuctl/internal/credentials"
	"github.com/danmuck/qpuctl/internal/job"
	"github.com/danmuck/qpuctl/internal/logging"
	"github.com/danmuck/qpuctl/internal/observability"
	"github.com/danmuck/qpuctl/internal/report"
	"github.com/danmuck/qpuctl/internal/results"
	"github.com/danmuck/qpuctl/internal/runtime"
	"github.com/danmuck/qpuctl/internal/selector"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type options struct {
	mode        string
	configPath  string
	jobID       string
	metricsAddr string
}

func main() {
	logging.ConfigureRuntime()

	var opts options
	flag.StringVar(&opts.mode, "mode", "run", "mode: run | retrieve | backends")
	flag.StringVar(&opts.configPath, "config", "", "tool config path (TOML)")
	flag.StringVar(&opts.jobID, "job", "", "job id (retrieve mode)")
	flag.StringVar(&opts.metricsAddr, "metrics-addr", "", "prometheus listen address (overrides config)")
	flag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "qpuctl: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	cfg, err := loadToolConfig(opts.configPath)
	if err != nil {
		return err
	}
	if strings.TrimSpace(opts.metricsAddr) != "" {
		cfg.MetricsAddr = opts.metricsAddr
	}
	if cfg.MetricsAddr != "" {
		serveMetrics(cfg.MetricsAddr)
	}

	creds, err := credentials.Load(cfg.SecretsPath)
	if err != nil {
		return err
	}

	// SIGINT detaches from a running wait; the remote job keeps running.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := runtime.Connect(ctx, creds, cfg.Runtime)
	if err != nil {
		return err
	}

	switch opts.mode {
	case "run":
		return runExperiment(ctx, client, cfg)
	case "retrieve":
		if strings.TrimSpace(opts.jobID) == "" {
			return fmt.Errorf("retrieve mode requires -job <id>")
		}
		return retrieveJob(ctx, client, cfg, opts.jobID)
	case "backends":
		_, err := catalog.ListHardware(ctx, client, log.Logger)
		return err
	default:
		return fmt.Errorf("unknown mode %q (expected run, retrieve, or backends)", opts.mode)
	}
}

func runExperiment(ctx context.Context, client *runtime.Client, cfg toolConfig) error {
	jobCfg, err := loadJobConfig(cfg.JobConfigPath)
	if err != nil {
		return err
	}
	log.Info().
		Int("shots", jobCfg.Shots).
		Int("optimization_level", jobCfg.OptimizationLevel).
		Strs("preferred_qpus", jobCfg.PreferredQPUs).
		Msg("job configuration loaded")

	backend, err := selector.PickBackend(ctx, client, jobCfg.PreferredQPUs, jobCfg.MinQubits)
	if err != nil {
		return err
	}

	grover := circuit.Grover2Bit()
	info := grover.Summary()
	log.Info().
		Str("circuit", info.Name).
		Int("qubits", info.Qubits).
		Int("operations", info.Operations).
		Interface("gates", info.GateCounts).
		Msg("circuit built")

	jobID, hist, err := job.Run(ctx, client, backend.Name, runtime.JobSpec{
		Program:           grover.Program(),
		Shots:             jobCfg.Shots,
		OptimizationLevel: jobCfg.OptimizationLevel,
	})
	if err != nil {
		if job.Abandoned(err) {
			log.Warn().
				Str("job_id", jobID).
				Msg("wait interrupted; rerun with -mode retrieve -job <id> once the job completes")
			return nil
		}
		return err
	}

	return finish(hist, backend.Name, jobID, jobCfg, cfg)
}

func retrieveJob(ctx context.Context, client *runtime.Client, cfg toolConfig, jobID string) error {
	jobCfg, err := loadJobConfig(cfg.JobConfigPath)
	if err != nil {
		return err
	}

	hist, ok, err := job.Retrieve(ctx, client, jobID)
	if err != nil {
		return err
	}
	if !ok {
		// not an error: the job is still in flight
		return nil
	}
	return finish(hist, "(retrieved)", jobID, jobCfg, cfg)
}

func finish(hist runtime.Histogram, backend, jobID string, jobCfg config.JobConfig, cfg toolConfig) error {
	rep, err := report.Analyze(hist, backend, jobCfg.ExpectedState)
	if err != nil {
		return err
	}
	if err := rep.Render(os.Stdout); err != nil {
		return err
	}

	store := results.Store{Dir: cfg.ResultsDir}
	path, err := store.Write(results.Record{
		JobID:         jobID,
		Backend:       backend,
		Counts:        hist,
		Fidelity:      rep.Fidelity,
		TotalShots:    rep.TotalShots,
		ExpectedState: jobCfg.ExpectedState,
	})
	if err != nil {
		return err
	}
	log.Info().Str("job_id", jobID).Str("path", path).Msg("result record saved")
	return nil
}

// loadJobConfig falls back to defaults when no job config file exists.
func loadJobConfig(path string) (config.JobConfig, error) {
	if strings.TrimSpace(path) == "" {
		return config.DefaultJobConfig(), nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		log.Debug().Str("path", path).Msg("no job config file, using defaults")
		return config.DefaultJobConfig(), nil
	}
	return config.LoadJobConfig(path)
}

func serveMetrics(addr string) {
	observability.RegisterMetrics()
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Warn().Err(err).Str("addr", addr).Msg("metrics listener stopped")
		}
	}()
	log.Info().Str("addr", addr).Msg("metrics listener started")
}

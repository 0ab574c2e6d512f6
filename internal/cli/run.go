package cli

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/xlandscape/catchflow/internal/config"
	"github.com/xlandscape/catchflow/internal/driver"
	"github.com/xlandscape/catchflow/internal/ioload"
	"github.com/xlandscape/catchflow/internal/priority"
	"github.com/xlandscape/catchflow/internal/report"
	"github.com/xlandscape/catchflow/internal/schedule"
	"github.com/xlandscape/catchflow/internal/telemetry"
	"github.com/xlandscape/catchflow/internal/trace"
)

type runOptions struct {
	configPath string
	reachPath  string
	reportPath string
	tracePath  string
	solverPath string
	workDir    string
	nWorkers   int
	debug      bool
}

func newRunCommand() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a catchment to completion",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.configPath, "config", "", "Path to a YAML scheduler configuration file (optional).")
	cmd.Flags().StringVar(&opts.reachPath, "reaches", "", "Path to the reach table YAML file. Required.")
	cmd.Flags().StringVar(&opts.reportPath, "report", "", "Path to write the aggregate completion report JSON (optional).")
	cmd.Flags().StringVar(&opts.tracePath, "trace", "", "Path to write a canonical, worker-count-independent scheduling trace JSON (optional).")
	cmd.Flags().StringVar(&opts.solverPath, "solver", "", "Path to the external solver executable (empty runs a no-op solver).")
	cmd.Flags().StringVar(&opts.workDir, "workdir", "", "Overrides the configuration's working directory.")
	cmd.Flags().IntVar(&opts.nWorkers, "workers", 0, "Overrides the configuration's worker count (0 = use config value).")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable development-mode logging.")
	return cmd
}

func runRun(ctx context.Context, opts *runOptions) error {
	if strings.TrimSpace(opts.reachPath) == "" {
		return invalidInvocationf("--reaches is required")
	}

	// Flag overrides are applied as environment variables before Load so
	// that Load's own validation already sees the effective values (it
	// would otherwise reject, say, an unset file-level workDir that a
	// --workdir flag was about to supply).
	if opts.workDir != "" {
		os.Setenv("CATCHFLOW_WORKDIR", opts.workDir)
	}
	if opts.nWorkers > 0 {
		os.Setenv("CATCHFLOW_NWORKERS", fmt.Sprintf("%d", opts.nWorkers))
	}
	if opts.solverPath != "" {
		os.Setenv("CATCHFLOW_SOLVERPATH", opts.solverPath)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return configErrorf("%v", err)
	}

	table, err := ioload.LoadReachTable(opts.reachPath)
	if err != nil {
		return configErrorf("%v", err)
	}
	catch, err := ioload.BuildCatchment(table)
	if err != nil {
		return configErrorf("%v", err)
	}

	prio := priority.Compute(catch)

	d, err := driver.NewReferenceDriver(cfg.DriverConfig(), cfg.SolverPath)
	if err != nil {
		return configErrorf("%v", err)
	}

	logger := telemetry.NewLogger(opts.debug)
	defer logger.Sync()
	metrics := telemetry.NewMetrics()

	var recorder *trace.Recorder
	if opts.tracePath != "" {
		recorder = trace.NewRecorder()
	}
	obs := &telemetry.Observer{Logger: logger, Metrics: metrics, Trace: recorder}

	sched := &schedule.Scheduler{
		Catchment: catch,
		Priority:  prio,
		Driver:    d,
		NWorkers:  cfg.NWorkers,
		Logger:    logger,
		Observer:  obs,
	}

	start := time.Now()
	res, err := sched.Run(ctx)
	end := time.Now()
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	agg := report.Build(catch, res, start, end)
	if opts.reportPath != "" {
		if err := report.WriteJSON(opts.reportPath, agg); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
	} else {
		fmt.Fprintf(os.Stdout, "completed=%d failed=%d\n", agg.CompletedCount, agg.FailedCount)
	}

	if recorder != nil {
		tr := recorder.Trace(catchmentHash(catch.DOTGraph()))
		data, err := tr.CanonicalJSON()
		if err != nil {
			return fmt.Errorf("building trace: %w", err)
		}
		if err := os.WriteFile(opts.tracePath, data, 0644); err != nil {
			return fmt.Errorf("writing trace: %w", err)
		}
	}

	if agg.FailedCount > 0 {
		return &InvocationError{ExitCode: ExitRunFailure, Message: fmt.Sprintf("run completed with %d failed reach(es): %s", agg.FailedCount, strings.Join(agg.FailedList, ", "))}
	}
	return nil
}

// catchmentHash derives a stable identity for the catchment from its DOT
// rendering, which carries the topology and each reach's final state, so
// two runs over the same reach table that end in the same states (even at
// different worker counts) tag their trace with the same hash.
func catchmentHash(dot string) string {
	sum := sha256.Sum256([]byte(dot))
	return hex.EncodeToString(sum[:])
}

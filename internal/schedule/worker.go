package schedule

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xlandscape/catchflow/internal/catchment"
	"github.com/xlandscape/catchflow/internal/driver"
)

// ExecuteCommand runs one command against d and builds its report. It is
// the single execution path shared by the serial scheduler (called
// inline) and every parallel Worker goroutine, guaranteeing the two modes
// produce identical per-reach results.
func ExecuteCommand(ctx context.Context, workerID int, d driver.Driver, cmd Command) ReachReport {
	start := time.Now()

	var status catchment.ReportStatus
	var drvReport driver.Report
	var err error

	switch cmd.Action {
	case catchment.ActionInit:
		status, err = d.Init(ctx, cmd.Snapshot)
	case catchment.ActionRun:
		drvReport, err = d.Run(ctx, cmd.Snapshot)
		status = drvReport.Status
	case catchment.ActionCleanup:
		status, err = d.Cleanup(ctx, cmd.Snapshot)
	}

	return ReachReport{
		ReachID:   cmd.Snapshot.ID,
		Action:    cmd.Action,
		Status:    status,
		WorkerID:  workerID,
		StartTime: start,
		EndTime:   time.Now(),
		Driver:    drvReport,
		Err:       err,
	}
}

// Worker is the parallel variant: a long-running cooperative loop popping
// one command at a time from Commands, executing it, and pushing the
// resulting report to Reports, until it pops a Stop command.
type Worker struct {
	ID       int
	Driver   driver.Driver
	Commands *CommandQueue
	Reports  *ReportChannel
	Logger   *zap.Logger
	IdleTime time.Duration
}

// Run executes the worker's cooperative loop until a Stop command is
// popped or ctx is found done after a command. ctx is checked only
// between commands: a worker blocked in Pop keeps waiting for the next
// command. In-flight work always completes before exit.
func (w *Worker) Run(ctx context.Context) {
	for {
		popStart := time.Now()
		cmd := w.Commands.Pop()
		w.IdleTime += time.Since(popStart)

		if cmd.Action == catchment.ActionStop {
			if w.Logger != nil {
				w.Logger.Debug("worker stopping", zap.Int("workerID", w.ID), zap.Duration("idleTime", w.IdleTime))
			}
			return
		}

		if w.Logger != nil {
			w.Logger.Debug("worker dispatching",
				zap.Int("workerID", w.ID),
				zap.String("reachID", string(cmd.Snapshot.ID)),
				zap.String("action", string(cmd.Action)),
			)
		}

		rep := ExecuteCommand(ctx, w.ID, w.Driver, cmd)
		w.Reports.Send(rep)

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

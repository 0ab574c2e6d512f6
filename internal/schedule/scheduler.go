package schedule

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xlandscape/catchflow/internal/catchment"
	"github.com/xlandscape/catchflow/internal/driver"
)

// Observer receives scheduling events for diagnostics (structured
// logging, metrics). Both methods must return quickly; Scheduler calls
// them synchronously from its single coordinator goroutine.
type Observer interface {
	OnDispatch(action catchment.Action, reachID catchment.ReachID)
	OnReport(rep ReachReport)
}

// NopObserver implements Observer with no-ops.
type NopObserver struct{}

func (NopObserver) OnDispatch(catchment.Action, catchment.ReachID) {}
func (NopObserver) OnReport(ReachReport)                           {}

// Result is the scheduler's final account of one run.
type Result struct {
	CompletedCount int
	FailedList     []catchment.ReachID
	Reports        []ReachReport
}

// Scheduler seeds the command queue, advances the catchment's state
// machine as reports arrive, and terminates workers once the catchment
// is done. NWorkers == 1 runs in serial mode (the coordinator is also
// the sole worker, invoked inline); NWorkers >= 2 runs a pool of worker
// goroutines coordinated through a ReportChannel. Both modes share
// ExecuteCommand, so they produce identical per-reach results.
type Scheduler struct {
	Catchment *catchment.Catchment
	Priority  map[catchment.ReachID]int
	Driver    driver.Driver
	NWorkers  int
	Logger    *zap.Logger
	Observer  Observer
}

// Run drives the catchment to completion and returns the aggregate
// result, or an InfrastructureError if the scheduling machinery itself
// failed (a worker crash, a report that cannot be applied to the
// catchment). A node that cannot be dispatched is skipped, not reported.
func (s *Scheduler) Run(ctx context.Context) (*Result, error) {
	if s.NWorkers < 1 {
		return nil, &InfrastructureError{Msg: "nWorkers must be >= 1"}
	}
	obs := s.Observer
	if obs == nil {
		obs = NopObserver{}
	}

	commands := NewCommandQueue()
	parallel := s.NWorkers > 1

	var group *errgroup.Group
	var reports *ReportChannel
	if parallel {
		reports = NewReportChannel()
		var gctx context.Context
		group, gctx = errgroup.WithContext(ctx)
		for i := 0; i < s.NWorkers; i++ {
			workerID := i
			group.Go(func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						err = &InfrastructureError{Msg: fmt.Sprintf("worker %d panicked: %v", workerID, r)}
					}
				}()
				w := &Worker{ID: workerID, Driver: s.Driver, Commands: commands, Reports: reports, Logger: s.Logger}
				w.Run(gctx)
				return nil
			})
		}
		// If any worker returns an error, unblock the coordinator's
		// Receive immediately rather than leaving it waiting for a
		// report that will never arrive.
		go func() {
			if err := group.Wait(); err != nil {
				reports.Close()
			}
		}()
	}

	popReport := func() (ReachReport, bool) {
		if parallel {
			return reports.Receive()
		}
		cmd := commands.Pop()
		if cmd.Action == catchment.ActionStop {
			return ReachReport{}, false
		}
		return ExecuteCommand(ctx, 0, s.Driver, cmd), true
	}

	var allReports []ReachReport

	// Phase 1: init barrier. Reports from this phase do not drive the
	// catchment's state machine; they only prepare per-reach local files
	// and do not depend on sibling state.
	ids := s.Catchment.ReachIDs()
	for _, id := range ids {
		snap, _ := s.Catchment.Snapshot(id)
		commands.Push(Command{Priority: s.Priority[id], Snapshot: snap, Action: catchment.ActionInit})
	}
	for i := 0; i < len(ids); i++ {
		rep, ok := popReport()
		if !ok {
			return nil, s.infrastructureFailure(parallel, group, "init barrier")
		}
		allReports = append(allReports, rep)
		obs.OnReport(rep)
	}

	// Phase 2: seed the run phase from whatever is already CanStart
	// (roots, and any node whose upstream requirement is vacuously true).
	s.dispatchEligible(commands, obs)

	// Event loop.
	for !s.Catchment.IsDone() {
		rep, ok := popReport()
		if !ok {
			return nil, s.infrastructureFailure(parallel, group, "event loop")
		}
		allReports = append(allReports, rep)
		obs.OnReport(rep)

		if err := s.Catchment.ReportResult(rep.ReachID, rep.Status); err != nil {
			return nil, &InfrastructureError{Msg: "applying report for " + string(rep.ReachID), Cause: err}
		}
		s.dispatchEligible(commands, obs)
	}

	// Shutdown.
	if parallel {
		for i := 0; i < s.NWorkers; i++ {
			commands.Push(Command{Action: catchment.ActionStop})
		}
		if err := group.Wait(); err != nil {
			return nil, err
		}
	}

	return &Result{
		CompletedCount: s.Catchment.CompletedCount(),
		FailedList:     s.Catchment.FailedList(),
		Reports:        allReports,
	}, nil
}

func (s *Scheduler) dispatchEligible(commands *CommandQueue, obs Observer) {
	for _, id := range s.Catchment.EligibleToStart() {
		snap, ok := s.Catchment.Snapshot(id)
		if !ok {
			continue
		}
		if err := s.Catchment.Dispatch(id, catchment.ActionRun); err != nil {
			continue
		}
		commands.Push(Command{Priority: s.Priority[id], Snapshot: snap, Action: catchment.ActionRun})
		obs.OnDispatch(catchment.ActionRun, id)
	}
	for _, id := range s.Catchment.EligibleToClean() {
		snap, ok := s.Catchment.Snapshot(id)
		if !ok {
			continue
		}
		if err := s.Catchment.Dispatch(id, catchment.ActionCleanup); err != nil {
			continue
		}
		commands.Push(Command{Priority: s.Priority[id], Snapshot: snap, Action: catchment.ActionCleanup})
		obs.OnDispatch(catchment.ActionCleanup, id)
	}
}

func (s *Scheduler) infrastructureFailure(parallel bool, group *errgroup.Group, where string) error {
	if parallel && group != nil {
		if err := group.Wait(); err != nil {
			return err
		}
	}
	return &InfrastructureError{Msg: "report channel closed unexpectedly during " + where}
}

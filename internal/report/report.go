// Package report persists the aggregate completion report a catchflow
// run produces: per-reach terminal state, timings, and catchment-wide
// counters, written via a temp-file-then-rename atomic write, trimmed to
// a single terminal summary since this domain's restart need is already
// served by the driver's own SkipExist detection.
package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/xlandscape/catchflow/internal/catchment"
	"github.com/xlandscape/catchflow/internal/schedule"
)

// ReachSummary is the final record for one reach.
type ReachSummary struct {
	ReachID       catchment.ReachID `json:"reachId"`
	FinalState    string            `json:"finalState"`
	Attempts      int               `json:"attempts,omitempty"`
	FinalTimeStep float64           `json:"finalTimeStep,omitempty"`
}

// AggregateReport is the run-level completion report exposed to the
// surrounding adapter: for each ReachID the final state and diagnostic
// counters, plus catchment-wide completedCount/failedCount.
type AggregateReport struct {
	RunID          string         `json:"runId"`
	StartTime      time.Time      `json:"startTime"`
	EndTime        time.Time      `json:"endTime"`
	CompletedCount int            `json:"completedCount"`
	FailedCount    int            `json:"failedCount"`
	FailedList     []string       `json:"failedList"`
	Reaches        []ReachSummary `json:"reaches"`
}

// Build assembles an AggregateReport from a Catchment's terminal state
// and a Scheduler Result's reports.
func Build(c *catchment.Catchment, res *schedule.Result, start, end time.Time) AggregateReport {
	lastRunReport := make(map[catchment.ReachID]schedule.ReachReport)
	for _, rep := range res.Reports {
		if rep.Action == catchment.ActionRun {
			lastRunReport[rep.ReachID] = rep
		}
	}

	ids := c.ReachIDs()
	summaries := make([]ReachSummary, 0, len(ids))
	for _, id := range ids {
		state, _ := c.State(id)
		summary := ReachSummary{ReachID: id, FinalState: state.String()}
		if rep, ok := lastRunReport[id]; ok {
			summary.Attempts = rep.Driver.Attempts
			summary.FinalTimeStep = rep.Driver.FinalTimeStep
		}
		summaries = append(summaries, summary)
	}

	failedIDs := c.FailedList()
	failed := make([]string, len(failedIDs))
	for i, id := range failedIDs {
		failed[i] = string(id)
	}
	sort.Strings(failed)

	return AggregateReport{
		RunID:          uuid.NewString(),
		StartTime:      start,
		EndTime:        end,
		CompletedCount: res.CompletedCount,
		FailedCount:    len(failed),
		FailedList:     failed,
		Reaches:        summaries,
	}
}

// WriteJSON atomically writes r as indented JSON to path: write to a
// sibling temp file, then rename into place, so a crash mid-write never
// leaves a truncated report on disk.
func WriteJSON(path string, r AggregateReport) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if committed {
			return
		}
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	_ = tmp.Sync()
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return nil
}

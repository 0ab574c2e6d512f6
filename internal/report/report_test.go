package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xlandscape/catchflow/internal/catchment"
	"github.com/xlandscape/catchflow/internal/schedule"
)

func TestBuildAndWriteJSON(t *testing.T) {
	c := catchment.NewCatchment()
	_ = c.AddReach("A", catchment.Attributes{HasDirectLoading: true}, nil)
	if err := c.Finalize(); err != nil {
		t.Fatal(err)
	}
	_ = c.Dispatch("A", catchment.ActionRun)
	_ = c.ReportResult("A", catchment.StatusOk)
	_ = c.Dispatch("A", catchment.ActionCleanup)
	_ = c.ReportResult("A", catchment.StatusOk)

	res := &schedule.Result{CompletedCount: 1, FailedList: nil, Reports: nil}
	start := time.Now()
	agg := Build(c, res, start, start.Add(time.Second))

	if agg.RunID == "" {
		t.Fatal("expected non-empty run id")
	}
	if agg.CompletedCount != 1 {
		t.Fatalf("expected completedCount 1, got %d", agg.CompletedCount)
	}
	if len(agg.Reaches) != 1 || agg.Reaches[0].FinalState != "Done" {
		t.Fatalf("expected reach A to be Done, got %+v", agg.Reaches)
	}

	path := filepath.Join(t.TempDir(), "report.json")
	if err := WriteJSON(path, agg); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var roundTrip AggregateReport
	if err := json.Unmarshal(data, &roundTrip); err != nil {
		t.Fatal(err)
	}
	if roundTrip.RunID != agg.RunID {
		t.Fatalf("round-trip mismatch: %q vs %q", roundTrip.RunID, agg.RunID)
	}
}

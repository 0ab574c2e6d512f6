package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/xlandscape/catchflow/internal/catchment"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		WorkDir:             t.TempDir(),
		TimeStepDefault:     1.0,
		TimeStepMin:         0.1,
		KeepOriginalOutputs: false,
	}
}

func loadedSnapshot(id catchment.ReachID) catchment.Snapshot {
	return catchment.Snapshot{ID: id, Skip: false, Attributes: catchment.Attributes{HasDirectLoading: true}}
}

func skippedSnapshot(id catchment.ReachID) catchment.Snapshot {
	return catchment.Snapshot{ID: id, Skip: true}
}

func TestReferenceDriverRejectsWhitespaceWorkDir(t *testing.T) {
	cfg := Config{WorkDir: "/tmp/has space"}
	if _, err := NewReferenceDriver(cfg, ""); err == nil {
		t.Fatal("expected error for whitespace in working directory")
	}
}

func TestReferenceDriverInitThenSkipExist(t *testing.T) {
	cfg := testConfig(t)
	d, err := NewReferenceDriver(cfg, "")
	if err != nil {
		t.Fatal(err)
	}
	snap := loadedSnapshot("A")

	status, err := d.Init(context.Background(), snap)
	if err != nil {
		t.Fatal(err)
	}
	if status != catchment.StatusOk {
		t.Fatalf("expected StatusOk on first init, got %v", status)
	}

	status2, err := d.Init(context.Background(), snap)
	if err != nil {
		t.Fatal(err)
	}
	if status2 != catchment.StatusSkipExist {
		t.Fatalf("expected StatusSkipExist on second init, got %v", status2)
	}
}

func TestReferenceDriverSkipReach(t *testing.T) {
	cfg := testConfig(t)
	d, err := NewReferenceDriver(cfg, "")
	if err != nil {
		t.Fatal(err)
	}
	snap := skippedSnapshot("A")
	snap.MassOutflowFileNeeded = true

	status, err := d.Init(context.Background(), snap)
	if err != nil {
		t.Fatal(err)
	}
	if status != catchment.StatusSkipReach {
		t.Fatalf("expected StatusSkipReach, got %v", status)
	}
	if !fileExistsNonEmpty(d.upstreamFluxPath("A")) {
		t.Fatal("expected placeholder upstream-flux file to be written for skip reach with MassOutflowFileNeeded")
	}

	report, err := d.Run(context.Background(), snap)
	if err != nil {
		t.Fatal(err)
	}
	if report.Status != catchment.StatusSkipReach {
		t.Fatalf("expected Run to report SkipReach for a skip reach, got %v", report.Status)
	}
}

func TestReferenceDriverRunSucceedsWithNoSolverConfigured(t *testing.T) {
	cfg := testConfig(t)
	d, err := NewReferenceDriver(cfg, "")
	if err != nil {
		t.Fatal(err)
	}
	snap := loadedSnapshot("A")

	if _, err := d.Init(context.Background(), snap); err != nil {
		t.Fatal(err)
	}
	report, err := d.Run(context.Background(), snap)
	if err != nil {
		t.Fatal(err)
	}
	if report.Status != catchment.StatusOk {
		t.Fatalf("expected StatusOk, got %v", report.Status)
	}
	if !fileExistsNonEmpty(d.resultPath("A")) {
		t.Fatal("expected result file to be written")
	}
}

func TestReferenceDriverRunSkipExistOnRestart(t *testing.T) {
	cfg := testConfig(t)
	d, err := NewReferenceDriver(cfg, "")
	if err != nil {
		t.Fatal(err)
	}
	snap := loadedSnapshot("A")

	if err := os.MkdirAll(d.reachDir("A"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := writeFileAtomic(d.resultPath("A"), []byte("prior-run-result")); err != nil {
		t.Fatal(err)
	}

	report, err := d.Run(context.Background(), snap)
	if err != nil {
		t.Fatal(err)
	}
	if report.Status != catchment.StatusSkipExist {
		t.Fatalf("expected StatusSkipExist when result already present, got %v", report.Status)
	}
}

func TestReferenceDriverCleanupGatedByConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.DeleteUpstreamFluxFiles = false
	d, err := NewReferenceDriver(cfg, "")
	if err != nil {
		t.Fatal(err)
	}
	snap := loadedSnapshot("A")
	fluxPath := d.upstreamFluxPath("A")
	if err := writeFileAtomic(fluxPath, []byte("flux")); err != nil {
		t.Fatal(err)
	}

	if _, err := d.Cleanup(context.Background(), snap); err != nil {
		t.Fatal(err)
	}
	if !fileExistsNonEmpty(fluxPath) {
		t.Fatal("expected flux file to survive cleanup when DeleteUpstreamFluxFiles=false")
	}

	cfg.DeleteUpstreamFluxFiles = true
	d2, err := NewReferenceDriver(cfg, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d2.Cleanup(context.Background(), snap); err != nil {
		t.Fatal(err)
	}
	if fileExistsNonEmpty(fluxPath) {
		t.Fatal("expected flux file to be removed when DeleteUpstreamFluxFiles=true")
	}
}

func TestReferenceDriverKeepOriginalOutputs(t *testing.T) {
	cfg := testConfig(t)
	cfg.KeepOriginalOutputs = true
	d, err := NewReferenceDriver(cfg, "")
	if err != nil {
		t.Fatal(err)
	}
	snap := loadedSnapshot("A")
	if err := os.MkdirAll(d.reachDir("A"), 0755); err != nil {
		t.Fatal(err)
	}
	rawPath := filepath.Join(d.reachDir("A"), "solver_raw.out")
	if err := writeFileAtomic(rawPath, []byte("raw")); err != nil {
		t.Fatal(err)
	}

	if err := d.harvestSuccess(snap); err != nil {
		t.Fatal(err)
	}
	if !fileExistsNonEmpty(rawPath) {
		t.Fatal("expected raw output retained when KeepOriginalOutputs=true")
	}
}

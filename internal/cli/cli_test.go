package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

const testReaches = `
reaches:
  - id: A
    downstreamIds: [B]
    hasDirectLoading: true
  - id: B
    downstreamIds: []
    hasDirectLoading: false
`

func writeReaches(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "reaches.yaml")
	if err := os.WriteFile(path, []byte(testReaches), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunRequiresReachesFlag(t *testing.T) {
	root := NewRootCommand()
	root.SetArgs([]string{"run", "--workdir", t.TempDir()})
	err := root.Execute()
	if err == nil {
		t.Fatal("expected error for missing --reaches")
	}
	if ExitCodeFor(err) != ExitInvalidInvocation {
		t.Fatalf("expected ExitInvalidInvocation, got %d", ExitCodeFor(err))
	}
}

func TestRunSucceedsWithNoSolverConfigured(t *testing.T) {
	dir := t.TempDir()
	reaches := writeReaches(t, dir)
	reportPath := filepath.Join(dir, "report.json")

	root := NewRootCommand()
	root.SetArgs([]string{
		"run",
		"--reaches", reaches,
		"--workdir", filepath.Join(dir, "work"),
		"--report", reportPath,
	})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if _, err := os.Stat(reportPath); err != nil {
		t.Fatalf("expected report file: %v", err)
	}
}

func TestRunEmitsCanonicalTraceAtAnyWorkerCount(t *testing.T) {
	dir := t.TempDir()
	reaches := writeReaches(t, dir)

	run := func(workers int) string {
		tracePath := filepath.Join(dir, fmt.Sprintf("trace-%d.json", workers))
		root := NewRootCommand()
		root.SetArgs([]string{
			"run",
			"--reaches", reaches,
			"--workdir", filepath.Join(dir, fmt.Sprintf("work-%d", workers)),
			"--workers", fmt.Sprintf("%d", workers),
			"--trace", tracePath,
		})
		if err := root.ExecuteContext(context.Background()); err != nil {
			t.Fatalf("workers=%d: expected success, got %v", workers, err)
		}
		data, err := os.ReadFile(tracePath)
		if err != nil {
			t.Fatal(err)
		}
		return string(data)
	}

	serial := run(1)
	parallel := run(4)
	if serial != parallel {
		t.Fatalf("expected identical canonical traces regardless of worker count:\nserial=%s\nparallel=%s", serial, parallel)
	}
}

func TestGraphRendersDOT(t *testing.T) {
	dir := t.TempDir()
	reaches := writeReaches(t, dir)
	outPath := filepath.Join(dir, "graph.dot")

	root := NewRootCommand()
	root.SetArgs([]string{"graph", "--reaches", reaches, "--output", outPath})
	if err := root.Execute(); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty DOT output")
	}
}

func TestGraphRequiresReachesFlag(t *testing.T) {
	root := NewRootCommand()
	root.SetArgs([]string{"graph"})
	err := root.Execute()
	if ExitCodeFor(err) != ExitInvalidInvocation {
		t.Fatalf("expected ExitInvalidInvocation, got %d", ExitCodeFor(err))
	}
}

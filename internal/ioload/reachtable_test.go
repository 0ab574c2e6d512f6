package ioload

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadReachTableAndBuildCatchment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reaches.yaml")
	content := `
reaches:
  - id: A
    downstreamIds: [B]
    hasDirectLoading: true
  - id: B
    downstreamIds: []
    hasDirectLoading: false
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	table, err := LoadReachTable(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Reaches) != 2 {
		t.Fatalf("expected 2 reaches, got %d", len(table.Reaches))
	}

	c, err := BuildCatchment(table)
	if err != nil {
		t.Fatal(err)
	}
	if c.NodeCount() != 2 {
		t.Fatalf("expected 2 nodes, got %d", c.NodeCount())
	}
	snap, ok := c.Snapshot("B")
	if !ok {
		t.Fatal("expected reach B")
	}
	if snap.Skip {
		t.Fatalf("expected B skip=false: it receives upstream loading from A")
	}
	if !snap.HasUpstreamLoading {
		t.Fatalf("expected B.HasUpstreamLoading=true via A's direct loading")
	}
}

func TestLoadReachTableMissingFile(t *testing.T) {
	if _, err := LoadReachTable("/nonexistent/path.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

package reporting

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteFiles(t *testing.T) {
	store, run := setupTestData(t)
	report, err := NewGenerator(store).WithClock(fixedClock).Generate(context.Background(), run)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	dir := filepath.Join(t.TempDir(), "nested", "out")
	paths, err := WriteFiles(dir, report)
	if err != nil {
		t.Fatalf("WriteFiles failed: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 files, got %d", len(paths))
	}

	md, err := os.ReadFile(filepath.Join(dir, ReportFile))
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(md), "run-1") {
		t.Error("report missing run id")
	}

	csv, err := os.ReadFile(filepath.Join(dir, MetricsFile))
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if lines := strings.Count(string(csv), "\n"); lines != 3 {
		t.Errorf("expected header plus 2 rows, got %d lines", lines)
	}
}

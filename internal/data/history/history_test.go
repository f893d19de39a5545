package history

import (
	"path/filepath"
	"testing"
	"time"
)

func TestStore_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	runs := []Snapshot{
		{RunID: "a", Destination: "/site", Timestamp: base, Duration: 1500 * time.Millisecond, Outcome: "ok", FilesScanned: 3, FilesEmitted: 3, TypesIndexed: 4, PackagesIndexed: 2},
		{RunID: "b", Destination: "/site", Timestamp: base.Add(time.Hour), Outcome: "partial", FilesScanned: 4, FilesEmitted: 3, FilesFailed: 1, AmbiguousCount: 2},
		{RunID: "c", Destination: "/other", Timestamp: base.Add(2 * time.Hour), Outcome: "ok"},
	}
	for _, run := range runs {
		if err := store.SaveSnapshot(run); err != nil {
			t.Fatalf("save %s: %v", run.RunID, err)
		}
	}

	// Re-saving a run id updates it in place.
	runs[1].FilesFailed = 2
	if err := store.SaveSnapshot(runs[1]); err != nil {
		t.Fatalf("update b: %v", err)
	}

	got, err := store.LoadSnapshots("/site", time.Time{}, 0)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(got))
	}
	if got[0].RunID != "b" || got[1].RunID != "a" {
		t.Fatalf("expected newest first, got %s, %s", got[0].RunID, got[1].RunID)
	}
	if got[0].FilesFailed != 2 || got[0].AmbiguousCount != 2 || got[0].Outcome != "partial" {
		t.Errorf("unexpected snapshot b: %+v", got[0])
	}
	if got[1].Duration != 1500*time.Millisecond || !got[1].Timestamp.Equal(base) {
		t.Errorf("unexpected snapshot a: %+v", got[1])
	}
	if got[1].SchemaVersion != SchemaVersion {
		t.Errorf("schema version = %d, want %d", got[1].SchemaVersion, SchemaVersion)
	}

	all, err := store.LoadSnapshots("", base.Add(30*time.Minute), 1)
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	if len(all) != 1 || all[0].RunID != "c" {
		t.Fatalf("expected only c, got %+v", all)
	}
}

func TestStore_ReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.SaveSnapshot(Snapshot{RunID: "x", Destination: "/d", Outcome: "ok"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.LoadSnapshots("/d", time.Time{}, 0)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 snapshot after reopen, got %d", len(got))
	}
	if reopened.Path() != path {
		t.Errorf("Path() = %q, want %q", reopened.Path(), path)
	}
}

func TestStore_Validation(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
	if _, err := Open(t.TempDir()); err == nil {
		t.Fatal("expected error for directory path")
	}

	store, err := Open(filepath.Join(t.TempDir(), "h.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()
	if err := store.SaveSnapshot(Snapshot{}); err == nil {
		t.Fatal("expected error for missing run id")
	}
	if err := store.SaveSnapshot(Snapshot{RunID: "r", SchemaVersion: 99}); err == nil {
		t.Fatal("expected error for unsupported schema version")
	}
}

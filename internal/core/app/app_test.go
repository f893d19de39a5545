package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"xref/internal/core/config"
	coreerrors "xref/internal/core/errors"
	"xref/internal/core/ports"
	"xref/internal/data/history"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSources(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func newTestApp(t *testing.T, roots ...string) (*App, string) {
	t.Helper()
	dest := filepath.Join(t.TempDir(), "xref")
	cfg := config.Default()
	cfg.Sources.Roots = roots
	cfg.Output.Destination = dest
	cfg.Performance.Workers = 2
	a, err := New(cfg)
	require.NoError(t, err)
	return a, dest
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

var sampleSources = map[string]string{
	"com/acme/Widget.java": "package com.acme;\npublic class Widget {}\n",
	"com/acme/app/Main.java": `package com.acme.app;

import com.acme.Widget;
import java.util.List;

public class Main {
    Widget w = new Widget();
}
`,
	"Hello.java":      "class Hello {}\n",
	"README.md":       "# not java\n",
	".git/Stale.java": "package stale;\nclass Stale {}\n",
}

func TestRun_GeneratesTree(t *testing.T) {
	src := t.TempDir()
	writeSources(t, src, sampleSources)
	a, dest := newTestApp(t, src)

	var mu sync.Mutex
	phases := map[string]int{}
	a.SetProgressHandler(func(p Progress) {
		mu.Lock()
		defer mu.Unlock()
		phases[p.Phase]++
	})

	report, err := a.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 3, report.FilesScanned)
	assert.Equal(t, 3, report.FilesEmitted)
	assert.Equal(t, 3, report.TypesIndexed)
	assert.Equal(t, 3, report.PackagesIndexed)
	assert.Empty(t, report.Failures)
	assert.False(t, report.Failed())
	assert.GreaterOrEqual(t, report.Duration().Nanoseconds(), int64(0))

	main := readFile(t, filepath.Join(dest, "com", "acme", "app", "Main.html"))
	assert.Contains(t, main, `<a class="xref" href="../Widget.html#line2">Widget</a>`)
	assert.Contains(t, main, `<tr id="line7">`)

	assert.FileExists(t, filepath.Join(dest, "com", "acme", "Widget.html"))
	assert.FileExists(t, filepath.Join(dest, "Hello.html"))
	assert.NoFileExists(t, filepath.Join(dest, "stale", "Stale.html"))

	assert.FileExists(t, filepath.Join(dest, "index.html"))
	assert.FileExists(t, filepath.Join(dest, "stylesheet.css"))
	assert.FileExists(t, filepath.Join(dest, "default-package", "index.html"))
	pkg := readFile(t, filepath.Join(dest, "com", "acme", "app", "index.html"))
	assert.Contains(t, pkg, `href="Main.html"`)

	require.Len(t, report.UnresolvedImports, 1)
	assert.Equal(t, "java.util.List", report.UnresolvedImports[0].Import)
	assert.Equal(t, 4, report.UnresolvedImports[0].Line)

	mu.Lock()
	defer mu.Unlock()
	for _, phase := range []string{PhaseScan, PhaseLoad, PhaseSymbols, PhaseEmit, PhaseIndex} {
		assert.Positive(t, phases[phase], "no progress for phase %s", phase)
	}

	last, lastErr := a.LastRun()
	assert.Same(t, report, last)
	assert.NoError(t, lastErr)
}

func TestRun_IsolatesFailures(t *testing.T) {
	src := t.TempDir()
	writeSources(t, src, map[string]string{
		"com/acme/Widget.java": "package com.acme;\npublic class Widget {}\n",
		"com/acme/User.java":   "package com.acme;\nclass User { Widget w; }\n",
	})
	require.NoError(t, os.Symlink(filepath.Join(src, "missing.java"), filepath.Join(src, "com", "acme", "Broken.java")))
	a, dest := newTestApp(t, src)

	report, err := a.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Failures, 1)
	failure := report.Failures[0]
	assert.Equal(t, filepath.Join(src, "com", "acme", "Broken.java"), failure.Path)
	assert.Equal(t, StageRead, failure.Stage)
	assert.Equal(t, coreerrors.CodeNotFound, failure.Code)
	assert.True(t, report.Failed())

	assert.Equal(t, 2, report.FilesEmitted)
	user := readFile(t, filepath.Join(dest, "com", "acme", "User.html"))
	assert.Contains(t, user, `<a class="xref" href="Widget.html#line2">Widget</a>`)
	assert.NoFileExists(t, filepath.Join(dest, "com", "acme", "Broken.html"))
}

func TestRun_DocumentConflict(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	writeSources(t, first, map[string]string{"a/Util.java": "package shared;\nclass Util {}\n"})
	writeSources(t, second, map[string]string{"b/Util.java": "package shared;\nclass Helper {}\n"})
	a, dest := newTestApp(t, first, second)

	report, err := a.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Failures, 1)
	assert.Equal(t, coreerrors.CodeConflict, report.Failures[0].Code)
	assert.Equal(t, StageSymbols, report.Failures[0].Stage)
	assert.Equal(t, 1, report.FilesEmitted)

	page := readFile(t, filepath.Join(dest, "shared", "Util.html"))
	assert.NotContains(t, page, "Helper")
}

func TestRun_IndexNamedSourceConflictsWithNavigation(t *testing.T) {
	src := t.TempDir()
	writeSources(t, src, map[string]string{
		"com/acme/index.java":  "package com.acme;\nclass index {}\n",
		"com/acme/Widget.java": "package com.acme;\npublic class Widget { index i; }\n",
		"index.java":           "class index {}\n",
	})
	a, dest := newTestApp(t, src)

	report, err := a.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Failures, 2)
	for _, f := range report.Failures {
		assert.Equal(t, coreerrors.CodeConflict, f.Code, f.Path)
		assert.Equal(t, StageSymbols, f.Stage, f.Path)
	}
	assert.Equal(t, filepath.Join(src, "com", "acme", "index.java"), report.Failures[0].Path)
	assert.Equal(t, filepath.Join(src, "index.java"), report.Failures[1].Path)
	assert.Equal(t, 1, report.FilesEmitted)
	assert.Equal(t, 1, report.TypesIndexed)

	pkg := readFile(t, filepath.Join(dest, "com", "acme", "index.html"))
	assert.Contains(t, pkg, `href="Widget.html"`)
	assert.NotContains(t, pkg, `id="line1"`)
	overview := readFile(t, filepath.Join(dest, "index.html"))
	assert.NotContains(t, overview, `id="line1"`)

	widget := readFile(t, filepath.Join(dest, "com", "acme", "Widget.html"))
	assert.NotContains(t, widget, `href="index.html`)
}

func TestRun_DuplicateTypeKeepsFirst(t *testing.T) {
	src := t.TempDir()
	writeSources(t, src, map[string]string{
		"a/One.java": "package p;\nclass Dup {}\n",
		"b/Two.java": "package p;\n\nclass Dup {}\n",
	})
	a, _ := newTestApp(t, src)

	report, err := a.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Duplicates, 1)
	assert.Equal(t, "p.Dup", report.Duplicates[0].QualifiedName)
	assert.Equal(t, filepath.Join(src, "a", "One.java"), report.Duplicates[0].KeptSource)
	assert.Equal(t, 2, report.FilesEmitted)
}

func TestRun_ExportsSymbolDatabase(t *testing.T) {
	src := t.TempDir()
	writeSources(t, src, sampleSources)
	a, _ := newTestApp(t, src)
	a.Config.Output.SymbolDB = filepath.Join(t.TempDir(), "symbols.db")

	report, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Warnings)
	assert.FileExists(t, a.Config.Output.SymbolDB)
}

func TestRun_MissingRoot(t *testing.T) {
	a, _ := newTestApp(t, filepath.Join(t.TempDir(), "nope"))

	_, err := a.Run(context.Background())
	require.Error(t, err)
	assert.True(t, coreerrors.IsCode(err, coreerrors.CodeNotFound))

	_, lastErr := a.LastRun()
	assert.Error(t, lastErr)
	assert.Equal(t, "down", NewHealthService(a).Check(context.Background()).Status)
}

func TestRun_CancelledContext(t *testing.T) {
	src := t.TempDir()
	writeSources(t, src, sampleSources)
	a, _ := newTestApp(t, src)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_Latin1RoundTrip(t *testing.T) {
	src := t.TempDir()
	// "café" in ISO-8859-1
	writeSources(t, src, map[string]string{"Cafe.java": "class Cafe { String s = \"caf\xe9\"; }\n"})
	a, dest := newTestApp(t, src)
	a.Config.Sources.InputEncoding = "ISO-8859-1"
	a.Config.Output.OutputEncoding = "ISO-8859-1"
	require.NoError(t, a.Reconfigure(a.Config))

	_, err := a.Run(context.Background())
	require.NoError(t, err)

	page := readFile(t, filepath.Join(dest, "Cafe.html"))
	assert.Contains(t, page, "caf\xe9")
	assert.Contains(t, page, `charset="ISO-8859-1"`)
}

func TestHealthService(t *testing.T) {
	src := t.TempDir()
	writeSources(t, src, sampleSources)
	a, _ := newTestApp(t, src)
	health := NewHealthService(a)

	assert.Equal(t, "starting", health.Check(context.Background()).Status)

	_, err := a.Run(context.Background())
	require.NoError(t, err)

	status := health.Check(context.Background())
	assert.Equal(t, "up", status.Status)
	assert.Equal(t, "idle", status.Components["generator"])
	assert.NotEmpty(t, status.Components["run_id"])
}

func TestRun_WritesFindings(t *testing.T) {
	src := t.TempDir()
	writeSources(t, src, sampleSources)
	a, _ := newTestApp(t, src)
	a.Config.Output.FindingsSARIF = filepath.Join(t.TempDir(), "findings.sarif")

	report, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Warnings)

	sarif := readFile(t, a.Config.Output.FindingsSARIF)
	assert.Contains(t, sarif, `"ruleId": "XREF004"`)
	assert.Contains(t, sarif, `"uri": "com/acme/app/Main.java"`)
	assert.Contains(t, sarif, "java.util.List is not part of the generated tree")
}

func TestRun_FindingsWriteFailureFailsRun(t *testing.T) {
	src := t.TempDir()
	writeSources(t, src, sampleSources)
	a, dest := newTestApp(t, src)
	blocked := filepath.Join(t.TempDir(), "findings.sarif")
	require.NoError(t, os.MkdirAll(filepath.Join(blocked, "occupied"), 0o755))
	a.Config.Output.FindingsSARIF = blocked
	a.Config.Output.HistoryDB = filepath.Join(t.TempDir(), "history.db")

	report, err := a.Run(context.Background())
	require.Error(t, err)
	assert.True(t, coreerrors.IsCode(err, coreerrors.CodeInternal))
	require.NotNil(t, report)
	assert.Equal(t, 3, report.FilesEmitted)
	assert.FileExists(t, filepath.Join(dest, "index.html"))

	last, lastErr := a.LastRun()
	assert.Same(t, report, last)
	assert.Equal(t, err, lastErr)

	store, err := history.Open(a.Config.Output.HistoryDB)
	require.NoError(t, err)
	defer store.Close()
	runs, err := store.LoadSnapshots(dest, time.Time{}, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "error", runs[0].Outcome)
}

func TestRun_RecordsHistory(t *testing.T) {
	src := t.TempDir()
	writeSources(t, src, sampleSources)
	a, dest := newTestApp(t, src)
	a.Config.Output.HistoryDB = filepath.Join(t.TempDir(), "history.db")

	first, err := a.Run(context.Background())
	require.NoError(t, err)
	second, err := a.Run(context.Background())
	require.NoError(t, err)

	store, err := history.Open(a.Config.Output.HistoryDB)
	require.NoError(t, err)
	defer store.Close()

	runs, err := store.LoadSnapshots(dest, time.Time{}, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	ids := []string{runs[0].RunID, runs[1].RunID}
	assert.ElementsMatch(t, []string{first.RunID, second.RunID}, ids)
	assert.Equal(t, "ok", runs[0].Outcome)
	assert.Equal(t, 3, runs[0].FilesEmitted)
	assert.Equal(t, 1, runs[0].UnresolvedCount)
}

func TestRun_HistoryFailureDoesNotFailRun(t *testing.T) {
	src := t.TempDir()
	writeSources(t, src, sampleSources)
	a, _ := newTestApp(t, src)
	a.Config.Output.HistoryDB = filepath.Join(t.TempDir(), "history.db")

	var opened []string
	a.OpenHistory = func(path string) (ports.HistoryStore, error) {
		opened = append(opened, path)
		return nil, errors.New("disk full")
	}

	report, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, report.FilesEmitted)
	assert.Equal(t, []string{a.Config.Output.HistoryDB}, opened)
}

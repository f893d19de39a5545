package app

import (
	"path/filepath"
	"testing"

	"xref/internal/core/config"
)

func TestSourceMatcher_MatchRel(t *testing.T) {
	m, err := NewSourceMatcher(config.Sources{
		Include: []string{"**/*.java"},
		Exclude: []string{"**/generated/**", "Skip.java"},
	})
	if err != nil {
		t.Fatalf("NewSourceMatcher: %v", err)
	}

	tests := []struct {
		rel  string
		want bool
	}{
		{"Main.java", true},
		{"com/acme/Widget.java", true},
		{"com/acme/Widget.kt", false},
		{"com/generated/Gen.java", false},
		{"Skip.java", false},
		{"com/Skip.java", true},
	}
	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			if got := m.MatchRel(tt.rel); got != tt.want {
				t.Errorf("MatchRel(%q) = %v, want %v", tt.rel, got, tt.want)
			}
		})
	}
}

func TestSourceMatcher_MatchPath(t *testing.T) {
	m, err := NewSourceMatcher(config.Sources{
		Include:     []string{"**/*.java"},
		ExcludeDirs: []string{"build*"},
	})
	if err != nil {
		t.Fatalf("NewSourceMatcher: %v", err)
	}
	root := filepath.Join(string(filepath.Separator), "work", "src")
	roots := []string{root}

	if !m.MatchPath(roots, filepath.Join(root, "com", "A.java")) {
		t.Error("expected file under root to match")
	}
	if m.MatchPath(roots, filepath.Join(root, "build-out", "A.java")) {
		t.Error("expected excluded directory to be skipped")
	}
	if m.MatchPath(roots, filepath.Join(string(filepath.Separator), "elsewhere", "A.java")) {
		t.Error("expected file outside roots to be rejected")
	}
}

func TestNewSourceMatcher_InvalidPattern(t *testing.T) {
	if _, err := NewSourceMatcher(config.Sources{Include: []string{"[unclosed"}}); err == nil {
		t.Fatal("expected error for invalid pattern")
	}
}

func TestScanSources_OverlappingRoots(t *testing.T) {
	src := t.TempDir()
	writeSources(t, src, map[string]string{
		"com/acme/Widget.java": "package com.acme;\nclass Widget {}\n",
		"Main.java":            "class Main {}\n",
	})
	a, _ := newTestApp(t, src, filepath.Join(src, "com"), src+string(filepath.Separator))

	files, err := a.ScanSources()
	if err != nil {
		t.Fatalf("ScanSources: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d: %v", len(files), files)
	}
	if files[0].Path > files[1].Path {
		t.Errorf("files not sorted: %v", files)
	}
}

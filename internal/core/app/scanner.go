package app

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"xref/internal/core/config"
	coreerrors "xref/internal/core/errors"
	"xref/internal/shared/util"

	"github.com/gobwas/glob"
)

// SourceFile is one file selected for generation.
type SourceFile struct {
	Path string
	Root string
	// Rel is Path relative to Root, with "/" separators.
	Rel string
}

// SourceMatcher applies the include/exclude configuration. It is shared by
// the scanner and the watcher so both agree on which files matter.
type SourceMatcher struct {
	include     []glob.Glob
	exclude     []glob.Glob
	excludeDirs []glob.Glob
}

func NewSourceMatcher(src config.Sources) (*SourceMatcher, error) {
	include, err := compileGlobs(src.Include, "include", '/')
	if err != nil {
		return nil, err
	}
	exclude, err := compileGlobs(src.Exclude, "exclude", '/')
	if err != nil {
		return nil, err
	}
	excludeDirs, err := compileGlobs(src.ExcludeDirs, "exclude dir")
	if err != nil {
		return nil, err
	}
	return &SourceMatcher{include: include, exclude: exclude, excludeDirs: excludeDirs}, nil
}

// compileGlobs compiles each pattern. A leading "**/" also matches at the
// root itself, so "**/*.java" selects "Main.java".
func compileGlobs(patterns []string, label string, separators ...rune) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, separators...)
		if err != nil {
			return nil, coreerrors.Wrap(err, coreerrors.CodeValidationError, fmt.Sprintf("invalid %s pattern %q", label, p))
		}
		out = append(out, g)
		if rest, ok := strings.CutPrefix(p, "**/"); ok && len(separators) > 0 {
			if g, err := glob.Compile(rest, separators...); err == nil {
				out = append(out, g)
			}
		}
	}
	return out, nil
}

func matchAny(globs []glob.Glob, value string) bool {
	for _, g := range globs {
		if g.Match(value) {
			return true
		}
	}
	return false
}

// MatchRel reports whether a root-relative path is a source file.
func (m *SourceMatcher) MatchRel(rel string) bool {
	rel = util.NormalizePatternPath(rel)
	if rel == "" || !matchAny(m.include, rel) {
		return false
	}
	return !matchAny(m.exclude, rel)
}

// SkipDir reports whether a directory with this base name is pruned.
func (m *SourceMatcher) SkipDir(name string) bool {
	return matchAny(m.excludeDirs, name)
}

// MatchPath checks an absolute path against every root.
func (m *SourceMatcher) MatchPath(roots []string, path string) bool {
	for _, root := range roots {
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			continue
		}
		for _, dir := range strings.Split(filepath.ToSlash(filepath.Dir(rel)), "/") {
			if dir != "." && m.SkipDir(dir) {
				return false
			}
		}
		if m.MatchRel(filepath.ToSlash(rel)) {
			return true
		}
	}
	return false
}

// ScanSources walks every root and returns the matching files sorted by
// path. A file reachable from two overlapping roots is listed once.
func (a *App) ScanSources() ([]SourceFile, error) {
	roots := uniqueRoots(a.Config.Sources.Roots)
	seen := make(map[string]bool)
	var files []SourceFile

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, coreerrors.Wrap(err, coreerrors.CodeNotFound, fmt.Sprintf("source root %q", root))
		}
		if !info.IsDir() {
			return nil, coreerrors.New(coreerrors.CodeValidationError, fmt.Sprintf("source root %q is not a directory", root))
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && a.matcher.SkipDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			if !a.matcher.MatchRel(rel) || seen[path] {
				return nil
			}
			seen[path] = true
			files = append(files, SourceFile{Path: path, Root: root, Rel: rel})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", root, err)
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func uniqueRoots(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	roots := make([]string, 0, len(paths))
	for _, p := range paths {
		normalized := filepath.Clean(p)
		if abs, err := filepath.Abs(normalized); err == nil {
			normalized = filepath.Clean(abs)
		}
		if seen[normalized] {
			continue
		}
		seen[normalized] = true
		roots = append(roots, normalized)
	}
	sort.Strings(roots)
	return roots
}

package app

import (
	"context"
	"log/slog"
	"path/filepath"

	"xref/internal/core/config"
	"xref/internal/core/watcher"
	"xref/internal/shared/util"
)

// Reconfigure swaps the configuration used by later runs. A run in progress
// finishes with the old one.
func (a *App) Reconfigure(cfg *config.Config) error {
	next, err := New(cfg)
	if err != nil {
		return err
	}
	a.runMu.Lock()
	defer a.runMu.Unlock()
	a.Config = next.Config
	a.matcher = next.matcher
	a.codec = next.codec
	a.extractor = next.extractor
	a.limiter = next.limiter
	return nil
}

// Watch generates the tree once and then again after every debounced batch
// of source changes, until ctx is cancelled. When configPath is set, edits
// to that file reconfigure the app and trigger a run. Every run is reported
// to onReport.
func (a *App) Watch(ctx context.Context, configPath string, onReport func(*Report, error)) error {
	if onReport == nil {
		onReport = func(*Report, error) {}
	}

	trigger := make(chan []string, 1)
	notify := func(paths []string) {
		select {
		case trigger <- paths:
		default:
			// a run is already queued; it regenerates everything anyway
		}
	}

	reconfigured := make(chan *config.Config, 1)
	if configPath != "" {
		cw := config.NewWatcher(configPath, a.Config.Watch.Debounce, func(cfg *config.Config) {
			select {
			case reconfigured <- cfg:
			default:
			}
		})
		if err := cw.Start(ctx); err != nil {
			return err
		}
		defer cw.Stop()
	}

	sources, err := a.watchSources(notify)
	if err != nil {
		return err
	}
	defer func() { _ = sources.Close() }()

	onReport(a.Run(ctx))

	for {
		select {
		case <-ctx.Done():
			return nil
		case paths := <-trigger:
			slog.Info("sources changed, regenerating", "files", len(paths))
			onReport(a.Run(ctx))
		case cfg := <-reconfigured:
			if a.Overrides != nil {
				a.Overrides(cfg)
			}
			if err := config.Validate(cfg); err != nil {
				slog.Error("ignoring reloaded config", "path", configPath, "error", err)
				continue
			}
			if err := a.Reconfigure(cfg); err != nil {
				slog.Error("ignoring reloaded config", "path", configPath, "error", err)
				continue
			}
			_ = sources.Close()
			if sources, err = a.watchSources(notify); err != nil {
				return err
			}
			slog.Info("config reloaded, regenerating", "path", configPath)
			onReport(a.Run(ctx))
		}
	}
}

func (a *App) watchSources(notify func([]string)) (*watcher.Watcher, error) {
	a.runMu.Lock()
	cfg := a.Config
	matcher := a.matcher
	a.runMu.Unlock()

	roots := uniqueRoots(cfg.Sources.Roots)
	dest, err := filepath.Abs(cfg.Output.Destination)
	if err != nil {
		dest = cfg.Output.Destination
	}
	accept := func(path string) bool {
		if util.HasPathPrefix(path, dest) {
			return false
		}
		return matcher.MatchPath(roots, path)
	}

	w, err := watcher.NewWatcher(cfg.Watch.Debounce, cfg.Sources.ExcludeDirs, accept, notify)
	if err != nil {
		return nil, err
	}
	if err := w.Watch(roots); err != nil {
		_ = w.Close()
		return nil, err
	}
	slog.Info("watching sources", "roots", roots, "debounce", cfg.Watch.Debounce)
	return w, nil
}

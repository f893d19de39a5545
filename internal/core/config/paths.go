package config

import (
	"path/filepath"
	"strings"
)

// ResolvePaths makes every relative path of cfg relative to base, the
// directory of the config file.
func ResolvePaths(cfg *Config, base string) {
	for i, root := range cfg.Sources.Roots {
		cfg.Sources.Roots[i] = ResolveRelative(base, root)
	}
	cfg.Output.Destination = ResolveRelative(base, cfg.Output.Destination)
	if strings.TrimSpace(cfg.Output.SymbolDB) != "" {
		cfg.Output.SymbolDB = ResolveRelative(base, cfg.Output.SymbolDB)
	}
	if strings.TrimSpace(cfg.Output.HistoryDB) != "" {
		cfg.Output.HistoryDB = ResolveRelative(base, cfg.Output.HistoryDB)
	}
	if strings.TrimSpace(cfg.Output.FindingsSARIF) != "" {
		cfg.Output.FindingsSARIF = ResolveRelative(base, cfg.Output.FindingsSARIF)
	}
	if strings.TrimSpace(cfg.External.BaseDirectory) != "" {
		cfg.External.BaseDirectory = ResolveRelative(base, cfg.External.BaseDirectory)
	}
	if strings.TrimSpace(cfg.Observability.MetricsTextfile) != "" {
		cfg.Observability.MetricsTextfile = ResolveRelative(base, cfg.Observability.MetricsTextfile)
	}
}

func ResolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}

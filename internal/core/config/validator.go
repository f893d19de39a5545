package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/gobwas/glob"
	"golang.org/x/text/encoding/ianaindex"
)

func validateSources(cfg *Config) error {
	for i, root := range cfg.Sources.Roots {
		if strings.TrimSpace(root) == "" {
			return fmt.Errorf("sources.roots[%d] must not be empty", i)
		}
	}
	if err := validatePatterns("sources.include", cfg.Sources.Include, '/'); err != nil {
		return err
	}
	if err := validatePatterns("sources.exclude", cfg.Sources.Exclude, '/'); err != nil {
		return err
	}
	if err := validatePatterns("sources.exclude_dirs", cfg.Sources.ExcludeDirs); err != nil {
		return err
	}
	return validateEncoding("sources.input_encoding", cfg.Sources.InputEncoding)
}

func validatePatterns(key string, patterns []string, separators ...rune) error {
	for i, p := range patterns {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("%s[%d] must not be empty", key, i)
		}
		if _, err := glob.Compile(p, separators...); err != nil {
			return fmt.Errorf("%s[%d] %q is not a valid glob: %w", key, i, p, err)
		}
	}
	return nil
}

func validateEncoding(key, name string) error {
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return fmt.Errorf("%s %q is not a known IANA encoding: %w", key, name, err)
	}
	if enc == nil {
		return fmt.Errorf("%s %q is not supported", key, name)
	}
	return nil
}

func validateOutput(cfg *Config) error {
	if strings.TrimSpace(cfg.Output.Destination) == "" {
		return fmt.Errorf("output.destination must not be empty")
	}
	if err := validateEncoding("output.output_encoding", cfg.Output.OutputEncoding); err != nil {
		return err
	}
	if err := validateDatabasePath("output.symbol_db", cfg.Output.SymbolDB); err != nil {
		return err
	}
	if err := validateDatabasePath("output.history_db", cfg.Output.HistoryDB); err != nil {
		return err
	}
	if db, hist := strings.TrimSpace(cfg.Output.SymbolDB), strings.TrimSpace(cfg.Output.HistoryDB); db != "" && db == hist {
		return fmt.Errorf("output.history_db must differ from output.symbol_db")
	}
	return nil
}

func validateDatabasePath(key, path string) error {
	if db := strings.TrimSpace(path); db != "" && !strings.HasSuffix(db, ".db") && !strings.HasSuffix(db, ".sqlite") {
		return fmt.Errorf("%s %q must end in .db or .sqlite", key, path)
	}
	return nil
}

func validateExternal(cfg *Config) error {
	if cfg.External.Enabled && strings.TrimSpace(cfg.External.BaseDirectory) == "" {
		return fmt.Errorf("external.base_directory must be set when external.enabled is true")
	}
	return nil
}

func validateSymbols(cfg *Config) error {
	switch cfg.Symbols.Extractor {
	case ExtractorTokens, ExtractorTreeSitter:
		return nil
	default:
		return fmt.Errorf("symbols.extractor must be one of: %s, %s; got %q", ExtractorTokens, ExtractorTreeSitter, cfg.Symbols.Extractor)
	}
}

func validatePerformance(cfg *Config) error {
	p := cfg.Performance
	if p.Workers < 1 {
		return fmt.Errorf("performance.workers must be >= 1, got %d", p.Workers)
	}
	if p.MaxFilesPerSecond < 0 {
		return fmt.Errorf("performance.max_files_per_second must be >= 0, got %d", p.MaxFilesPerSecond)
	}
	if p.CacheEntries < 1 {
		return fmt.Errorf("performance.cache_entries must be >= 1, got %d", p.CacheEntries)
	}
	if p.MaxHeapMB < 0 {
		return fmt.Errorf("performance.max_heap_mb must be >= 0, got %d", p.MaxHeapMB)
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %s", cfg.Watch.Debounce)
	}
	return nil
}

func validateObservability(cfg *Config) error {
	if addr := strings.TrimSpace(cfg.Observability.MetricsAddress); addr != "" {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("observability.metrics_address %q must be host:port: %w", addr, err)
		}
	}
	return nil
}

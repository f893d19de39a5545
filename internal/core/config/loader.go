package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultDestination  = "xref"
	DefaultEncoding     = "UTF-8"
	DefaultWindowTitle  = "Source Cross-Reference"
	DefaultCacheEntries = 4096
	DefaultDebounce     = 500 * time.Millisecond
	DefaultServiceName  = "xref"
)

var (
	DefaultInclude     = []string{"**/*.java"}
	DefaultExcludeDirs = []string{".git", ".svn", ".hg", ".idea"}
)

// Load reads a TOML file, fills defaults and validates the result.
// Relative paths in the file are resolved against the file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	ResolvePaths(&cfg, filepath.Dir(path))

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate runs every section check and returns the first failure.
func Validate(cfg *Config) error {
	validators := []func(*Config) error{
		validateSources,
		validateOutput,
		validateExternal,
		validateSymbols,
		validatePerformance,
		validateWatch,
		validateObservability,
	}
	for _, validate := range validators {
		if err := validate(cfg); err != nil {
			return err
		}
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if len(cfg.Sources.Roots) == 0 {
		cfg.Sources.Roots = []string{"."}
	}
	if len(cfg.Sources.Include) == 0 {
		cfg.Sources.Include = append([]string(nil), DefaultInclude...)
	}
	if cfg.Sources.ExcludeDirs == nil {
		cfg.Sources.ExcludeDirs = append([]string(nil), DefaultExcludeDirs...)
	}
	if strings.TrimSpace(cfg.Sources.InputEncoding) == "" {
		cfg.Sources.InputEncoding = DefaultEncoding
	}

	if strings.TrimSpace(cfg.Output.Destination) == "" {
		cfg.Output.Destination = DefaultDestination
	}
	if strings.TrimSpace(cfg.Output.OutputEncoding) == "" {
		cfg.Output.OutputEncoding = DefaultEncoding
	}

	if strings.TrimSpace(cfg.Page.WindowTitle) == "" {
		cfg.Page.WindowTitle = DefaultWindowTitle
	}
	if strings.TrimSpace(cfg.Page.DocTitle) == "" {
		cfg.Page.DocTitle = cfg.Page.WindowTitle
	}

	if strings.TrimSpace(cfg.Symbols.Extractor) == "" {
		cfg.Symbols.Extractor = ExtractorTokens
	}
	cfg.Symbols.Extractor = strings.ToLower(strings.TrimSpace(cfg.Symbols.Extractor))

	if cfg.Performance.Workers == 0 {
		cfg.Performance.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.Performance.CacheEntries == 0 {
		cfg.Performance.CacheEntries = DefaultCacheEntries
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = DefaultDebounce
	}

	if strings.TrimSpace(cfg.Observability.ServiceName) == "" {
		cfg.Observability.ServiceName = DefaultServiceName
	}
}

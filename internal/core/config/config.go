package config

import (
	"time"
)

type Config struct {
	Sources       Sources       `toml:"sources"`
	Output        Output        `toml:"output"`
	Page          Page          `toml:"page"`
	External      External      `toml:"external"`
	Symbols       Symbols       `toml:"symbols"`
	Performance   Performance   `toml:"performance"`
	Watch         Watch         `toml:"watch"`
	Observability Observability `toml:"observability"`
}

type Sources struct {
	Roots []string `toml:"roots"`
	// Include and Exclude match paths relative to their root, written
	// with "/".
	Include []string `toml:"include"`
	Exclude []string `toml:"exclude"`
	// ExcludeDirs match directory base names; a match prunes the subtree.
	ExcludeDirs   []string `toml:"exclude_dirs"`
	InputEncoding string   `toml:"input_encoding"`
}

type Output struct {
	Destination    string `toml:"destination"`
	OutputEncoding string `toml:"output_encoding"`
	SymbolDB       string `toml:"symbol_db"`
	// FindingsSARIF, when set, receives the run's findings as SARIF.
	FindingsSARIF string `toml:"findings_sarif"`
	// HistoryDB, when set, records a summary of every run.
	HistoryDB string `toml:"history_db"`
}

type Page struct {
	WindowTitle string `toml:"window_title"`
	DocTitle    string `toml:"doc_title"`
	Bottom      string `toml:"bottom"`
	Header      string `toml:"header"`
	Footer      string `toml:"footer"`
	ShowHeader  *bool  `toml:"show_header"`
	ShowFooter  *bool  `toml:"show_footer"`
	Revision    string `toml:"revision"`
}

func (p Page) HeaderEnabled() bool { return p.ShowHeader == nil || *p.ShowHeader }

func (p Page) FooterEnabled() bool { return p.ShowFooter == nil || *p.ShowFooter }

type External struct {
	Enabled       bool   `toml:"enabled"`
	BaseDirectory string `toml:"base_directory"`
}

type Symbols struct {
	Extractor string `toml:"extractor"`
}

const (
	ExtractorTokens     = "tokens"
	ExtractorTreeSitter = "treesitter"
)

type Performance struct {
	Workers           int `toml:"workers"`
	MaxFilesPerSecond int `toml:"max_files_per_second"`
	CacheEntries      int `toml:"cache_entries"`
	MaxHeapMB         int `toml:"max_heap_mb"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

type Observability struct {
	MetricsAddress  string `toml:"metrics_address"`
	MetricsTextfile string `toml:"metrics_textfile"`
	OTLPEndpoint    string `toml:"otlp_endpoint"`
	ServiceName     string `toml:"service_name"`
}

// Default returns a configuration that needs no file: the current
// directory as the only root and "xref" as destination.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

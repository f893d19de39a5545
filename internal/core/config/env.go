package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: XREF_[SECTION]_[KEY] (e.g., XREF_OUTPUT_DESTINATION).
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.Output.Destination, "XREF_OUTPUT_DESTINATION")
	setEnvString(&cfg.Output.SymbolDB, "XREF_OUTPUT_SYMBOL_DB")
	setEnvString(&cfg.Output.FindingsSARIF, "XREF_OUTPUT_FINDINGS_SARIF")
	setEnvString(&cfg.Output.HistoryDB, "XREF_OUTPUT_HISTORY_DB")
	setEnvString(&cfg.Sources.InputEncoding, "XREF_SOURCES_INPUT_ENCODING")
	setEnvString(&cfg.Output.OutputEncoding, "XREF_OUTPUT_OUTPUT_ENCODING")

	setEnvString(&cfg.Page.Revision, "XREF_PAGE_REVISION")

	setEnvBool(&cfg.External.Enabled, "XREF_EXTERNAL_ENABLED")
	setEnvString(&cfg.External.BaseDirectory, "XREF_EXTERNAL_BASE_DIRECTORY")

	setEnvString(&cfg.Symbols.Extractor, "XREF_SYMBOLS_EXTRACTOR")

	setEnvInt(&cfg.Performance.Workers, "XREF_PERFORMANCE_WORKERS")
	setEnvInt(&cfg.Performance.MaxFilesPerSecond, "XREF_PERFORMANCE_MAX_FILES_PER_SECOND")
	setEnvInt(&cfg.Performance.MaxHeapMB, "XREF_PERFORMANCE_MAX_HEAP_MB")

	setEnvDuration(&cfg.Watch.Debounce, "XREF_WATCH_DEBOUNCE")

	setEnvString(&cfg.Observability.MetricsAddress, "XREF_OBSERVABILITY_METRICS_ADDRESS")
	setEnvString(&cfg.Observability.OTLPEndpoint, "XREF_OBSERVABILITY_OTLP_ENDPOINT")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}

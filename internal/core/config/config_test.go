package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "xref.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, []string{"."}, cfg.Sources.Roots)
	assert.Equal(t, []string{"**/*.java"}, cfg.Sources.Include)
	assert.Equal(t, DefaultExcludeDirs, cfg.Sources.ExcludeDirs)
	assert.Equal(t, "UTF-8", cfg.Sources.InputEncoding)
	assert.Equal(t, "xref", cfg.Output.Destination)
	assert.Equal(t, "UTF-8", cfg.Output.OutputEncoding)
	assert.Equal(t, DefaultWindowTitle, cfg.Page.WindowTitle)
	assert.Equal(t, DefaultWindowTitle, cfg.Page.DocTitle)
	assert.True(t, cfg.Page.HeaderEnabled())
	assert.True(t, cfg.Page.FooterEnabled())
	assert.Equal(t, ExtractorTokens, cfg.Symbols.Extractor)
	assert.Equal(t, runtime.GOMAXPROCS(0), cfg.Performance.Workers)
	assert.Equal(t, DefaultCacheEntries, cfg.Performance.CacheEntries)
	assert.Equal(t, DefaultDebounce, cfg.Watch.Debounce)
	assert.NoError(t, Validate(cfg))
}

func TestLoad_FullFile(t *testing.T) {
	path := writeConfig(t, `
[sources]
roots = ["src/main/java", "/abs/src"]
include = ["**/*.java"]
exclude = ["**/generated/**"]
exclude_dirs = [".git"]
input_encoding = "ISO-8859-1"

[output]
destination = "target/xref"
output_encoding = "windows-1252"
symbol_db = "target/symbols.db"
findings_sarif = "target/xref.sarif"
history_db = "target/history.db"

[page]
window_title = "Demo"
bottom = "Copyright"
header = "<b>H</b>"
show_header = false
revision = "r42"

[external]
enabled = true
base_directory = "target/apidocs"

[symbols]
extractor = "TreeSitter"

[performance]
workers = 3
max_files_per_second = 50
cache_entries = 10
max_heap_mb = 256

[watch]
debounce = "250ms"

[observability]
metrics_address = "127.0.0.1:9464"
metrics_textfile = "metrics/xref.prom"
otlp_endpoint = "localhost:4317"
`)
	base := filepath.Dir(path)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(base, "src", "main", "java"), filepath.Clean("/abs/src")}, cfg.Sources.Roots)
	assert.Equal(t, []string{"**/generated/**"}, cfg.Sources.Exclude)
	assert.Equal(t, []string{".git"}, cfg.Sources.ExcludeDirs)
	assert.Equal(t, "ISO-8859-1", cfg.Sources.InputEncoding)
	assert.Equal(t, filepath.Join(base, "target", "xref"), cfg.Output.Destination)
	assert.Equal(t, filepath.Join(base, "target", "symbols.db"), cfg.Output.SymbolDB)
	assert.Equal(t, filepath.Join(base, "target", "xref.sarif"), cfg.Output.FindingsSARIF)
	assert.Equal(t, filepath.Join(base, "target", "history.db"), cfg.Output.HistoryDB)
	assert.Equal(t, "Demo", cfg.Page.WindowTitle)
	assert.Equal(t, "Demo", cfg.Page.DocTitle)
	assert.False(t, cfg.Page.HeaderEnabled())
	assert.True(t, cfg.Page.FooterEnabled())
	assert.Equal(t, filepath.Join(base, "target", "apidocs"), cfg.External.BaseDirectory)
	assert.Equal(t, ExtractorTreeSitter, cfg.Symbols.Extractor)
	assert.Equal(t, Performance{Workers: 3, MaxFilesPerSecond: 50, CacheEntries: 10, MaxHeapMB: 256}, cfg.Performance)
	assert.Equal(t, 250*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, filepath.Join(base, "metrics", "xref.prom"), cfg.Observability.MetricsTextfile)
	assert.Equal(t, DefaultServiceName, cfg.Observability.ServiceName)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "[sources\nroots = 1"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "EmptyRoot", mutate: func(c *Config) { c.Sources.Roots = []string{" "} }, wantErr: "sources.roots[0] must not be empty"},
		{name: "BadInclude", mutate: func(c *Config) { c.Sources.Include = []string{"[a-"} }, wantErr: `sources.include[0] "[a-" is not a valid glob`},
		{name: "BadExcludeDir", mutate: func(c *Config) { c.Sources.ExcludeDirs = []string{""} }, wantErr: "sources.exclude_dirs[0] must not be empty"},
		{name: "UnknownInputEncoding", mutate: func(c *Config) { c.Sources.InputEncoding = "klingon-8" }, wantErr: `sources.input_encoding "klingon-8"`},
		{name: "UnknownOutputEncoding", mutate: func(c *Config) { c.Output.OutputEncoding = "klingon-8" }, wantErr: `output.output_encoding "klingon-8"`},
		{name: "SymbolDBExtension", mutate: func(c *Config) { c.Output.SymbolDB = "symbols.json" }, wantErr: "output.symbol_db"},
		{name: "HistoryDBExtension", mutate: func(c *Config) { c.Output.HistoryDB = "runs.txt" }, wantErr: "output.history_db"},
		{name: "SharedDatabase", mutate: func(c *Config) { c.Output.SymbolDB = "x.db"; c.Output.HistoryDB = "x.db" }, wantErr: "output.history_db must differ"},
		{name: "ExternalWithoutBase", mutate: func(c *Config) { c.External.Enabled = true }, wantErr: "external.base_directory must be set"},
		{name: "Extractor", mutate: func(c *Config) { c.Symbols.Extractor = "regex" }, wantErr: "symbols.extractor must be one of"},
		{name: "Workers", mutate: func(c *Config) { c.Performance.Workers = 0 }, wantErr: "performance.workers must be >= 1"},
		{name: "Rate", mutate: func(c *Config) { c.Performance.MaxFilesPerSecond = -1 }, wantErr: "performance.max_files_per_second"},
		{name: "Cache", mutate: func(c *Config) { c.Performance.CacheEntries = -5 }, wantErr: "performance.cache_entries"},
		{name: "Heap", mutate: func(c *Config) { c.Performance.MaxHeapMB = -1 }, wantErr: "performance.max_heap_mb"},
		{name: "Debounce", mutate: func(c *Config) { c.Watch.Debounce = -time.Second }, wantErr: "watch.debounce"},
		{name: "MetricsAddress", mutate: func(c *Config) { c.Observability.MetricsAddress = "9464" }, wantErr: "observability.metrics_address"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tc.wantErr), "got %q, want substring %q", err.Error(), tc.wantErr)
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("XREF_OUTPUT_DESTINATION", "/tmp/site")
	t.Setenv("XREF_PERFORMANCE_WORKERS", "7")
	t.Setenv("XREF_PERFORMANCE_MAX_HEAP_MB", "not-a-number")
	t.Setenv("XREF_EXTERNAL_ENABLED", "TRUE")
	t.Setenv("XREF_WATCH_DEBOUNCE", "2s")
	t.Setenv("XREF_OUTPUT_HISTORY_DB", "/tmp/runs.db")

	cfg := Default()
	ApplyEnvOverrides(cfg)

	assert.Equal(t, "/tmp/site", cfg.Output.Destination)
	assert.Equal(t, 7, cfg.Performance.Workers)
	assert.Zero(t, cfg.Performance.MaxHeapMB)
	assert.True(t, cfg.External.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Watch.Debounce)
	assert.Equal(t, "/tmp/runs.db", cfg.Output.HistoryDB)
}

func TestResolveRelative(t *testing.T) {
	base := filepath.FromSlash("/work/project")
	assert.Equal(t, filepath.Clean(base), ResolveRelative(base, "  "))
	assert.Equal(t, filepath.Join(base, "src"), ResolveRelative(base, "./src/"))
	assert.Equal(t, filepath.Clean("/elsewhere"), ResolveRelative(base, "/elsewhere"))
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, "[output]\ndestination = \"a\"\n")

	reloaded := make(chan *Config, 4)
	w := NewWatcher(path, 20*time.Millisecond, func(cfg *Config) { reloaded <- cfg })
	require.NoError(t, w.Start(t.Context()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("[output]\ndestination = \"b\"\n"), 0o644))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, filepath.Join(filepath.Dir(path), "b"), cfg.Output.Destination)
	case <-time.After(5 * time.Second):
		t.Fatal("config was not reloaded")
	}
}

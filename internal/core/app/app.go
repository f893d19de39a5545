package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"xref/internal/core/config"
	coreerrors "xref/internal/core/errors"
	"xref/internal/core/ports"
	"xref/internal/engine/lexer"
	"xref/internal/engine/resolver"
	"xref/internal/engine/symbols"
	"xref/internal/shared/observability"
	"xref/internal/shared/util"
	"xref/internal/shared/version"
	"xref/internal/ui/report/formats"
	"xref/internal/ui/report/xref"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Run phases, in order.
const (
	PhaseScan    = "scan"
	PhaseLoad    = "load"
	PhaseSymbols = "symbols"
	PhaseEmit    = "emit"
	PhaseIndex   = "index"
)

// Progress is sent to the progress handler as work completes.
type Progress struct {
	Phase string
	Done  int
	Total int
	Path  string
}

type App struct {
	Config    *config.Config
	matcher   *SourceMatcher
	codec     *codec
	extractor symbols.Extractor
	limiter   *util.Limiter

	// Overrides is applied to every configuration reloaded by Watch, so
	// command-line and environment settings survive a reload.
	Overrides func(*config.Config)

	// OpenHistory opens output.history_db. Defaults to the SQLite store.
	OpenHistory ports.HistoryOpener

	runMu sync.Mutex

	progressMu sync.Mutex
	onProgress func(Progress)

	statusMu sync.RWMutex
	running  bool
	lastRun  *Report
	lastErr  error
}

func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, coreerrors.New(coreerrors.CodeValidationError, "config is required")
	}
	matcher, err := NewSourceMatcher(cfg.Sources)
	if err != nil {
		return nil, err
	}
	c, err := newCodec(cfg.Sources.InputEncoding, cfg.Output.OutputEncoding)
	if err != nil {
		return nil, err
	}

	var extractor symbols.Extractor = symbols.TokenExtractor{}
	if cfg.Symbols.Extractor == config.ExtractorTreeSitter {
		extractor = symbols.NewTreeSitterExtractor()
	}

	return &App{
		Config:    cfg,
		matcher:   matcher,
		codec:     c,
		extractor: extractor,
		limiter:   util.NewPerSecondLimiter(cfg.Performance.MaxFilesPerSecond),

		OpenHistory: ports.OpenSQLiteHistory,
	}, nil
}

func (a *App) SetProgressHandler(handler func(Progress)) {
	a.progressMu.Lock()
	defer a.progressMu.Unlock()
	a.onProgress = handler
}

func (a *App) progress(p Progress) {
	a.progressMu.Lock()
	defer a.progressMu.Unlock()
	if a.onProgress != nil {
		a.onProgress(p)
	}
}

// sourceUnit is what pass 1 keeps of a file for the rest of the run.
// Tokens live in the content cache.
type sourceUnit struct {
	file    SourceFile
	header  symbols.Header
	docPath string
}

// collector gathers per-file results from concurrent workers.
type collector struct {
	mu      sync.Mutex
	report  *Report
	emitted []xref.EmittedDocument
}

func (c *collector) fail(path, stage string, err error) {
	observability.FileFailuresTotal.WithLabelValues(stage).Inc()
	slog.Warn("file skipped", "path", path, "stage", stage, "error", err)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report.Failures = append(c.report.Failures, FileFailure{
		Path:  path,
		Stage: stage,
		Code:  coreerrors.CodeOf(err),
		Err:   err,
	})
}

func (c *collector) done(doc xref.EmittedDocument, ambiguous []xref.AmbiguousRef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.emitted = append(c.emitted, doc)
	c.report.Ambiguous = append(c.report.Ambiguous, ambiguous...)
	c.report.FilesEmitted++
}

// Run generates the whole tree: scan, load and tokenize, build the symbol
// table, emit every document, then index. Files that fail are reported and
// skipped; the returned error is reserved for failures of the run itself.
func (a *App) Run(ctx context.Context) (report *Report, err error) {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	report = &Report{
		RunID:       uuid.NewString(),
		Destination: a.Config.Output.Destination,
		Started:     time.Now(),
	}
	ctx, span := observability.Tracer.Start(ctx, "app.Run", trace.WithAttributes(
		attribute.String("run_id", report.RunID),
		attribute.String("destination", report.Destination),
	))
	defer span.End()

	a.setRunning()
	defer func() {
		report.Finished = time.Now()
		report.sortFindings()
		a.finishRun(report, err)
		if err != nil {
			span.RecordError(err)
		}
	}()

	log := slog.With("run_id", report.RunID)
	out := &collector{report: report}

	cache, err := newContentCache(a.Config.Performance.CacheEntries)
	if err != nil {
		return report, coreerrors.Wrap(err, coreerrors.CodeInternal, "create content cache")
	}
	defer cache.close()

	files, err := timed(PhaseScan, func() ([]SourceFile, error) { return a.ScanSources() })
	if err != nil {
		return report, err
	}
	report.FilesScanned = len(files)
	a.progress(Progress{Phase: PhaseScan, Done: len(files), Total: len(files)})
	log.Info("scanned sources", "files", len(files), "roots", a.Config.Sources.Roots)

	units, err := timed(PhaseLoad, func() ([]*sourceUnit, error) { return a.loadSources(ctx, files, cache, out) })
	if err != nil {
		return report, err
	}

	// Barrier 1: the table is complete before any document is resolved.
	table, emitUnits := a.buildSymbols(ctx, units, out)
	report.TypesIndexed = table.Len()
	report.PackagesIndexed = len(table.Packages())

	if _, err := timed(PhaseEmit, func() (struct{}, error) {
		return struct{}{}, a.emitDocuments(ctx, table, emitUnits, cache, out)
	}); err != nil {
		return report, err
	}

	// Barrier 2: every document is on disk before the index is written.
	if _, err := timed(PhaseIndex, func() (struct{}, error) {
		return struct{}{}, a.writeIndex(ctx, table, out.emitted)
	}); err != nil {
		return report, err
	}

	report.sortFindings()
	if path := a.Config.Output.FindingsSARIF; path != "" {
		if err := a.writeFindings(path, report); err != nil {
			return report, err
		}
	}

	if path := a.Config.Observability.MetricsTextfile; path != "" {
		if err := observability.WriteTextfile(path); err != nil {
			report.Warnings = append(report.Warnings, err.Error())
			log.Warn("failed to write metrics textfile", "path", path, "error", err)
		}
	}

	log.Info("generation finished",
		"emitted", report.FilesEmitted,
		"failed", len(report.Failures),
		"types", report.TypesIndexed,
		"ambiguous", len(report.Ambiguous),
		"duplicates", len(report.Duplicates),
	)
	return report, nil
}

func timed[T any](phase string, fn func() (T, error)) (T, error) {
	started := time.Now()
	v, err := fn()
	observability.PhaseDuration.WithLabelValues(phase).Observe(time.Since(started).Seconds())
	return v, err
}

// readSource reads, decodes and tokenizes one file.
func (a *App) readSource(path string) ([]byte, []lexer.Token, error) {
	started := time.Now()
	defer func() { observability.TokenizeDuration.Observe(time.Since(started).Seconds()) }()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, coreerrors.Wrap(err, coreerrors.CodeNotFound, "read source")
	}
	text, err := a.codec.decode(data)
	if err != nil {
		return nil, nil, err
	}
	return []byte(text), lexer.Tokenize(text), nil
}

// loadSources is pass 1: every file is read, tokenized and has its header
// extracted. Results keep the order of files.
func (a *App) loadSources(ctx context.Context, files []SourceFile, cache *contentCache, out *collector) ([]*sourceUnit, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.loadSources")
	defer span.End()

	units := make([]*sourceUnit, len(files))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.Config.Performance.Workers)
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			defer func() {
				a.progress(Progress{Phase: PhaseLoad, Done: int(done.Add(1)), Total: len(files), Path: file.Path})
			}()

			text, tokens, err := a.readSource(file.Path)
			if err != nil {
				out.fail(file.Path, StageRead, err)
				return nil
			}
			header, err := a.extractor.ExtractHeader(text, tokens)
			if err != nil {
				out.fail(file.Path, StageSymbols, coreerrors.Wrap(err, coreerrors.CodeInternal, "extract header"))
				return nil
			}
			cache.put(file.Path, tokens)
			units[i] = &sourceUnit{file: file, header: header}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	loaded := make([]*sourceUnit, 0, len(units))
	for _, u := range units {
		if u != nil {
			loaded = append(loaded, u)
		}
	}
	return loaded, nil
}

// buildSymbols registers every unit in path order. It returns the sealed
// table and the units that own a document.
func (a *App) buildSymbols(ctx context.Context, units []*sourceUnit, out *collector) (*symbols.Table, []*sourceUnit) {
	_, span := observability.Tracer.Start(ctx, "app.buildSymbols")
	defer span.End()
	started := time.Now()
	defer func() {
		observability.PhaseDuration.WithLabelValues(PhaseSymbols).Observe(time.Since(started).Seconds())
	}()

	dest := a.Config.Output.Destination
	builder := symbols.NewBuilder(dest)
	owners := make(map[string]string, len(units))
	emit := make([]*sourceUnit, 0, len(units))

	for i, u := range units {
		u.docPath = symbols.DocumentPath(dest, u.header.Package, u.file.Path)
		if xref.ReservedPath(dest, u.docPath) {
			err := &coreerrors.DomainError{
				Code:    coreerrors.CodeConflict,
				Message: "output document collides with a generated index page",
				Context: map[string]interface{}{coreerrors.CtxPath: u.docPath},
			}
			out.fail(u.file.Path, StageSymbols, err)
			continue
		}
		if owner, taken := owners[u.docPath]; taken {
			err := &coreerrors.DomainError{
				Code:    coreerrors.CodeConflict,
				Message: "output document already produced by " + owner,
				Context: map[string]interface{}{coreerrors.CtxPath: u.docPath},
			}
			out.fail(u.file.Path, StageSymbols, err)
			continue
		}
		owners[u.docPath] = u.file.Path
		emit = append(emit, u)

		for _, dup := range builder.Add(u.file.Path, u.header) {
			observability.DuplicateTypesTotal.Inc()
			slog.Warn("duplicate type declaration ignored",
				"type", dup.QualifiedName, "kept", dup.KeptSource, "ignored", dup.IgnoredSource, "line", dup.Line)
		}
		a.progress(Progress{Phase: PhaseSymbols, Done: i + 1, Total: len(units), Path: u.file.Path})
	}
	out.report.Duplicates = builder.Duplicates()
	table := builder.Build()
	observability.SymbolTableTypes.Set(float64(table.Len()))

	for _, u := range emit {
		for _, imp := range resolver.NewFileContext(u.header).SingleTypeImports() {
			if _, ok := table.Lookup(imp.Path); !ok {
				out.report.UnresolvedImports = append(out.report.UnresolvedImports, UnresolvedImport{
					SourcePath: u.file.Path,
					Line:       imp.Line,
					Import:     imp.Path,
				})
			}
		}
	}

	if db := a.Config.Output.SymbolDB; db != "" {
		if err := symbols.ExportSQLite(ctx, db, table); err != nil {
			out.report.Warnings = append(out.report.Warnings, err.Error())
			slog.Warn("symbol export failed", "path", db, "error", err)
		} else {
			slog.Info("exported symbol table", "path", db, "types", table.Len())
		}
	}
	return table, emit
}

func (a *App) xrefOptions() xref.Options {
	page := a.Config.Page
	return xref.Options{
		DestRoot: a.Config.Output.Destination,
		Page: xref.PageOptions{
			WindowTitle: page.WindowTitle,
			DocTitle:    page.DocTitle,
			Bottom:      page.Bottom,
			Header:      page.Header,
			Footer:      page.Footer,
			ShowHeader:  page.HeaderEnabled(),
			ShowFooter:  page.FooterEnabled(),
			Revision:    page.Revision,
			Charset:     a.codec.charset(),
		},
		External: xref.ExternalLinks{
			Enabled:       a.Config.External.Enabled,
			BaseDirectory: a.Config.External.BaseDirectory,
		},
	}
}

// emitDocuments is pass 2. Workers share only the immutable table; each
// writes its own document.
func (a *App) emitDocuments(ctx context.Context, table *symbols.Table, units []*sourceUnit, cache *contentCache, out *collector) error {
	ctx, span := observability.Tracer.Start(ctx, "app.emitDocuments", trace.WithAttributes(attribute.Int("documents", len(units))))
	defer span.End()

	emitter := xref.NewEmitter(table, a.xrefOptions())
	maxHeap := a.Config.Performance.MaxHeapMB
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.Config.Performance.Workers)
	for _, u := range units {
		g.Go(func() error {
			if err := a.limiter.Wait(gctx, 1); err != nil {
				return err
			}
			defer func() {
				a.progress(Progress{Phase: PhaseEmit, Done: int(done.Add(1)), Total: len(units), Path: u.file.Path})
			}()

			if util.HeapAbove(maxHeap) {
				slog.Debug("heap above limit, purging content cache", "limit_mb", maxHeap, "entries", cache.size())
				cache.purge()
			}

			if err := a.emitOne(emitter, u, cache, out); err != nil {
				out.fail(u.file.Path, StageEmit, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (a *App) emitOne(emitter *xref.Emitter, u *sourceUnit, cache *contentCache, out *collector) error {
	started := time.Now()
	tokens, ok := cache.get(u.file.Path)
	if !ok {
		_, reloaded, err := a.readSource(u.file.Path)
		if err != nil {
			return err
		}
		tokens = reloaded
	}

	doc := xref.Document{
		SourcePath: u.file.Path,
		OutputPath: u.docPath,
		Context:    resolver.NewFileContext(u.header),
		Tokens:     tokens,
	}
	if len(u.header.Types) > 0 {
		doc.PrimaryType = symbols.Qualify(u.header.Package, u.header.Types[0].Name)
	}

	page, stats, err := emitter.Render(doc)
	if err != nil {
		return coreerrors.AddContext(err, coreerrors.CtxPath, u.file.Path)
	}
	data, err := a.codec.encode(page)
	if err != nil {
		return err
	}
	if err := util.WriteFileAtomic(u.docPath, data, 0o644); err != nil {
		return coreerrors.Wrap(err, coreerrors.CodeInternal, "write "+u.docPath)
	}

	observability.FilesEmittedTotal.Inc()
	observability.AmbiguousReferencesTotal.Add(float64(len(stats.Ambiguous)))
	observability.EmitDuration.Observe(time.Since(started).Seconds())
	for _, ref := range stats.Ambiguous {
		slog.Debug("ambiguous reference left unlinked", "path", ref.SourcePath, "line", ref.Line, "name", ref.Name, "candidates", ref.Candidates)
	}
	out.done(xref.EmittedDocument{SourcePath: u.file.Path, OutputPath: u.docPath, Package: u.header.Package}, stats.Ambiguous)
	return nil
}

func (a *App) writeIndex(ctx context.Context, table *symbols.Table, docs []xref.EmittedDocument) error {
	_, span := observability.Tracer.Start(ctx, "app.writeIndex")
	defer span.End()

	pages, err := xref.NewIndexer(a.xrefOptions()).Pages(table, docs)
	if err != nil {
		return coreerrors.Wrap(err, coreerrors.CodeInternal, "build index pages")
	}
	for i, page := range pages {
		data, err := a.codec.encode(page.Content)
		if err != nil {
			return fmt.Errorf("index page %s: %w", page.Path, err)
		}
		if err := util.WriteFileAtomic(page.Path, data, 0o644); err != nil {
			return coreerrors.Wrap(err, coreerrors.CodeInternal, "write index page "+page.Path)
		}
		a.progress(Progress{Phase: PhaseIndex, Done: i + 1, Total: len(pages), Path: page.Path})
	}
	return nil
}

func (a *App) writeFindings(path string, report *Report) error {
	data, err := formats.GenerateSARIF(uniqueRoots(a.Config.Sources.Roots), version.Version, report.Findings())
	if err != nil {
		return err
	}
	if err := util.WriteFileAtomic(path, data, 0o644); err != nil {
		return coreerrors.Wrap(err, coreerrors.CodeInternal, "write findings "+path)
	}
	return nil
}

func (a *App) setRunning() {
	a.statusMu.Lock()
	defer a.statusMu.Unlock()
	a.running = true
}

func (a *App) finishRun(report *Report, err error) {
	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
	case report.Failed():
		outcome = "partial"
	}
	observability.RunsTotal.WithLabelValues(outcome).Inc()

	if path := a.Config.Output.HistoryDB; path != "" {
		if err := recordRun(a.OpenHistory, path, report, outcome); err != nil {
			report.Warnings = append(report.Warnings, err.Error())
			slog.Warn("failed to record run history", "path", path, "error", err)
		}
	}

	a.statusMu.Lock()
	defer a.statusMu.Unlock()
	a.running = false
	a.lastRun = report
	a.lastErr = err
}

// LastRun returns the report and error of the most recent finished run.
func (a *App) LastRun() (*Report, error) {
	a.statusMu.RLock()
	defer a.statusMu.RUnlock()
	return a.lastRun, a.lastErr
}

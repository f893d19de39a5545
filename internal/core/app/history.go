package app

import (
	"xref/internal/core/ports"
	"xref/internal/data/history"
)

// recordRun appends the run's summary to the history database.
func recordRun(open ports.HistoryOpener, path string, report *Report, outcome string) error {
	store, err := open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	return store.SaveSnapshot(history.Snapshot{
		RunID:           report.RunID,
		Destination:     report.Destination,
		Timestamp:       report.Started.UTC(),
		Duration:        report.Duration(),
		Outcome:         outcome,
		FilesScanned:    report.FilesScanned,
		FilesEmitted:    report.FilesEmitted,
		FilesFailed:     len(report.Failures),
		TypesIndexed:    report.TypesIndexed,
		PackagesIndexed: report.PackagesIndexed,
		AmbiguousCount:  len(report.Ambiguous),
		DuplicateCount:  len(report.Duplicates),
		UnresolvedCount: len(report.UnresolvedImports),
	})
}

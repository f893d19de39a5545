package ports

import (
	"time"

	"xref/internal/data/history"
)

// HistoryStore abstracts run-summary persistence for the generator and the
// history command.
type HistoryStore interface {
	SaveSnapshot(snapshot history.Snapshot) error
	LoadSnapshots(destination string, since time.Time, limit int) ([]history.Snapshot, error)
	Close() error
}

// HistoryOpener opens the store backing output.history_db.
type HistoryOpener func(path string) (HistoryStore, error)

// OpenSQLiteHistory is the default HistoryOpener.
func OpenSQLiteHistory(path string) (HistoryStore, error) {
	store, err := history.Open(path)
	if err != nil {
		return nil, err
	}
	return store, nil
}

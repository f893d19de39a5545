package history

import "time"

const SchemaVersion = 1

// Snapshot is the summary of one generation run.
type Snapshot struct {
	SchemaVersion   int           `json:"schema_version"`
	RunID           string        `json:"run_id"`
	Destination     string        `json:"destination"`
	Timestamp       time.Time     `json:"timestamp"`
	Duration        time.Duration `json:"duration"`
	Outcome         string        `json:"outcome"`
	FilesScanned    int           `json:"files_scanned"`
	FilesEmitted    int           `json:"files_emitted"`
	FilesFailed     int           `json:"files_failed"`
	TypesIndexed    int           `json:"types_indexed"`
	PackagesIndexed int           `json:"packages_indexed"`
	AmbiguousCount  int           `json:"ambiguous_count"`
	DuplicateCount  int           `json:"duplicate_count"`
	UnresolvedCount int           `json:"unresolved_import_count"`
}

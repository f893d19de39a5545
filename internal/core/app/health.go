package app

import (
	"context"
	"fmt"
	"time"
)

type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components"`
}

type HealthService struct {
	app *App
}

func NewHealthService(app *App) *HealthService {
	return &HealthService{app: app}
}

// Check reports "up" once a run has finished without a run-level error,
// "degraded" when the last run skipped files, and "down" when it failed.
func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	s.app.statusMu.RLock()
	running := s.app.running
	last := s.app.lastRun
	lastErr := s.app.lastErr
	s.app.statusMu.RUnlock()

	if running {
		status.Components["generator"] = "running"
	} else {
		status.Components["generator"] = "idle"
	}

	switch {
	case last == nil:
		status.Status = "starting"
		status.Components["last_run"] = "none"
	case lastErr != nil:
		status.Status = "down"
		status.Components["last_run"] = "failed: " + lastErr.Error()
	case last.Failed():
		status.Status = "degraded"
		status.Components["last_run"] = fmt.Sprintf("%d emitted, %d skipped", last.FilesEmitted, len(last.Failures))
	default:
		status.Components["last_run"] = fmt.Sprintf("ok (%d documents, %d types)", last.FilesEmitted, last.TypesIndexed)
	}
	if last != nil {
		status.Components["run_id"] = last.RunID
		status.Components["finished"] = last.Finished.UTC().Format(time.RFC3339)
	}

	if err := ctx.Err(); err != nil {
		status.Status = "down"
		status.Components["context"] = err.Error()
	}
	return status
}

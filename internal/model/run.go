package model

import "time"

// RunStatus is the lifecycle state of one upload run.
type RunStatus string

const (
	RunRunning RunStatus = "running"
	RunDone    RunStatus = "done"
	RunFailed  RunStatus = "failed"
)

// Run records one processed upload.
type Run struct {
	ID         string    `json:"id"`
	FileName   string    `json:"file_name"`
	FilePath   string    `json:"file_path"`
	Status     RunStatus `json:"status"`
	Error      string    `json:"error,omitempty"`
	RowCount   int       `json:"row_count"`
	Passed     int       `json:"passed"`
	Failed     int       `json:"failed"`
	Captured   int       `json:"captured"`
	StartedAt  time.Time `json:"started_at"`
	// FinishedAt is nil while the run is in progress.
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Rows       []*Row    `json:"rows,omitempty"`
}

// Finish sets the final status and the finish time.
func (r *Run) Finish(status RunStatus, at time.Time) {
	at = at.UTC()
	r.Status = status
	r.FinishedAt = &at
}

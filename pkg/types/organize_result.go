package types

import "time"

// Status is the overall outcome of one engine run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusSkipped Status = "skipped"
)

// OrganizeResult holds the outcome of one engine run over a directory.
type OrganizeResult struct {
	RunID      string        `json:"run_id"`
	Directory  string        `json:"directory"`
	Status     Status        `json:"status"`
	Filter     string        `json:"filter,omitempty"` // Filter that stopped the chain
	Error      error         `json:"-"`
	FilesMoved int           `json:"files_moved"`
	BytesMoved int64         `json:"bytes_moved"`
	Started    time.Time     `json:"started"`
	Duration   time.Duration `json:"duration"`
}

// OK reports whether the run completed or was skipped without error.
func (r OrganizeResult) OK() bool {
	return r.Status != StatusFailure
}

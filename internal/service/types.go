// Package service manages asynchronous validation runs. It has no UI
// dependencies and is shared by the HTTP handlers and the CLI.
package service

import "fileproof/internal/validate"

// Phase indicates the current stage of a validation run.
type Phase string

const (
	PhaseStarting  Phase = "starting"
	PhaseRunning   Phase = "running"
	PhaseComplete  Phase = "complete"
	PhaseCancelled Phase = "cancelled"
	PhaseFailed    Phase = "failed"
)

// Progress represents the current state of a validation run.
type Progress struct {
	SessionID string  `json:"sessionId"`
	FileName  string  `json:"fileName"`
	Phase     Phase   `json:"phase"`
	Percent   float64 `json:"percent"`
	Rows      int     `json:"rows"`
	Errors    int     `json:"errors"`
	Error     string  `json:"error,omitempty"` // non-empty if Phase is PhaseFailed
}

// Options configures a validation run.
type Options struct {
	// Delimiter pins the field separator for delimited files. Zero means
	// auto-detect. Ignored for JSON files.
	Delimiter byte

	// CheckDuplicates enables duplicate row detection for delimited files.
	CheckDuplicates bool

	// MaxErrors caps the recorded error and warning lists. Zero uses the
	// engine default.
	MaxErrors int
}

// phaseFor maps a finished report to its terminal phase.
func phaseFor(r *validate.Report) Phase {
	if r.Cancelled {
		return PhaseCancelled
	}
	return PhaseComplete
}

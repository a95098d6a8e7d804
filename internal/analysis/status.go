package analysis

// Job statuses. Transitions only ever move forward; the sole way back to
// not_started is a restart, which deletes the job record outright.
const (
	StatusNotStarted = "not_started"
	StatusUploading  = "uploading"
	StatusAnalyzing  = "analyzing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusTimeout    = "timeout"
)

var statusRank = map[string]int{
	StatusNotStarted: 0,
	StatusUploading:  1,
	StatusAnalyzing:  2,
	StatusCompleted:  3,
	StatusFailed:     3,
	StatusTimeout:    3,
}

// IsTerminal reports whether a job in this status will never progress on
// its own.
func IsTerminal(status string) bool {
	switch status {
	case StatusCompleted, StatusFailed, StatusTimeout:
		return true
	}
	return false
}

// transitionAllowed enforces the forward-only invariant.
func transitionAllowed(from, to string) bool {
	if IsTerminal(from) {
		return false
	}
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	return toRank > fromRank
}

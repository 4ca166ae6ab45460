package domain

// ProgressEvent is one update emitted by a long-running aggregation job.
// Current is monotonically non-decreasing and Total is constant once known.
// Exactly one terminal event closes a stream: Done set, or Error non-empty.
type ProgressEvent struct {
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Message string `json:"message,omitempty"`
	Done    bool   `json:"done,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Terminal reports whether the event closes the stream.
func (e ProgressEvent) Terminal() bool {
	return e.Done || e.Error != ""
}

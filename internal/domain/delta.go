package domain

import "time"

// StateDelta is the serializable catch-up response for a replica that
// reconnects at a known version. Operations are ordered by ascending
// version. If FromVersion predates the retained window the delta simply
// holds what remains; gap detection is the caller's concern.
type StateDelta struct {
	CanvasID    string      `json:"canvas_id"`
	FromVersion int64       `json:"from_version"`
	ToVersion   int64       `json:"to_version"`
	Operations  []Operation `json:"operations"`
	Timestamp   time.Time   `json:"timestamp"`
}

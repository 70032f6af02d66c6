package domain

// ResolutionType classifies the outcome of arbitrating two concurrent
// operations on the same target.
type ResolutionType string

// ResolutionType values.
const (
	// ResolutionNone means no concurrent prior operation was found.
	ResolutionNone ResolutionType = "none"
	// ResolutionAutoMerge means the operations touched independent state
	// and both survive, combined into one payload.
	ResolutionAutoMerge ResolutionType = "auto_merge"
	// ResolutionLastWriteWins means the operations overlapped and one
	// payload was chosen deterministically.
	ResolutionLastWriteWins ResolutionType = "last_write_wins"
	// ResolutionManualRequired is reserved for operation kinds the engine
	// refuses to arbitrate; such operations are not stored.
	ResolutionManualRequired ResolutionType = "manual_required"
)

// ConflictResolution reports how a concurrent pair was resolved. Data is
// the payload callers should treat as authoritative for rendered state:
// the shallow union for auto-merge, the winner's payload for
// last-write-wins, nil otherwise. The log never rewrites stored history.
type ConflictResolution struct {
	Type     ResolutionType `json:"type"`
	Data     Payload        `json:"data,omitempty"`
	WinnerID string         `json:"winner_id,omitempty"`
	// Conflicts carries the concurrent pair for audit and debugging.
	Conflicts []Operation `json:"conflicts,omitempty"`
}

package domain

import (
	"slices"
	"strings"
	"time"

	"github.com/hkcm91/stickersync/internal/vclock"
)

// OperationType classifies an edit to canvas or widget state. Move and
// resize are distinct types because position and size are merged as
// independent axes.
type OperationType string

// OperationType values stamped on log entries.
const (
	OperationCreate OperationType = "create"
	OperationUpdate OperationType = "update"
	OperationMove   OperationType = "move"
	OperationResize OperationType = "resize"
	OperationDelete OperationType = "delete"
)

var validOperationTypes = []OperationType{
	OperationCreate,
	OperationUpdate,
	OperationMove,
	OperationResize,
	OperationDelete,
}

// TargetType names the kind of entity an operation touches.
type TargetType string

// TargetType values.
const (
	TargetWidget TargetType = "widget"
	TargetCanvas TargetType = "canvas"
)

var validTargetTypes = []TargetType{TargetWidget, TargetCanvas}

// Payload is the flat key-value record describing an operation's new
// state. A nil payload means the operation carries no record-shaped data
// and is never eligible for key-level auto-merge.
type Payload map[string]any

// Clone returns an independent shallow copy of the payload.
func (p Payload) Clone() Payload {
	if p == nil {
		return nil
	}
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Keys returns the payload's touched keys in sorted order.
func (p Payload) Keys() []string {
	out := make([]string, 0, len(p))
	for k := range p {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Operation is the atomic unit of change recorded by a replica's log.
// Version is the originating log's monotonic counter and serves delta
// queries only; causality is carried by VectorClock. Timestamp is the
// wall-clock creation instant and is used only as a conflict tie-breaker
// and retention-age signal.
type Operation struct {
	ID           string        `json:"id"`
	Type         OperationType `json:"type"`
	TargetID     string        `json:"target_id"`
	TargetType   TargetType    `json:"target_type"`
	Data         Payload       `json:"data,omitempty"`
	PreviousData Payload       `json:"previous_data,omitempty"`
	Version      int64         `json:"version"`
	VectorClock  vclock.Clock  `json:"vector_clock"`
	UserID       string        `json:"user_id,omitempty"`
	ServerID     string        `json:"server_id"`
	Timestamp    time.Time     `json:"timestamp"`
}

// Validate checks the invariants a remote operation must satisfy before
// it may enter an operation log. Locally recorded operations are
// constructed by the log itself and never pass through here.
func (op Operation) Validate() error {
	if strings.TrimSpace(op.ID) == "" {
		return ErrInvalidID
	}
	if !slices.Contains(validOperationTypes, op.Type) {
		return ErrInvalidType
	}
	if strings.TrimSpace(op.TargetID) == "" {
		return ErrInvalidTargetID
	}
	if !slices.Contains(validTargetTypes, op.TargetType) {
		return ErrInvalidTargetType
	}
	if op.Version <= 0 {
		return ErrInvalidVersion
	}
	if len(op.VectorClock) == 0 {
		return ErrMissingClock
	}
	if strings.TrimSpace(op.ServerID) == "" {
		return ErrMissingServerID
	}
	return nil
}

// Package app implements the per-canvas operation log: local recording,
// remote ingestion with conflict arbitration, delta queries, and bounded
// history retention.
package app

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/hkcm91/stickersync/internal/domain"
	"github.com/hkcm91/stickersync/internal/vclock"
)

// IDGenerator returns unique identifiers for new operations.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// DefaultMaxOperations and DefaultMaxAge bound retained history when the
// configuration leaves them unset.
const (
	DefaultMaxOperations = 10000
	DefaultMaxAge        = 24 * time.Hour
)

// Config holds per-canvas log configuration.
type Config struct {
	CanvasID      string
	ReplicaID     string
	MaxOperations int
	MaxAge        time.Duration
}

// Log is the operation log for one canvas. It owns its operation map,
// target index, vector clock, and version counter; all of them change
// only through Log methods. Public methods serialize on one mutex, so a
// single Log is safe to share while distinct canvases proceed in
// parallel. Version and clock advancement are monotonic and there is no
// terminal state.
type Log struct {
	mu sync.Mutex

	canvasID  string
	replicaID string
	maxOps    int
	maxAge    time.Duration
	idGen     IDGenerator
	now       Clock

	operations map[string]domain.Operation
	targets    map[string][]string
	clock      vclock.Clock
	version    int64
}

// NewLog constructs a log for one canvas. A nil idGen falls back to
// random UUIDs and a nil now falls back to the system clock; tests inject
// deterministic versions of both.
func NewLog(cfg Config, idGen IDGenerator, now Clock) *Log {
	if idGen == nil {
		idGen = uuid.NewString
	}
	if now == nil {
		now = time.Now
	}
	if cfg.MaxOperations <= 0 {
		cfg.MaxOperations = DefaultMaxOperations
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultMaxAge
	}

	return &Log{
		canvasID:   cfg.CanvasID,
		replicaID:  cfg.ReplicaID,
		maxOps:     cfg.MaxOperations,
		maxAge:     cfg.MaxAge,
		idGen:      idGen,
		now:        now,
		operations: make(map[string]domain.Operation),
		targets:    make(map[string][]string),
		clock:      vclock.New(),
		version:    0,
	}
}

// CanvasID returns the canvas this log belongs to.
func (l *Log) CanvasID() string {
	return l.canvasID
}

// ReplicaID returns the replica identity stamped on local operations.
func (l *Log) ReplicaID() string {
	return l.replicaID
}

// RecordOperation stores an edit originating at this replica. It
// advances the log's clock and version, stamps the operation with cloned
// snapshots of both, indexes it by target, and applies retention
// cleanup. It always succeeds and returns the stored operation.
func (l *Log) RecordOperation(opType domain.OperationType, targetID string, targetType domain.TargetType, data domain.Payload, userID string, previousData domain.Payload) domain.Operation {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.clock = l.clock.Increment(l.replicaID)
	l.version++

	op := domain.Operation{
		ID:           l.idGen(),
		Type:         opType,
		TargetID:     targetID,
		TargetType:   targetType,
		Data:         data.Clone(),
		PreviousData: previousData.Clone(),
		Version:      l.version,
		VectorClock:  l.clock.Clone(),
		UserID:       userID,
		ServerID:     l.replicaID,
		Timestamp:    l.now(),
	}

	l.storeLocked(op)
	l.cleanupLocked()
	return op
}

// ApplyRemoteOperation ingests an operation originated by another
// replica. The incoming clock is merged into the log's clock, which is
// then incremented for this replica so its own future operations
// causally follow the ingestion. If the most recently indexed operation
// for the same target is concurrent with the incoming one, the conflict
// is resolved before storage. Unless resolution is manual_required the
// operation is stored and the log's version advances to
// max(version, op.Version); it never regresses.
func (l *Log) ApplyRemoteOperation(op domain.Operation) (domain.ConflictResolution, error) {
	if err := op.Validate(); err != nil {
		return domain.ConflictResolution{}, fmt.Errorf("remote operation: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.clock = vclock.Merge(l.clock, op.VectorClock).Increment(l.replicaID)

	res := domain.ConflictResolution{Type: domain.ResolutionNone}
	if prior, ok := l.lastForTargetLocked(op.TargetID); ok && vclock.AreConcurrent(prior.VectorClock, op.VectorClock) {
		res = resolveConflict(prior, op)
		log.Debug("resolved concurrent operations",
			"canvas_id", l.canvasID,
			"target_id", op.TargetID,
			"resolution", res.Type,
			"local_op", prior.ID,
			"remote_op", op.ID)
	}

	if res.Type != domain.ResolutionManualRequired {
		if op.Version > l.version {
			l.version = op.Version
		}
		l.storeLocked(op)
	}
	return res, nil
}

// OperationsSince returns all stored operations with version greater
// than fromVersion, ordered by ascending version.
func (l *Log) OperationsSince(fromVersion int64) []domain.Operation {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.operationsSinceLocked(fromVersion)
}

// Delta packages the operations after fromVersion for transmission to a
// reconnecting or newly joined replica.
func (l *Log) Delta(canvasID string, fromVersion int64) domain.StateDelta {
	l.mu.Lock()
	defer l.mu.Unlock()

	return domain.StateDelta{
		CanvasID:    canvasID,
		FromVersion: fromVersion,
		ToVersion:   l.version,
		Operations:  l.operationsSinceLocked(fromVersion),
		Timestamp:   l.now(),
	}
}

// OperationsForTarget returns one entity's operation history in log
// insertion order.
func (l *Log) OperationsForTarget(targetID string) []domain.Operation {
	l.mu.Lock()
	defer l.mu.Unlock()

	ids := l.targets[targetID]
	out := make([]domain.Operation, 0, len(ids))
	for _, id := range ids {
		if op, ok := l.operations[id]; ok {
			out = append(out, op)
		}
	}
	return out
}

// Version returns the log's monotonic version counter.
func (l *Log) Version() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.version
}

// VectorClock returns an independent snapshot of the log's clock.
func (l *Log) VectorClock() vclock.Clock {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.clock.Clone()
}

// Size returns the number of retained operations.
func (l *Log) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.operations)
}

// Clear resets the log to an empty state with a fresh clock and zero
// version. Intended for canvas teardown and test fixtures.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.operations = make(map[string]domain.Operation)
	l.targets = make(map[string][]string)
	l.clock = vclock.New()
	l.version = 0
}

func (l *Log) storeLocked(op domain.Operation) {
	l.operations[op.ID] = op
	l.targets[op.TargetID] = append(l.targets[op.TargetID], op.ID)
}

func (l *Log) lastForTargetLocked(targetID string) (domain.Operation, bool) {
	ids := l.targets[targetID]
	if len(ids) == 0 {
		return domain.Operation{}, false
	}
	op, ok := l.operations[ids[len(ids)-1]]
	return op, ok
}

func (l *Log) operationsSinceLocked(fromVersion int64) []domain.Operation {
	out := make([]domain.Operation, 0)
	for _, op := range l.operations {
		if op.Version > fromVersion {
			out = append(out, op)
		}
	}
	// Versions assigned by different origin logs can tie, so ties break
	// on timestamp then ID to keep delta order deterministic.
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Version != b.Version {
			return a.Version < b.Version
		}
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		return a.ID < b.ID
	})
	return out
}

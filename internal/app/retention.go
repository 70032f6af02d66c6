package app

import (
	"sort"

	"github.com/charmbracelet/log"

	"github.com/hkcm91/stickersync/internal/domain"
)

// cleanupLocked enforces the dual retention bound. Eviction requires
// both conditions: the stored count exceeds the cap and the candidate is
// older than the max age. Old operations survive while the count is
// within bounds, and young operations survive any count pressure.
// Candidates leave oldest-timestamp first.
func (l *Log) cleanupLocked() {
	if len(l.operations) <= l.maxOps {
		return
	}

	ops := make([]domain.Operation, 0, len(l.operations))
	for _, op := range l.operations {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool {
		return ops[i].Timestamp.Before(ops[j].Timestamp)
	})

	cutoff := l.now().Add(-l.maxAge)
	for _, op := range ops {
		if len(l.operations) <= l.maxOps {
			return
		}
		if !op.Timestamp.Before(cutoff) {
			// Everything after this point is younger still.
			return
		}
		l.evictLocked(op)
		log.Debug("evicted expired operation",
			"canvas_id", l.canvasID,
			"op_id", op.ID,
			"target_id", op.TargetID,
			"retained", len(l.operations))
	}
}

// evictLocked removes one operation from the primary map and its target
// index, dropping the index entry when it empties.
func (l *Log) evictLocked(op domain.Operation) {
	delete(l.operations, op.ID)

	ids := l.targets[op.TargetID]
	for i, id := range ids {
		if id == op.ID {
			l.targets[op.TargetID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(l.targets[op.TargetID]) == 0 {
		delete(l.targets, op.TargetID)
	}
}

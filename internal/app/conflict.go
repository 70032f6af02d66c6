package app

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/hkcm91/stickersync/internal/domain"
)

// resolveConflict arbitrates two operations already known to be
// concurrent on the same target. Operations touching independent state
// are combined; overlapping operations fall to a deterministic
// last-write-wins tiebreak. The policy is deliberately conservative: it
// understands touched key sets, not field semantics.
func resolveConflict(local, remote domain.Operation) domain.ConflictResolution {
	conflicts := []domain.Operation{local, remote}

	if canAutoMerge(local, remote) {
		if merged, ok := autoMerge(local, remote); ok {
			return domain.ConflictResolution{
				Type:      domain.ResolutionAutoMerge,
				Data:      merged,
				Conflicts: conflicts,
			}
		}
	}

	winner := determineWinner(local, remote)
	return domain.ConflictResolution{
		Type:      domain.ResolutionLastWriteWins,
		Data:      winner.Data.Clone(),
		WinnerID:  winner.ID,
		Conflicts: conflicts,
	}
}

// canAutoMerge reports whether two concurrent operations touch
// independent state. Differing operation kinds are assumed semantically
// independent, which also covers the move/resize pairing: position and
// size are orthogonal axes. Same-kind operations merge only when both
// payloads are record-shaped and their touched key sets are disjoint.
func canAutoMerge(a, b domain.Operation) bool {
	if a.Type != b.Type {
		return true
	}
	if a.Data == nil || b.Data == nil {
		return false
	}

	keysA := mapset.NewThreadUnsafeSet(a.Data.Keys()...)
	keysB := mapset.NewThreadUnsafeSet(b.Data.Keys()...)
	return keysA.Intersect(keysB).Cardinality() == 0
}

// autoMerge returns the shallow union of two record-shaped payloads,
// with the second operand winning any key present in both. Overlap
// should not occur after the disjointness check. The false return routes
// non-record payloads to the last-write-wins fallback.
func autoMerge(a, b domain.Operation) (domain.Payload, bool) {
	if a.Data == nil || b.Data == nil {
		return nil, false
	}

	merged := a.Data.Clone()
	for k, v := range b.Data {
		merged[k] = v
	}
	return merged, true
}

// determineWinner picks the surviving operation: the strictly later
// timestamp wins; exactly equal timestamps fall to the lexicographically
// greater server ID, which is collision-free across replicas.
func determineWinner(a, b domain.Operation) domain.Operation {
	if a.Timestamp.After(b.Timestamp) {
		return a
	}
	if b.Timestamp.After(a.Timestamp) {
		return b
	}
	if a.ServerID > b.ServerID {
		return a
	}
	return b
}

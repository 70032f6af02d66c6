// Package vclock implements the vector clocks that order operations
// produced by independent replicas without shared global time.
package vclock

// Clock maps replica IDs to event counters. A replica absent from the
// map is at counter 0. Clocks are values: Increment and Merge return new
// clocks instead of mutating their receivers, so callers can retain
// earlier snapshots for causality comparison.
type Clock map[string]int64

// Ordering is the causal relationship between two clocks.
type Ordering int

// Ordering values returned by Compare.
const (
	Equal Ordering = iota
	Before
	After
	Concurrent
)

// String returns the ordering name used in logs.
func (o Ordering) String() string {
	switch o {
	case Equal:
		return "equal"
	case Before:
		return "before"
	case After:
		return "after"
	case Concurrent:
		return "concurrent"
	default:
		return "unknown"
	}
}

// New returns an empty clock with every replica implicitly at 0.
func New() Clock {
	return make(Clock)
}

// Counter returns the counter for one replica, 0 when absent.
func (c Clock) Counter(replicaID string) int64 {
	return c[replicaID]
}

// Increment returns a new clock with replicaID's counter advanced by one
// and every other entry unchanged.
func (c Clock) Increment(replicaID string) Clock {
	next := c.Clone()
	if next == nil {
		next = make(Clock)
	}
	next[replicaID]++
	return next
}

// Clone returns an independent copy of the clock. Cloning is required
// whenever a clock is embedded into a stored record, so later advances of
// the live clock cannot leak into history.
func (c Clock) Clone() Clock {
	if c == nil {
		return nil
	}
	out := make(Clock, len(c))
	for id, n := range c {
		out[id] = n
	}
	return out
}

// Merge returns a new clock holding the per-replica maximum of a and b.
// Merge is commutative and idempotent.
func Merge(a, b Clock) Clock {
	out := make(Clock, len(a)+len(b))
	for id, n := range a {
		out[id] = n
	}
	for id, n := range b {
		if n > out[id] {
			out[id] = n
		}
	}
	return out
}

// Compare reports the causal ordering of a relative to b. Replica IDs
// present in only one clock are read as 0 in the other, so disjoint
// replica sets compare without error.
func Compare(a, b Clock) Ordering {
	var greater, less bool

	ids := make(map[string]struct{}, len(a)+len(b))
	for id := range a {
		ids[id] = struct{}{}
	}
	for id := range b {
		ids[id] = struct{}{}
	}

	for id := range ids {
		av, bv := a[id], b[id]
		if av > bv {
			greater = true
		}
		if av < bv {
			less = true
		}
	}

	switch {
	case !greater && !less:
		return Equal
	case greater && !less:
		return After
	case less && !greater:
		return Before
	default:
		return Concurrent
	}
}

// AreConcurrent reports whether neither clock causally dominates the other.
func AreConcurrent(a, b Clock) bool {
	return Compare(a, b) == Concurrent
}

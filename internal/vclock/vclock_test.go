package vclock

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestIncrementAdvancesOnlyOwnCounter(t *testing.T) {
	c := New().Increment("s1")
	if c.Counter("s1") != 1 {
		t.Fatalf("unexpected counter %d", c.Counter("s1"))
	}

	next := c.Increment("s1")
	if next.Counter("s1") != 2 {
		t.Fatalf("unexpected counter %d", next.Counter("s1"))
	}
	if c.Counter("s1") != 1 {
		t.Fatal("increment mutated the prior snapshot")
	}
	if next.Counter("s2") != 0 {
		t.Fatal("expected absent replica to read as 0")
	}
}

func TestIncrementNeverDecreases(t *testing.T) {
	c := Clock{"s1": 3, "s2": 7}
	next := c.Increment("s1")
	for id, n := range c {
		if next[id] < n {
			t.Fatalf("counter %s decreased: %d -> %d", id, n, next[id])
		}
	}
}

func TestMergeCommutativeAndIdempotent(t *testing.T) {
	a := Clock{"s1": 2, "s2": 1}
	b := Clock{"s2": 4, "s3": 1}

	ab := Merge(a, b)
	ba := Merge(b, a)
	if diff := cmp.Diff(ab, ba); diff != "" {
		t.Fatalf("merge not commutative (-ab +ba):\n%s", diff)
	}

	want := Clock{"s1": 2, "s2": 4, "s3": 1}
	if diff := cmp.Diff(want, ab); diff != "" {
		t.Fatalf("unexpected merge (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(a, Merge(a, a)); diff != "" {
		t.Fatalf("merge not idempotent:\n%s", diff)
	}
}

func TestCompareOrderings(t *testing.T) {
	tests := []struct {
		name string
		a, b Clock
		want Ordering
	}{
		{"empty clocks", New(), New(), Equal},
		{"identical", Clock{"s1": 1}, Clock{"s1": 1}, Equal},
		{"dominated", Clock{"s1": 1}, Clock{"s1": 2}, Before},
		{"dominates", Clock{"s1": 2, "s2": 1}, Clock{"s1": 1, "s2": 1}, After},
		{"missing entry reads as zero", Clock{"s1": 1}, Clock{"s1": 1, "s2": 1}, Before},
		{"divergent", Clock{"s1": 2, "s2": 1}, Clock{"s1": 1, "s2": 2}, Concurrent},
		{"disjoint replica sets", Clock{"s1": 1}, Clock{"s2": 1}, Concurrent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compare(tt.a, tt.b); got != tt.want {
				t.Fatalf("Compare() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompareAntisymmetry(t *testing.T) {
	a := Clock{"s1": 1}
	b := Clock{"s1": 1, "s2": 3}
	if Compare(a, b) != Before {
		t.Fatalf("Compare(a,b) = %v, want before", Compare(a, b))
	}
	if Compare(b, a) != After {
		t.Fatalf("Compare(b,a) = %v, want after", Compare(b, a))
	}
}

func TestIndependentIncrementsAreConcurrent(t *testing.T) {
	base := New().Increment("s1")
	a := base.Increment("s1")
	b := base.Increment("s2")

	if !AreConcurrent(a, b) {
		t.Fatalf("expected concurrent, got %v", Compare(a, b))
	}
	if AreConcurrent(base, a) {
		t.Fatal("ancestor must not be concurrent with descendant")
	}
}

func TestCloneIsolation(t *testing.T) {
	orig := Clock{"s1": 1}
	snap := orig.Clone()
	orig["s1"] = 9
	if snap.Counter("s1") != 1 {
		t.Fatalf("clone shares storage with original: %d", snap.Counter("s1"))
	}

	if Clock(nil).Clone() != nil {
		t.Fatal("expected nil clone of nil clock")
	}
}

func TestClockJSONRoundTrip(t *testing.T) {
	in := Clock{"s1": 2, "s2": 5}
	raw, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var out Clock
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("round trip mismatch:\n%s", diff)
	}
}

package registry

import (
	"fmt"
	"testing"
)

func TestRecencySetEvictsOldestFirst(t *testing.T) {
	t.Parallel()
	tests := []struct {
		capacity int
		adds     int
	}{
		{capacity: 1, adds: 5},
		{capacity: 3, adds: 4},
		{capacity: 50, adds: 51},
		{capacity: 100, adds: 250},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(fmt.Sprintf("cap%d_adds%d", tt.capacity, tt.adds), func(t *testing.T) {
			t.Parallel()
			s := NewRecencySet[string](tt.capacity)
			for i := 0; i < tt.adds; i++ {
				if !s.Add(fmt.Sprintf("item-%d", i)) {
					t.Fatalf("Add(item-%d) = false, want true", i)
				}
			}
			if s.Len() != tt.capacity {
				t.Fatalf("Len = %d, want %d", s.Len(), tt.capacity)
			}
			// Exactly the last `capacity` items survive, in original order.
			items := s.Items()
			for i, got := range items {
				want := fmt.Sprintf("item-%d", tt.adds-tt.capacity+i)
				if got != want {
					t.Fatalf("Items()[%d] = %q, want %q", i, got, want)
				}
			}
			if s.Has(fmt.Sprintf("item-%d", tt.adds-tt.capacity-1)) {
				t.Fatal("evicted item still a member")
			}
		})
	}
}

func TestRecencySetAddExistingIsNoop(t *testing.T) {
	t.Parallel()
	s := NewRecencySet[string](3)
	s.Add("a")
	s.Add("b")
	s.Add("c")

	if s.Add("a") {
		t.Fatal("Add on existing member returned true")
	}
	if got := s.Items(); len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("order changed after duplicate add: %v", got)
	}

	// Re-adding must not refresh age: "a" is still the oldest and evicts next.
	s.Add("d")
	if s.Has("a") {
		t.Fatal("re-added member had its age refreshed")
	}
	if !s.Has("b") || !s.Has("c") || !s.Has("d") {
		t.Fatalf("unexpected membership: %v", s.Items())
	}
}

func TestRecencySetDelete(t *testing.T) {
	t.Parallel()
	s := NewRecencySet[string](3)
	s.Add("a")
	s.Add("b")

	if !s.Delete("a") {
		t.Fatal("Delete(existing) = false")
	}
	if s.Delete("a") {
		t.Fatal("Delete(absent) = true")
	}
	if s.Has("a") || !s.Has("b") || s.Len() != 1 {
		t.Fatalf("unexpected state after delete: %v", s.Items())
	}
}

func TestRecencySetClear(t *testing.T) {
	t.Parallel()
	s := NewRecencySet[string](3)
	s.Add("a")
	s.Add("b")
	s.Clear()
	if s.Len() != 0 || s.Has("a") {
		t.Fatal("Clear left members behind")
	}
	// Still usable after Clear.
	if !s.Add("c") {
		t.Fatal("Add after Clear = false")
	}
}

func TestRecencySetRoundTrip(t *testing.T) {
	t.Parallel()
	s := NewRecencySet[string](5)
	for _, v := range []string{"a", "b", "c"} {
		s.Add(v)
	}

	got := RestoreRecencySet(s.Items(), 5)
	if got.Len() != 3 {
		t.Fatalf("restored Len = %d, want 3", got.Len())
	}
	for i, v := range got.Items() {
		if want := s.Items()[i]; v != want {
			t.Fatalf("restored order[%d] = %q, want %q", i, v, want)
		}
	}
}

func TestRestoreRecencySetTruncatesToCapacity(t *testing.T) {
	t.Parallel()
	in := []string{"a", "b", "c", "d", "e"}
	s := RestoreRecencySet(in, 2)
	if got := s.Items(); len(got) != 2 || got[0] != "d" || got[1] != "e" {
		t.Fatalf("Items = %v, want [d e]", got)
	}
}

func TestRecencySetZeroCapacity(t *testing.T) {
	t.Parallel()
	s := NewRecencySet[string](0)
	if s.Add("a") {
		t.Fatal("Add on zero-capacity set = true")
	}
	if s.Has("a") || s.Len() != 0 {
		t.Fatal("zero-capacity set retained membership")
	}
}

package services

import (
	"errors"
	"testing"

	"mission-backend/models"
)

func TestNewRouteMismatch(t *testing.T) {
	_, err := NewRoute([]float64{1, 2}, []float64{1, 2, 3})
	if !errors.Is(err, ErrPlanningFailure) {
		t.Fatalf("err = %v, want ErrPlanningFailure", err)
	}
}

func TestRoutePreIncrementCursor(t *testing.T) {
	r, err := NewRoute([]float64{0, 20, 40}, []float64{0, 5, 10})
	if err != nil {
		t.Fatalf("NewRoute failed: %v", err)
	}
	if r.Cursor != cursorBeforeFirst {
		t.Fatalf("Cursor = %d, want before-first", r.Cursor)
	}
	if _, ok := r.Target(); ok {
		t.Fatalf("Target before first Advance must be invalid")
	}

	want := []models.Point2D{{X: 0, Y: 0}, {X: 20, Y: 5}, {X: 40, Y: 10}}
	for i, p := range want {
		r.Advance()
		if r.Exhausted() {
			t.Fatalf("exhausted early at %d", i)
		}
		got, ok := r.Target()
		if !ok || got != p {
			t.Fatalf("Target at %d = %v (%v), want %v", i, got, ok, p)
		}
	}
	r.Advance()
	if !r.Exhausted() {
		t.Fatalf("route not exhausted after %d advances", len(want)+1)
	}
	if _, ok := r.Target(); ok {
		t.Fatalf("Target after exhaustion must be invalid")
	}
}

func TestEmptyRouteExhaustsOnFirstAdvance(t *testing.T) {
	r, err := NewRoute(nil, nil)
	if err != nil {
		t.Fatalf("NewRoute(nil, nil) failed: %v", err)
	}
	if r.Len() != 0 {
		t.Fatalf("Len = %d, want 0", r.Len())
	}
	r.Advance()
	if !r.Exhausted() {
		t.Fatalf("empty route not exhausted after Advance")
	}
}

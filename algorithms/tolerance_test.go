package algorithms

import (
	"testing"

	"mission-backend/models"
)

func TestWithinToleranceBoundaries(t *testing.T) {
	tests := []struct {
		name    string
		current float64
		want    bool
	}{
		{"exact", 10.0, true},
		{"just inside upper", 10.49, true},
		{"upper boundary", 10.50, false},
		{"beyond upper", 10.7, false},
		{"just inside lower", 9.51, true},
		{"lower boundary", 9.50, false},
		{"beyond lower", 9.2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WithinTolerance(10.0, tt.current, 0.5); got != tt.want {
				t.Fatalf("WithinTolerance(10, %v, 0.5) = %v, want %v", tt.current, got, tt.want)
			}
		})
	}
}

func TestArrivedRequiresAllAxes(t *testing.T) {
	target := models.Point3D{X: 20, Y: 0, Z: 10}

	if !Arrived(target, models.Point3D{X: 20.2, Y: -0.3, Z: 10.1}, 0.5) {
		t.Fatalf("expected arrival when every axis is inside tolerance")
	}
	if Arrived(target, models.Point3D{X: 20, Y: 0, Z: 10.5}, 0.5) {
		t.Fatalf("z on the boundary must not count as arrived")
	}
	if Arrived(target, models.Point3D{X: 21, Y: 0, Z: 10}, 0.5) {
		t.Fatalf("x outside tolerance must not count as arrived")
	}
	if Arrived(target, models.Point3D{X: 20, Y: 0.6, Z: 10}, 0.5) {
		t.Fatalf("y outside tolerance must not count as arrived")
	}
}

package services

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"mission-backend/models"
)

func TestTraveledPathSerializeFormat(t *testing.T) {
	tp := NewTraveledPath()
	tp.Record(models.Point2D{X: 0, Y: 0})
	tp.Record(models.Point2D{X: 20.04, Y: -3.24})
	tp.Record(models.Point2D{X: 1234.5, Y: 99.99})

	want := "x=   0.0 y=   0.0\n" +
		"x=  20.0 y=  -3.2\n" +
		"x=1234.5 y= 100.0\n"
	if got := tp.Serialize(); got != want {
		t.Fatalf("Serialize() = %q, want %q", got, want)
	}
}

func TestTraveledPathRoundTrip(t *testing.T) {
	cases := map[string][]models.Point2D{
		"empty":  {},
		"single": {{X: 12.5, Y: -7.0}},
		"many": {
			{X: 0, Y: 0}, {X: 20, Y: 0}, {X: 40, Y: 0},
			{X: -15.5, Y: 3.1}, {X: 999.9, Y: -999.9}, {X: 12345.6, Y: 0.1},
		},
	}

	for name, points := range cases {
		t.Run(name, func(t *testing.T) {
			tp := NewTraveledPath()
			for _, p := range points {
				tp.Record(p)
			}

			got, err := ParseTraveledPath(strings.NewReader(tp.Serialize()))
			if err != nil {
				t.Fatalf("ParseTraveledPath failed: %v", err)
			}
			if !reflect.DeepEqual(got, points) {
				t.Fatalf("round trip = %v, want %v", got, points)
			}
		})
	}
}

func TestTraveledPathSaveFile(t *testing.T) {
	tp := NewTraveledPath()
	tp.Record(models.Point2D{X: 1, Y: 2})
	tp.Record(models.Point2D{X: 3, Y: 4})

	path := filepath.Join(t.TempDir(), "path.txt")
	if err := tp.SaveFile(path); err != nil {
		t.Fatalf("SaveFile failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	got, err := ParseTraveledPath(f)
	if err != nil {
		t.Fatalf("ParseTraveledPath failed: %v", err)
	}
	if !reflect.DeepEqual(got, tp.Points()) {
		t.Fatalf("file points = %v, want %v", got, tp.Points())
	}
}

func TestTraveledPathSaveFileError(t *testing.T) {
	tp := NewTraveledPath()
	err := tp.SaveFile(filepath.Join(t.TempDir(), "nope", "path.txt"))
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("err = %v, want ErrPersistence", err)
	}
}

func TestParseTraveledPathRejectsGarbage(t *testing.T) {
	if _, err := ParseTraveledPath(strings.NewReader("x=   1.0 y=   2.0\nhello\n")); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestTraveledPathPointsIsCopy(t *testing.T) {
	tp := NewTraveledPath()
	tp.Record(models.Point2D{X: 1, Y: 1})
	pts := tp.Points()
	pts[0].X = 42
	if tp.Points()[0].X != 1 {
		t.Fatalf("Points() exposes internal slice")
	}
}

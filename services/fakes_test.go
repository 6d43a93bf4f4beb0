package services

import (
	"context"
	"errors"
	"io"
	"log"
	"path/filepath"
	"testing"

	"mission-backend/models"
)

// routeResult - 플래너 응답 한 번
type routeResult struct {
	xs, ys []float64
	err    error
}

// fakeRoutePlanner - 응답을 순서대로 돌려주고 마지막 응답을 반복
type fakeRoutePlanner struct {
	results []routeResult
	calls   int
	lastFP  models.FootprintSize
}

func (f *fakeRoutePlanner) RequestCoverageRoute(ctx context.Context, origin models.Point2D, width, height float64, fp models.FootprintSize) ([]float64, []float64, error) {
	f.lastFP = fp
	r := f.results[min(f.calls, len(f.results)-1)]
	f.calls++
	return r.xs, r.ys, r.err
}

type fakePOIPlanner struct {
	results []routeResult
	calls   int
}

func (f *fakePOIPlanner) RequestPOIRoute(ctx context.Context) ([]float64, []float64, error) {
	if len(f.results) == 0 {
		f.calls++
		return []float64{}, []float64{}, nil
	}
	r := f.results[min(f.calls, len(f.results)-1)]
	f.calls++
	return r.xs, r.ys, r.err
}

// fakeVehicle - 명령을 받으면 다음 위치 조회에서 정확히 목표에 있다고 보고
type fakeVehicle struct {
	rejectFirst int
	moveErr     error
	commands    []models.Point3D
	attempts    int
	position    models.Point3D
	offset      models.Point3D
	poseErr     error
}

func (f *fakeVehicle) MoveTo(ctx context.Context, target models.Point3D) (bool, error) {
	f.attempts++
	if f.moveErr != nil {
		return false, f.moveErr
	}
	if f.attempts <= f.rejectFirst {
		return false, nil
	}
	f.commands = append(f.commands, target)
	f.position = models.Point3D{X: target.X + f.offset.X, Y: target.Y + f.offset.Y, Z: target.Z + f.offset.Z}
	return true, nil
}

func (f *fakeVehicle) CurrentPosition(ctx context.Context) (models.Point3D, error) {
	if f.poseErr != nil {
		return models.Point3D{}, f.poseErr
	}
	return f.position, nil
}

// eventLog - 관찰자 이벤트 기록
type eventLog struct {
	events []models.MissionEvent
}

func (e *eventLog) ObserveMission(evt models.MissionEvent) {
	e.events = append(e.events, evt)
}

func (e *eventLog) ofType(typ string) []models.MissionEvent {
	var out []models.MissionEvent
	for _, evt := range e.events {
		if evt.Type == typ {
			out = append(out, evt)
		}
	}
	return out
}

var errPlannerDown = errors.New("planner down")

func testConfig(t *testing.T) models.MissionConfig {
	t.Helper()
	return models.MissionConfig{
		MissionID:        "mission-test",
		Origin:           models.Point2D{X: 0, Y: 0},
		Width:            100,
		Height:           100,
		CoverageAltitude: 10,
		PhotoAltitude:    3,
		Tolerance:        0.5,
		PathFile:         filepath.Join(t.TempDir(), "traveled_path.txt"),
	}
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newTestController(t *testing.T, cfg models.MissionConfig, routes *fakeRoutePlanner, pois *fakePOIPlanner, vehicle *fakeVehicle, events *eventLog) *MissionController {
	t.Helper()
	opts := []ControllerOption{WithLogger(discardLogger())}
	if events != nil {
		opts = append(opts, WithObservers(events))
	}
	mc, err := NewMissionController(cfg, Collaborators{
		Routes: routes,
		POIs:   pois,
		Motion: vehicle,
		Pose:   vehicle,
	}, opts...)
	if err != nil {
		t.Fatalf("NewMissionController failed: %v", err)
	}
	return mc
}

// runUntil - 상태가 want가 될 때까지 Tick (최대 maxTicks)
func runUntil(t *testing.T, mc *MissionController, want models.MissionState, maxTicks int) int {
	t.Helper()
	for i := 1; i <= maxTicks; i++ {
		mc.Tick(context.Background())
		if mc.State() == want {
			return i
		}
	}
	t.Fatalf("state %s not reached within %d ticks (stuck in %s)", want, maxTicks, mc.State())
	return 0
}

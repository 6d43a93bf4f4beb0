package services

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"testing"
	"time"

	"mission-backend/models"

	"github.com/gofiber/fiber/v2"
)

// startPlannerServer - 로컬 포트에서 가짜 planner 서비스 실행
func startPlannerServer(t *testing.T, setup func(app *fiber.App)) string {
	t.Helper()

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	setup(app)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	return "http://" + ln.Addr().String()
}

// awaitRoute - ErrRouteNotReady가 아닐 때까지 다시 조회
func awaitRoute(t *testing.T, request func() ([]float64, []float64, error)) ([]float64, []float64, error) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for {
		xs, ys, err := request()
		if !errors.Is(err, ErrRouteNotReady) {
			return xs, ys, err
		}
		if time.Now().After(deadline) {
			t.Fatalf("planner response never arrived")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestPlannerClientCoverageRoute(t *testing.T) {
	var got coverageRequest
	baseURL := startPlannerServer(t, func(app *fiber.App) {
		app.Post("/coverage", func(c *fiber.Ctx) error {
			if err := c.BodyParser(&got); err != nil {
				return c.Status(fiber.StatusBadRequest).SendString(err.Error())
			}
			return c.JSON(routeResponse{Xs: []float64{0, 20}, Ys: []float64{0, 0}})
		})
	})

	client := &PlannerClient{BaseURL: baseURL, MissionID: "m-1", Timeout: 2 * time.Second}
	fp := models.FootprintSize{Width: 34.9, Height: 22.3}
	xs, ys, err := awaitRoute(t, func() ([]float64, []float64, error) {
		return client.RequestCoverageRoute(context.Background(), models.Point2D{X: 1, Y: 2}, 100, 50, fp)
	})
	if err != nil {
		t.Fatalf("RequestCoverageRoute: %v", err)
	}
	if len(xs) != 2 || len(ys) != 2 || xs[1] != 20 {
		t.Fatalf("route = %v, %v", xs, ys)
	}
	if got.MissionID != "m-1" || got.Origin != (models.Point2D{X: 1, Y: 2}) || got.Width != 100 || got.Footprint != fp {
		t.Fatalf("request body = %+v", got)
	}
}

func TestPlannerClientPOIRouteEmpty(t *testing.T) {
	baseURL := startPlannerServer(t, func(app *fiber.App) {
		app.Post("/poi", func(c *fiber.Ctx) error {
			return c.JSON(routeResponse{Xs: []float64{}, Ys: []float64{}})
		})
	})

	client := &PlannerClient{BaseURL: baseURL, MissionID: "m-1"}
	xs, ys, err := awaitRoute(t, func() ([]float64, []float64, error) {
		return client.RequestPOIRoute(context.Background())
	})
	if err != nil {
		t.Fatalf("RequestPOIRoute: %v", err)
	}
	if len(xs) != 0 || len(ys) != 0 {
		t.Fatalf("route = %v, %v, want empty", xs, ys)
	}
}

func TestPlannerClientErrorStatus(t *testing.T) {
	baseURL := startPlannerServer(t, func(app *fiber.App) {
		app.Post("/poi", func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusServiceUnavailable).SendString("busy")
		})
	})

	client := &PlannerClient{BaseURL: baseURL}
	_, _, err := awaitRoute(t, func() ([]float64, []float64, error) {
		return client.RequestPOIRoute(context.Background())
	})
	if err == nil {
		t.Fatalf("expected error for 503 response")
	}
}

func TestPlannerClientKeepsDecodeError(t *testing.T) {
	baseURL := startPlannerServer(t, func(app *fiber.App) {
		app.Post("/poi", func(c *fiber.Ctx) error {
			return c.SendString("{not json")
		})
	})

	client := &PlannerClient{BaseURL: baseURL}
	_, _, err := awaitRoute(t, func() ([]float64, []float64, error) {
		return client.RequestPOIRoute(context.Background())
	})
	var syntaxErr *json.SyntaxError
	if !errors.As(err, &syntaxErr) {
		t.Fatalf("err = %v, want wrapped *json.SyntaxError", err)
	}
}

func TestPlannerClientCancelledContext(t *testing.T) {
	client := &PlannerClient{BaseURL: "http://127.0.0.1:1"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := awaitRoute(t, func() ([]float64, []float64, error) {
		return client.RequestPOIRoute(ctx)
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestPlannerClientStartsOneRequestAtATime(t *testing.T) {
	calls := make(chan struct{}, 10)
	release := make(chan struct{})
	baseURL := startPlannerServer(t, func(app *fiber.App) {
		app.Post("/poi", func(c *fiber.Ctx) error {
			calls <- struct{}{}
			<-release
			return c.JSON(routeResponse{Xs: []float64{3}, Ys: []float64{4}})
		})
	})
	t.Cleanup(func() {
		select {
		case <-release:
		default:
			close(release)
		}
	})

	client := &PlannerClient{BaseURL: baseURL, Timeout: 5 * time.Second}
	for i := 0; i < 5; i++ {
		if _, _, err := client.RequestPOIRoute(context.Background()); !errors.Is(err, ErrRouteNotReady) {
			t.Fatalf("call %d err = %v, want ErrRouteNotReady", i, err)
		}
	}
	close(release)

	xs, ys, err := awaitRoute(t, func() ([]float64, []float64, error) {
		return client.RequestPOIRoute(context.Background())
	})
	if err != nil || len(xs) != 1 || xs[0] != 3 || ys[0] != 4 {
		t.Fatalf("route = %v, %v, %v", xs, ys, err)
	}
	if len(calls) != 1 {
		t.Fatalf("planner received %d requests, want 1", len(calls))
	}
}

func TestPlannerFailureKeepsControllerWaiting(t *testing.T) {
	baseURL := startPlannerServer(t, func(app *fiber.App) {
		app.Post("/coverage", func(c *fiber.Ctx) error {
			return c.JSON(routeResponse{Xs: []float64{0, 1}, Ys: []float64{0}})
		})
	})

	client := &PlannerClient{BaseURL: baseURL, Timeout: 2 * time.Second}
	vehicle := &fakeVehicle{}
	events := &eventLog{}
	mc, err := NewMissionController(testConfig(t), Collaborators{
		Routes: client, POIs: client, Motion: vehicle, Pose: vehicle,
	}, WithLogger(discardLogger()), WithObservers(events))
	if err != nil {
		t.Fatalf("NewMissionController: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for len(events.ofType(models.EventPlanningFailure)) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("mismatched route never reported")
		}
		mc.Tick(context.Background())
		if mc.State() != models.StateRequestCoverageRoute {
			t.Fatalf("state = %s, want RequestCoverageRoute", mc.State())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSlowPlannerDoesNotBlockTick(t *testing.T) {
	const delay = 300 * time.Millisecond
	baseURL := startPlannerServer(t, func(app *fiber.App) {
		app.Post("/coverage", func(c *fiber.Ctx) error {
			time.Sleep(delay)
			return c.JSON(routeResponse{Xs: []float64{0, 20}, Ys: []float64{0, 0}})
		})
	})

	client := &PlannerClient{BaseURL: baseURL, Timeout: 5 * time.Second}
	vehicle := &fakeVehicle{}
	mc, err := NewMissionController(testConfig(t), Collaborators{
		Routes: client, POIs: client, Motion: vehicle, Pose: vehicle,
	}, WithLogger(discardLogger()))
	if err != nil {
		t.Fatalf("NewMissionController: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	ticks := 0
	for mc.State() == models.StateRequestCoverageRoute {
		if time.Now().After(deadline) {
			t.Fatalf("coverage route never arrived")
		}
		start := time.Now()
		mc.Tick(context.Background())
		if took := time.Since(start); took > delay/3 {
			t.Fatalf("Tick took %v while the planner was busy", took)
		}
		ticks++
		time.Sleep(5 * time.Millisecond)
	}

	if mc.State() != models.StateAdvanceCoverageCursor {
		t.Fatalf("state = %s, want AdvanceCoverageCursor", mc.State())
	}
	if ticks < 2 {
		t.Fatalf("route arrived after %d ticks, want the first tick to return immediately", ticks)
	}
}

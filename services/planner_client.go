package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"mission-backend/models"

	"github.com/gofiber/fiber/v2"
)

const defaultPlannerTimeout = 10 * time.Second

// PlannerClient - 외부 경로 계획 서비스 HTTP 클라이언트 (RoutePlanner + POIPlanner)
//
//	POST {BaseURL}/coverage  {origin, width, height, footprint} → {xs, ys}
//	POST {BaseURL}/poi       {mission_id}                       → {xs, ys}
//
// Tick을 막지 않도록 요청은 백그라운드 고루틴에서 보낸다. 첫 호출은 요청을 시작하고
// ErrRouteNotReady를 반환하며, 응답이 도착한 뒤의 호출이 결과를 가져간다.
type PlannerClient struct {
	BaseURL   string
	MissionID string
	Timeout   time.Duration

	mu       sync.Mutex
	coverage *plannerCall
	poi      *plannerCall
}

// plannerCall - 진행 중인 planner 요청 하나
type plannerCall struct {
	done   chan struct{}
	xs, ys []float64
	err    error
}

// coverageRequest - /coverage 요청 본문
type coverageRequest struct {
	MissionID string               `json:"mission_id"`
	Origin    models.Point2D       `json:"origin"`
	Width     float64              `json:"width"`
	Height    float64              `json:"height"`
	Footprint models.FootprintSize `json:"footprint"`
}

// poiRequest - /poi 요청 본문
type poiRequest struct {
	MissionID string `json:"mission_id"`
}

// routeResponse - 두 엔드포인트 공통 응답
type routeResponse struct {
	Xs []float64 `json:"xs"`
	Ys []float64 `json:"ys"`
}

// NewPlannerClientFromEnv - PLANNER_BASE_URL에서 설정 읽기
func NewPlannerClientFromEnv(missionID string) *PlannerClient {
	baseURL := os.Getenv("PLANNER_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8090"
	}

	log.Printf("✅ PlannerClient 초기화 (baseURL=%s)", baseURL)

	return &PlannerClient{
		BaseURL:   baseURL,
		MissionID: missionID,
		Timeout:   defaultPlannerTimeout,
	}
}

// RequestCoverageRoute - RoutePlanner 구현 (응답 전까지 ErrRouteNotReady)
func (c *PlannerClient) RequestCoverageRoute(ctx context.Context, origin models.Point2D, width, height float64, footprint models.FootprintSize) ([]float64, []float64, error) {
	body := coverageRequest{
		MissionID: c.MissionID,
		Origin:    origin,
		Width:     width,
		Height:    height,
		Footprint: footprint,
	}
	return c.poll(&c.coverage, func() ([]float64, []float64, error) {
		return c.post(ctx, "/coverage", body)
	})
}

// RequestPOIRoute - POIPlanner 구현 (응답 전까지 ErrRouteNotReady)
func (c *PlannerClient) RequestPOIRoute(ctx context.Context) ([]float64, []float64, error) {
	body := poiRequest{MissionID: c.MissionID}
	return c.poll(&c.poi, func() ([]float64, []float64, error) {
		return c.post(ctx, "/poi", body)
	})
}

// poll - 진행 중인 요청이 없으면 시작하고, 끝난 요청이 있으면 결과를 꺼낸다
func (c *PlannerClient) poll(slot **plannerCall, fetch func() ([]float64, []float64, error)) ([]float64, []float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	call := *slot
	if call == nil {
		call = &plannerCall{done: make(chan struct{})}
		*slot = call
		go func() {
			call.xs, call.ys, call.err = fetch()
			close(call.done)
		}()
		return nil, nil, ErrRouteNotReady
	}

	select {
	case <-call.done:
		*slot = nil
		return call.xs, call.ys, call.err
	default:
		return nil, nil, ErrRouteNotReady
	}
}

func (c *PlannerClient) post(ctx context.Context, path string, body interface{}) ([]float64, []float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultPlannerTimeout
	}
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	start := time.Now()
	url := c.BaseURL + path
	agent := fiber.Post(url).JSON(body).Timeout(timeout)

	code, b, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, nil, fmt.Errorf("planner 호출 실패 (%s): %w", url, errs[0])
	}
	if code != fiber.StatusOK {
		return nil, nil, fmt.Errorf("planner 응답 오류 (%s): status=%d body=%s", url, code, string(b))
	}

	var result routeResponse
	if err := json.Unmarshal(b, &result); err != nil {
		return nil, nil, fmt.Errorf("planner 응답 파싱 실패 (body=%s): %w", string(b), err)
	}

	log.Printf("⏱️ planner %s 응답: %d개 지점 (%.2f초)", path, len(result.Xs), time.Since(start).Seconds())
	return result.Xs, result.Ys, nil
}

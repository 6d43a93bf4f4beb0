package services

import (
	"fmt"

	"mission-backend/models"
)

// cursorBeforeFirst - 다음 Advance에서 첫 번째 지점(0)을 가리키게 하는 커서 값
const cursorBeforeFirst = -1

// Route - 웨이포인트 목록 + 현재 목표 커서
//
// 커서는 이동 전에 먼저 증가하고(Advance), 목표 인덱스는 커서 값 그대로다.
// cursor >= len(Waypoints) 이면 경로 소진.
type Route struct {
	Waypoints []models.Point2D
	Cursor    int
}

// NewRoute - 두 좌표 배열로 경로 생성 (길이 불일치 시 ErrPlanningFailure)
func NewRoute(xs, ys []float64) (Route, error) {
	if len(xs) != len(ys) {
		return Route{}, fmt.Errorf("%w: xs has %d points, ys has %d", ErrPlanningFailure, len(xs), len(ys))
	}

	waypoints := make([]models.Point2D, len(xs))
	for i := range xs {
		waypoints[i] = models.Point2D{X: xs[i], Y: ys[i]}
	}

	return Route{Waypoints: waypoints, Cursor: cursorBeforeFirst}, nil
}

// Len - 웨이포인트 수
func (r *Route) Len() int {
	return len(r.Waypoints)
}

// Advance - 커서 1 증가
func (r *Route) Advance() {
	r.Cursor++
}

// Exhausted - 모든 웨이포인트를 지났는지
func (r *Route) Exhausted() bool {
	return r.Cursor >= len(r.Waypoints)
}

// Target - 현재 커서의 웨이포인트
func (r *Route) Target() (models.Point2D, bool) {
	if r.Cursor < 0 || r.Exhausted() {
		return models.Point2D{}, false
	}
	return r.Waypoints[r.Cursor], true
}

// clone - 외부 노출용 복사본
func (r *Route) clone() Route {
	out := Route{Cursor: r.Cursor}
	if r.Waypoints != nil {
		out.Waypoints = append([]models.Point2D(nil), r.Waypoints...)
	}
	return out
}

package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
	"sort"
	"sync"

	"mission-backend/models"

	"github.com/google/uuid"
)

// ========================================
// POI 필드 (시뮬레이션 맵)
// ========================================

// POIField - 미션 영역에 흩어진 가상 촬영 대상 관리
type POIField struct {
	mu   sync.RWMutex
	pois []models.POI
	rng  *rand.Rand
}

// NewPOIField - 영역 안에 count개의 POI를 랜덤 생성
func NewPOIField(origin models.Point2D, width, height float64, count int, seed int64) *POIField {
	f := &POIField{rng: rand.New(rand.NewSource(seed))}
	f.pois = f.generatePOIs(origin, width, height, count)
	return f
}

// generatePOIs - 경계 여백(5%)을 두고 랜덤 배치
func (f *POIField) generatePOIs(origin models.Point2D, width, height float64, count int) []models.POI {
	pois := make([]models.POI, 0, count)

	margin := 0.05
	minX := origin.X + width*margin
	maxX := origin.X + width*(1-margin)
	minY := origin.Y + height*margin
	maxY := origin.Y + height*(1-margin)

	for i := 0; i < count; i++ {
		pois = append(pois, models.POI{
			ID: uuid.New().String(),
			Position: models.Point2D{
				X: minX + f.rng.Float64()*(maxX-minX),
				Y: minY + f.rng.Float64()*(maxY-minY),
			},
			Status: models.POIStatusPending,
		})
	}
	return pois
}

// AddPOI - POI 수동 추가
func (f *POIField) AddPOI(position models.Point2D) models.POI {
	f.mu.Lock()
	defer f.mu.Unlock()

	poi := models.POI{
		ID:       uuid.New().String(),
		Position: position,
		Status:   models.POIStatusPending,
	}
	f.pois = append(f.pois, poi)
	return poi
}

// POIs - 전체 POI 복사본
func (f *POIField) POIs() []models.POI {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]models.POI, len(f.pois))
	copy(out, f.pois)
	return out
}

// ClaimWithin - center 기준 footprint 사각형 안의 pending POI를 planned로 바꾸고 반환
func (f *POIField) ClaimWithin(center models.Point2D, footprint models.FootprintSize) []models.POI {
	f.mu.Lock()
	defer f.mu.Unlock()

	halfW := footprint.Width / 2
	halfH := footprint.Height / 2

	var claimed []models.POI
	for i := range f.pois {
		p := &f.pois[i]
		if p.Status != models.POIStatusPending {
			continue
		}
		if math.Abs(p.Position.X-center.X) > halfW || math.Abs(p.Position.Y-center.Y) > halfH {
			continue
		}
		p.Status = models.POIStatusPlanned
		claimed = append(claimed, *p)
	}
	return claimed
}

// MarkVisited - position에 있는 planned POI를 visited로 표시. 해당 POI가 없으면 false.
func (f *POIField) MarkVisited(position models.Point2D) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.pois {
		p := &f.pois[i]
		if p.Status == models.POIStatusPlanned && p.Position == position {
			p.Status = models.POIStatusVisited
			return true
		}
	}
	return false
}

// ObserveMission - POI 도착 이벤트로 촬영 완료 표시 (MissionObserver 구현)
func (f *POIField) ObserveMission(evt models.MissionEvent) {
	if evt.Type != models.EventArrival || evt.Kind != models.TargetPOI {
		return
	}
	if f.MarkVisited(evt.Target.Ground()) {
		log.Printf("📸 POI 촬영 완료 %s", evt.Target.Ground())
	}
}

// ========================================
// 시뮬레이션 플래너
// ========================================

// SimulatedRoutePlanner - footprint 크기 셀을 지그재그로 훑는 coverage 경로
type SimulatedRoutePlanner struct{}

// RequestCoverageRoute - RoutePlanner 구현
func (SimulatedRoutePlanner) RequestCoverageRoute(ctx context.Context, origin models.Point2D, width, height float64, footprint models.FootprintSize) ([]float64, []float64, error) {
	if footprint.Width <= 0 || footprint.Height <= 0 {
		return nil, nil, fmt.Errorf("invalid footprint %.2fx%.2f", footprint.Width, footprint.Height)
	}

	route := LawnmowerRoute(origin, width, height, footprint)
	xs := make([]float64, len(route))
	ys := make([]float64, len(route))
	for i, p := range route {
		xs[i] = p.X
		ys[i] = p.Y
	}
	return xs, ys, nil
}

// LawnmowerRoute - x 방향으로 열을 옮기며 y를 왕복하는 셀 중심 목록
func LawnmowerRoute(origin models.Point2D, width, height float64, footprint models.FootprintSize) []models.Point2D {
	cols := sweepCenters(origin.X, width, footprint.Width)
	rows := sweepCenters(origin.Y, height, footprint.Height)

	route := make([]models.Point2D, 0, len(cols)*len(rows))
	for i, x := range cols {
		for j := range rows {
			y := rows[j]
			if i%2 == 1 {
				y = rows[len(rows)-1-j]
			}
			route = append(route, models.Point2D{X: x, Y: y})
		}
	}
	return route
}

// sweepCenters - [start, start+length] 구간을 cell 크기로 덮는 중심 좌표.
// 마지막 셀은 구간 안에 들어오도록 당긴다.
func sweepCenters(start, length, cell float64) []float64 {
	if length <= cell {
		return []float64{start + length/2}
	}

	n := int(math.Ceil(length / cell))
	centers := make([]float64, n)
	for i := range centers {
		offset := math.Min((float64(i)+0.5)*cell, length-cell/2)
		centers[i] = start + offset
	}
	return centers
}

// SimulatedPOIPlanner - 현재 위치의 footprint 안에서 새로 발견된 POI를 가까운 순으로 방문
type SimulatedPOIPlanner struct {
	Field     *POIField
	Pose      PoseSource
	Footprint models.FootprintSize
}

// RequestPOIRoute - POIPlanner 구현
func (p *SimulatedPOIPlanner) RequestPOIRoute(ctx context.Context) ([]float64, []float64, error) {
	current, err := p.Pose.CurrentPosition(ctx)
	if err != nil {
		return nil, nil, err
	}

	found := p.Field.ClaimWithin(current.Ground(), p.Footprint)
	ordered := nearestNeighborOrder(current.Ground(), found)

	xs := make([]float64, len(ordered))
	ys := make([]float64, len(ordered))
	for i, poi := range ordered {
		xs[i] = poi.Position.X
		ys[i] = poi.Position.Y
	}
	return xs, ys, nil
}

// nearestNeighborOrder - 시작점에서 가장 가까운 POI부터 차례로 방문하는 순서
func nearestNeighborOrder(start models.Point2D, pois []models.POI) []models.POI {
	remaining := make([]models.POI, len(pois))
	copy(remaining, pois)
	// 동일 거리일 때 결과가 흔들리지 않도록 ID로 먼저 정렬
	sort.Slice(remaining, func(i, j int) bool { return remaining[i].ID < remaining[j].ID })

	ordered := make([]models.POI, 0, len(remaining))
	cur := start
	for len(remaining) > 0 {
		best := 0
		bestDist := math.MaxFloat64
		for i, poi := range remaining {
			d := math.Hypot(poi.Position.X-cur.X, poi.Position.Y-cur.Y)
			if d < bestDist {
				best, bestDist = i, d
			}
		}
		ordered = append(ordered, remaining[best])
		cur = remaining[best].Position
		remaining = append(remaining[:best], remaining[best+1:]...)
	}
	return ordered
}

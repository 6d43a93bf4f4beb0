package services

import (
	"context"

	"mission-backend/models"
)

// RoutePlanner - coverage 경로 계획 서비스
//
// xs, ys의 길이가 같으면 경로, 길이 0이면 "경로 없음".
type RoutePlanner interface {
	RequestCoverageRoute(ctx context.Context, origin models.Point2D, width, height float64, footprint models.FootprintSize) (xs, ys []float64, err error)
}

// POIPlanner - 현재 coverage 지점에서 발견된 POI 방문 경로
//
// 길이가 같고 0인 결과는 "방문할 POI 없음"으로 정상 결과다.
type POIPlanner interface {
	RequestPOIRoute(ctx context.Context) (xs, ys []float64, err error)
}

// MotionCommander - 저수준 이동 명령. 반환값은 명령 수락 여부이며 도착 여부가 아니다.
type MotionCommander interface {
	MoveTo(ctx context.Context, target models.Point3D) (bool, error)
}

// PoseSource - 현재 기체 위치
type PoseSource interface {
	CurrentPosition(ctx context.Context) (models.Point3D, error)
}

// MissionObserver - 상태 머신 이벤트 수신자 (로그 버퍼, 메트릭, WebSocket 등)
type MissionObserver interface {
	ObserveMission(evt models.MissionEvent)
}

// ObserverFunc - 함수를 MissionObserver로 사용
type ObserverFunc func(evt models.MissionEvent)

func (f ObserverFunc) ObserveMission(evt models.MissionEvent) { f(evt) }

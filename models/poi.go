package models

// POI 상태
const (
	POIStatusPending = "pending" // 아직 경로에 포함되지 않음
	POIStatusPlanned = "planned" // POI 경로로 전달됨
	POIStatusVisited = "visited" // 촬영 고도에서 도착 확인
)

// POI - 시뮬레이션 맵에 흩어진 촬영 대상
type POI struct {
	ID       string  `json:"id"`
	Position Point2D `json:"position"`
	Status   string  `json:"status"`
}

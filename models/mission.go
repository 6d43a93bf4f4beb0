package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ========================================
// 미션 상태
// ========================================

// MissionState - 미션 상태 머신의 현재 단계
type MissionState int

const (
	StateRequestCoverageRoute  MissionState = iota // coverage 경로 요청
	StateAdvanceCoverageCursor                     // coverage 다음 지점으로 커서 이동
	StateCommandCoverageMove                       // coverage 지점 이동 명령
	StateAwaitCoverageArrival                      // coverage 지점 도착 대기
	StateRequestPOIRoute                           // POI 경로 요청
	StateAdvancePOICursor                          // POI 다음 지점으로 커서 이동
	StateCommandPOIMove                            // POI 이동 명령
	StateAwaitPOIArrival                           // POI 도착 대기
	StateFinalize                                  // 이동 경로 저장
	StateDone                                      // 종료
)

var missionStateNames = map[MissionState]string{
	StateRequestCoverageRoute:  "RequestCoverageRoute",
	StateAdvanceCoverageCursor: "AdvanceCoverageCursor",
	StateCommandCoverageMove:   "CommandCoverageMove",
	StateAwaitCoverageArrival:  "AwaitCoverageArrival",
	StateRequestPOIRoute:       "RequestPOIRoute",
	StateAdvancePOICursor:      "AdvancePOICursor",
	StateCommandPOIMove:        "CommandPOIMove",
	StateAwaitPOIArrival:       "AwaitPOIArrival",
	StateFinalize:              "Finalize",
	StateDone:                  "Done",
}

func (s MissionState) String() string {
	if name, ok := missionStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("MissionState(%d)", int(s))
}

// MarshalText - JSON/로그에서 상태를 이름으로 표시
func (s MissionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParseMissionState - 상태 이름을 MissionState로 변환
func ParseMissionState(value string) (MissionState, error) {
	for state, name := range missionStateNames {
		if name == value {
			return state, nil
		}
	}
	return StateRequestCoverageRoute, fmt.Errorf("unknown mission state %q", value)
}

// TargetKind - 목표 지점 종류
type TargetKind string

const (
	TargetCoverage TargetKind = "coverage"
	TargetPOI      TargetKind = "poi"
)

// ========================================
// 미션 설정
// ========================================

// ErrInvalidConfig - 미션 설정 값 오류
var ErrInvalidConfig = errors.New("invalid mission config")

// MissionConfig - 생성 후 변경되지 않는 미션 설정
type MissionConfig struct {
	MissionID        string        `json:"mission_id"`
	Origin           Point2D       `json:"origin"`            // 맵 좌측 하단 좌표
	Width            float64       `json:"width"`             // 맵 너비 (m)
	Height           float64       `json:"height"`            // 맵 높이 (m)
	CoverageAltitude float64       `json:"coverage_altitude"` // coverage 비행 고도
	PhotoAltitude    float64       `json:"photo_altitude"`    // POI 촬영 고도
	Tolerance        float64       `json:"tolerance"`         // 축별 도착 허용 오차
	PathFile         string        `json:"path_file"`         // 이동 경로 저장 파일
	TickInterval     time.Duration `json:"tick_interval"`     // 호스트 루프 주기
}

// Validate - 설정 값 검증 (수치는 모두 유한한 양수)
func (c MissionConfig) Validate() error {
	switch {
	case !isFinite(c.Origin.X) || !isFinite(c.Origin.Y):
		return fmt.Errorf("%w: origin must be finite (%v)", ErrInvalidConfig, c.Origin)
	case !positiveFinite(c.Width) || !positiveFinite(c.Height):
		return fmt.Errorf("%w: map size must be positive (width=%.2f, height=%.2f)", ErrInvalidConfig, c.Width, c.Height)
	case !positiveFinite(c.CoverageAltitude):
		return fmt.Errorf("%w: coverage altitude must be positive (%.2f)", ErrInvalidConfig, c.CoverageAltitude)
	case !positiveFinite(c.PhotoAltitude):
		return fmt.Errorf("%w: photo altitude must be positive (%.2f)", ErrInvalidConfig, c.PhotoAltitude)
	case !positiveFinite(c.Tolerance):
		return fmt.Errorf("%w: tolerance must be positive (%.3f)", ErrInvalidConfig, c.Tolerance)
	case c.PathFile == "":
		return fmt.Errorf("%w: path file must be set", ErrInvalidConfig)
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func positiveFinite(v float64) bool {
	return isFinite(v) && v > 0
}

// ========================================
// 미션 이벤트
// ========================================

// 이벤트 타입 상수
const (
	EventTransition      = "transition"       // 상태 전이
	EventRouteReceived   = "route_received"   // 경로 수신
	EventPlanningFailure = "planning_failure" // 경로 계획 실패
	EventMoveCommand     = "move_command"     // 이동 명령 (수락/거부)
	EventArrival         = "arrival"          // 목표 도착
	EventFinalized       = "finalized"        // 이동 경로 저장 완료/실패
)

// MissionEvent - 상태 머신이 관찰자에게 전달하는 이벤트
type MissionEvent struct {
	Type      string       `json:"type"`
	MissionID string       `json:"mission_id"`
	From      MissionState `json:"from"`
	To        MissionState `json:"to"`
	Kind      TargetKind   `json:"kind,omitempty"`
	Target    Point3D      `json:"target"`
	Position  Point3D      `json:"position"`
	Accepted  bool         `json:"accepted"`
	Count     int          `json:"count"` // 경로 길이 또는 기록된 지점 수
	Err       string       `json:"error,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// MissionStatus - HTTP/WebSocket으로 노출되는 미션 스냅샷
type MissionStatus struct {
	MissionID      string        `json:"mission_id"`
	State          MissionState  `json:"state"`
	CoverageCursor int           `json:"coverage_cursor"`
	CoverageLength int           `json:"coverage_length"`
	POICursor      int           `json:"poi_cursor"`
	POILength      int           `json:"poi_length"`
	TraveledPoints int           `json:"traveled_points"`
	Footprint      FootprintSize `json:"footprint"`
	Ticks          uint64        `json:"ticks"`
	Done           bool          `json:"done"`
	FinalizeError  string        `json:"finalize_error,omitempty"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

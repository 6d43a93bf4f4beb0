package models

// ========================================
// 메시지 타입 상수
// ========================================
const (
	// Vehicle → Server
	MessageTypeRegister = "register" // 기체 등록
	MessageTypePose     = "pose"     // 기체 위치 업데이트

	// Server → Vehicle
	MessageTypeMoveTo = "move_to" // 이동 명령

	// Server → Web
	MessageTypeMissionEvent  = "mission_event"  // 상태 머신 이벤트
	MessageTypeMissionStatus = "mission_status" // 미션 스냅샷
	MessageTypeSystemInfo    = "system_info"    // 시스템 정보
)

// ========================================
// 공통 WebSocket 메시지 형식
// ========================================
type WebSocketMessage struct {
	Type      string      `json:"type"`
	VehicleID string      `json:"vehicle_id,omitempty"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"` // Unix timestamp (ms)
}

// PoseData - 기체가 보내는 위치 (미션 평면 좌표 + 고도)
type PoseData struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// MoveToCommand - 기체로 보내는 이동 명령
type MoveToCommand struct {
	MissionID string  `json:"mission_id"`
	Target    Point3D `json:"target"`
}

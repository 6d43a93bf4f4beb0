package models

import (
	"time"
)

// MissionLog - 미션 이벤트 로그
type MissionLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	MissionID string    `gorm:"index;size:64" json:"mission_id"`
	EventType string    `gorm:"index;size:32" json:"event_type"` // "transition", "move_command", "arrival", ...

	// 상태 전이
	FromState string `gorm:"size:32" json:"from_state"`
	ToState   string `gorm:"size:32" json:"to_state"`

	// 목표 정보
	TargetKind string  `gorm:"size:16" json:"target_kind"` // "coverage" | "poi"
	TargetX    float64 `json:"target_x"`
	TargetY    float64 `json:"target_y"`
	TargetZ    float64 `json:"target_z"`

	// 기체 위치
	PositionX float64 `json:"position_x"`
	PositionY float64 `json:"position_y"`
	PositionZ float64 `json:"position_z"`

	Accepted bool   `json:"accepted"`
	Count    int    `json:"count"`
	Error    string `json:"error"`
}

// TraveledPoint - 미션 종료 후 보관되는 이동 경로 지점
type TraveledPoint struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	MissionID string    `gorm:"index;size:64" json:"mission_id"`
	Seq       int       `json:"seq"` // 기록 순서
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
}

// NewMissionLog - 미션 이벤트를 로그 레코드로 변환
func NewMissionLog(evt MissionEvent) MissionLog {
	createdAt := evt.Timestamp
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return MissionLog{
		CreatedAt:  createdAt,
		MissionID:  evt.MissionID,
		EventType:  evt.Type,
		FromState:  evt.From.String(),
		ToState:    evt.To.String(),
		TargetKind: string(evt.Kind),
		TargetX:    evt.Target.X,
		TargetY:    evt.Target.Y,
		TargetZ:    evt.Target.Z,
		PositionX:  evt.Position.X,
		PositionY:  evt.Position.Y,
		PositionZ:  evt.Position.Z,
		Accepted:   evt.Accepted,
		Count:      evt.Count,
		Error:      evt.Err,
	}
}

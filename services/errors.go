package services

import "errors"

// 미션 에러 분류
var (
	ErrPlanningFailure = errors.New("planning failure")  // 경로 길이 불일치/빈 coverage 경로 → 같은 상태에서 재시도
	ErrRouteNotReady   = errors.New("route not ready")   // planner 응답 대기 중 → 같은 상태에서 다시 조회
	ErrCommandRejected = errors.New("command rejected")  // 이동 명령 거부 → 같은 상태에서 재시도
	ErrPersistence     = errors.New("persistence error") // 이동 경로 저장 실패 → Done으로 진행
	ErrNoVehicle       = errors.New("vehicle not found") // 연결된 기체 없음
	ErrPoseUnavailable = errors.New("pose unavailable")  // 기체 위치 미수신
)

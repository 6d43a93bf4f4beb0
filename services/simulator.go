package services

import (
	"context"
	"log"
	"math"
	"sync"
	"time"

	"mission-backend/models"
)

const (
	simulatorUpdateInterval = 100 * time.Millisecond // 10Hz 업데이트
	defaultSimulatorSpeed   = 5.0                    // m/s
)

// SimulatedVehicle - 외부 기체 없이 미션을 돌리기 위한 가상 기체
//
// MotionCommander와 PoseSource를 모두 구현한다. 이동 명령을 받으면
// 목표점까지 일정 속도로 직선 이동하고, 매 업데이트마다 위치를 브로드캐스트한다.
type SimulatedVehicle struct {
	IsRunning     bool
	broadcastFunc func(models.WebSocketMessage)

	// 시뮬레이션 상태
	position models.Point3D
	target   *models.Point3D
	speed    float64

	// 제어
	stopChan chan bool
	mu       sync.RWMutex
}

// NewSimulatedVehicle - start 위치에서 대기하는 가상 기체 생성
func NewSimulatedVehicle(start models.Point3D, speed float64, broadcastFunc func(models.WebSocketMessage)) *SimulatedVehicle {
	if speed <= 0 {
		speed = defaultSimulatorSpeed
	}
	return &SimulatedVehicle{
		broadcastFunc: broadcastFunc,
		position:      start,
		speed:         speed,
		stopChan:      make(chan bool),
	}
}

// Start - 시뮬레이션 시작
func (s *SimulatedVehicle) Start() {
	s.mu.Lock()
	if s.IsRunning {
		s.mu.Unlock()
		return
	}
	s.IsRunning = true
	s.mu.Unlock()

	log.Println("🚀 가상 기체 시뮬레이터 시작")
	go s.runSimulation()
}

// Stop - 시뮬레이션 중지
func (s *SimulatedVehicle) Stop() {
	s.mu.Lock()
	if !s.IsRunning {
		s.mu.Unlock()
		return
	}
	s.IsRunning = false
	s.mu.Unlock()

	s.stopChan <- true
	log.Println("🛑 가상 기체 시뮬레이터 중지")
}

// runSimulation - 시뮬레이션 메인 루프
func (s *SimulatedVehicle) runSimulation() {
	ticker := time.NewTicker(simulatorUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.update(simulatorUpdateInterval)
		}
	}
}

// update - dt만큼 목표를 향해 이동
func (s *SimulatedVehicle) update(dt time.Duration) {
	s.mu.Lock()
	s.moveToTarget(dt)
	pose := s.position
	s.mu.Unlock()

	s.broadcastPose(pose)
}

// moveToTarget - 직선 이동, 한 스텝 안에 닿으면 목표점에 정확히 멈춘다
func (s *SimulatedVehicle) moveToTarget(dt time.Duration) {
	if s.target == nil {
		return
	}

	dx := s.target.X - s.position.X
	dy := s.target.Y - s.position.Y
	dz := s.target.Z - s.position.Z
	distance := math.Sqrt(dx*dx + dy*dy + dz*dz)
	step := s.speed * dt.Seconds()

	if distance <= step {
		s.position = *s.target
		s.target = nil
		return
	}

	s.position.X += dx / distance * step
	s.position.Y += dy / distance * step
	s.position.Z += dz / distance * step
}

// MoveTo - 이동 목표 설정 (항상 수락)
func (s *SimulatedVehicle) MoveTo(ctx context.Context, target models.Point3D) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.target = &target
	return true, nil
}

// CurrentPosition - 현재 위치
func (s *SimulatedVehicle) CurrentPosition(ctx context.Context) (models.Point3D, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.position, nil
}

// broadcastPose - 위치 브로드캐스트
func (s *SimulatedVehicle) broadcastPose(pose models.Point3D) {
	if s.broadcastFunc == nil {
		return
	}

	s.broadcastFunc(models.WebSocketMessage{
		Type:      models.MessageTypePose,
		VehicleID: "simulator",
		Data:      models.PoseData{X: pose.X, Y: pose.Y, Z: pose.Z},
		Timestamp: time.Now().UnixMilli(),
	})
}

// GetStatus - 현재 상태 반환
func (s *SimulatedVehicle) GetStatus() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := map[string]interface{}{
		"running":  s.IsRunning,
		"position": s.position,
		"speed":    s.speed,
		"moving":   s.target != nil,
	}
	if s.target != nil {
		status["target"] = *s.target
	}
	return status
}

package handlers

import (
	"fmt"
	"log"
	"sync"
	"time"

	"mission-backend/models"
	"mission-backend/services"
)

// DefaultVehicleID - id 쿼리가 없을 때 사용하는 기체 ID
const DefaultVehicleID = "vehicle-1"

// VehicleManager - 연결된 기체 상태 관리
type VehicleManager struct {
	mu       sync.RWMutex
	vehicles map[string]*VehicleInfo // vehicle_id -> VehicleInfo
	lastPing map[string]time.Time    // vehicle_id -> 마지막 수신 시간
}

// VehicleInfo - 기체 정보
type VehicleInfo struct {
	ID           string          `json:"id"`            // 기체 ID
	RegisteredAt time.Time       `json:"registered_at"` // 등록 시간
	LastUpdate   time.Time       `json:"last_update"`   // 마지막 업데이트 시간
	Pose         models.PoseData `json:"pose"`          // 현재 위치
	HasPose      bool            `json:"has_pose"`      // 위치를 한 번이라도 받았는지
	Connected    bool            `json:"connected"`     // WebSocket 연결 여부
}

// NewVehicleManager - VehicleManager 생성
func NewVehicleManager() *VehicleManager {
	return &VehicleManager{
		vehicles: make(map[string]*VehicleInfo),
		lastPing: make(map[string]time.Time),
	}
}

// 전역 기체 관리자
var Vehicles = NewVehicleManager()

// RegisterVehicle - 기체 등록
//
// vehicle_id가 이미 존재하면 연결 상태와 시간만 갱신한다.
func (m *VehicleManager) RegisterVehicle(vehicleID string) (VehicleInfo, error) {
	if vehicleID == "" {
		return VehicleInfo{}, fmt.Errorf("기체 ID가 비어있습니다")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()

	if info, exists := m.vehicles[vehicleID]; exists {
		info.LastUpdate = now
		info.Connected = true
		m.lastPing[vehicleID] = now
		log.Printf("[Vehicles] re-registered: %s", vehicleID)
		return *info, nil
	}

	info := &VehicleInfo{
		ID:           vehicleID,
		RegisteredAt: now,
		LastUpdate:   now,
		Connected:    true,
	}
	m.vehicles[vehicleID] = info
	m.lastPing[vehicleID] = now
	log.Printf("[Vehicles] registered: %s", vehicleID)
	return *info, nil
}

// UpdatePose - 기체 위치 업데이트
func (m *VehicleManager) UpdatePose(vehicleID string, pose models.PoseData) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	info, exists := m.vehicles[vehicleID]
	if !exists {
		return fmt.Errorf("%w: %s", services.ErrNoVehicle, vehicleID)
	}

	now := time.Now()
	info.Pose = pose
	info.HasPose = true
	info.LastUpdate = now
	m.lastPing[vehicleID] = now
	return nil
}

// Disconnect - WebSocket 연결 종료 표시 (정보는 유지)
func (m *VehicleManager) Disconnect(vehicleID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if info, exists := m.vehicles[vehicleID]; exists {
		info.Connected = false
		log.Printf("[Vehicles] disconnected: %s", vehicleID)
	}
}

// GetStatus - 기체 상태 조회
func (m *VehicleManager) GetStatus(vehicleID string) (VehicleInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, exists := m.vehicles[vehicleID]
	if !exists {
		return VehicleInfo{}, fmt.Errorf("%w: %s", services.ErrNoVehicle, vehicleID)
	}
	return *info, nil
}

// GetAllStatuses - 모든 기체 상태 조회
func (m *VehicleManager) GetAllStatuses() []VehicleInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]VehicleInfo, 0, len(m.vehicles))
	for _, info := range m.vehicles {
		result = append(result, *info)
	}
	return result
}

// RemoveVehicle - 기체 등록 해제
func (m *VehicleManager) RemoveVehicle(vehicleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.vehicles[vehicleID]; !exists {
		return fmt.Errorf("%w: %s", services.ErrNoVehicle, vehicleID)
	}

	delete(m.vehicles, vehicleID)
	delete(m.lastPing, vehicleID)
	log.Printf("[Vehicles] removed: %s", vehicleID)
	return nil
}

// GetVehicleCount - 현재 등록된 기체 수
func (m *VehicleManager) GetVehicleCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vehicles)
}

// IsVehicleAlive - 연결되어 있고 마지막 수신이 timeout 이내인지
func (m *VehicleManager) IsVehicleAlive(vehicleID string, timeout time.Duration) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, exists := m.vehicles[vehicleID]
	if !exists || !info.Connected {
		return false
	}
	return time.Since(m.lastPing[vehicleID]) < timeout
}

// CleanupOfflineVehicles - timeout 동안 신호가 없는 기체 제거
func (m *VehicleManager) CleanupOfflineVehicles(timeout time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	now := time.Now()

	for vehicleID, lastPing := range m.lastPing {
		if now.Sub(lastPing) > timeout {
			delete(m.vehicles, vehicleID)
			delete(m.lastPing, vehicleID)
			log.Printf("[Vehicles] cleanup: %s (offline)", vehicleID)
			count++
		}
	}
	return count
}

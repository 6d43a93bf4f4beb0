package handlers

import (
	"context"
	"fmt"
	"time"

	"mission-backend/models"
	"mission-backend/services"
)

// DefaultVehicleTimeout - 이 시간 동안 수신이 없으면 기체가 끊긴 것으로 본다
const DefaultVehicleTimeout = 5 * time.Second

// VehiclePoseSource - WebSocket으로 받은 기체 위치 (PoseSource)
type VehiclePoseSource struct {
	Vehicles  *VehicleManager
	VehicleID string
	Timeout   time.Duration
}

// CurrentPosition - 마지막으로 받은 위치. 기체가 끊겼거나 위치가 없으면 에러.
func (p *VehiclePoseSource) CurrentPosition(ctx context.Context) (models.Point3D, error) {
	if !p.Vehicles.IsVehicleAlive(p.VehicleID, p.timeout()) {
		return models.Point3D{}, fmt.Errorf("%w: %s", services.ErrPoseUnavailable, p.VehicleID)
	}
	info, err := p.Vehicles.GetStatus(p.VehicleID)
	if err != nil {
		return models.Point3D{}, err
	}
	if !info.HasPose {
		return models.Point3D{}, fmt.Errorf("%w: %s", services.ErrPoseUnavailable, p.VehicleID)
	}
	return models.Point3D{X: info.Pose.X, Y: info.Pose.Y, Z: info.Pose.Z}, nil
}

func (p *VehiclePoseSource) timeout() time.Duration {
	if p.Timeout <= 0 {
		return DefaultVehicleTimeout
	}
	return p.Timeout
}

// WebSocketCommander - 연결된 기체로 move_to 명령 전송 (MotionCommander)
type WebSocketCommander struct {
	Manager   *ClientManager
	Vehicles  *VehicleManager
	VehicleID string
	MissionID string
	Timeout   time.Duration
}

// MoveTo - 기체가 살아 있으면 명령을 보내고 수락으로 본다
func (w *WebSocketCommander) MoveTo(ctx context.Context, target models.Point3D) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	timeout := w.Timeout
	if timeout <= 0 {
		timeout = DefaultVehicleTimeout
	}
	if !w.Vehicles.IsVehicleAlive(w.VehicleID, timeout) {
		return false, fmt.Errorf("%w: %s", services.ErrNoVehicle, w.VehicleID)
	}

	err := w.Manager.SendToVehicle(w.VehicleID, models.WebSocketMessage{
		Type:      models.MessageTypeMoveTo,
		VehicleID: w.VehicleID,
		Data:      models.MoveToCommand{MissionID: w.MissionID, Target: target},
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

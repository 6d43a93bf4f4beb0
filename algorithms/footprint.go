package algorithms

import (
	"errors"
	"fmt"
	"math"

	"mission-backend/models"
)

// ErrInvalidAltitude - 지면 기준 높이가 0 이하이거나 유한한 값이 아님
var ErrInvalidAltitude = errors.New("invalid altitude")

// CameraIntrinsics - 하향 고정 카메라의 핀홀 모델 파라미터
type CameraIntrinsics struct {
	FocalX       float64 // 수평 초점 거리 (px)
	FocalY       float64 // 수직 초점 거리 (px)
	PrincipalX   float64 // 주점 x (px)
	PrincipalY   float64 // 주점 y (px)
	GroundOffset float64 // 고도에서 빼는 지면 높이 (m)
}

// DefaultCamera - 시뮬레이터 카메라 (752x481 이미지)
var DefaultCamera = CameraIntrinsics{
	FocalX:       215.6810060961547,
	FocalY:       215.6810060961547,
	PrincipalX:   376.5,
	PrincipalY:   240.5,
	GroundOffset: 0.000009,
}

// Footprint - 고도 altitude에서 카메라가 보는 지상 사각형 크기
//
// 이미지 좌상단 모서리 (0, 0)을 핀홀 모델로 지면에 역투영해 반폭/반높이를 구하고
// 2배 한다.
func (c CameraIntrinsics) Footprint(altitude float64) (models.FootprintSize, error) {
	z := altitude - c.GroundOffset
	if math.IsNaN(z) || math.IsInf(z, 0) || z <= 0 {
		return models.FootprintSize{}, fmt.Errorf("%w: height above ground %.6f m (altitude %.6f m)", ErrInvalidAltitude, z, altitude)
	}

	dX := (0 - c.PrincipalX) * z / c.FocalX
	dY := (0 - c.PrincipalY) * z / c.FocalY

	return models.FootprintSize{
		Width:  2 * (0 - dX),
		Height: 2 * (0 - dY),
	}, nil
}

// ComputeFootprint - DefaultCamera 기준 footprint
func ComputeFootprint(altitude float64) (models.FootprintSize, error) {
	return DefaultCamera.Footprint(altitude)
}

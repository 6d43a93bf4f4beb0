package models

import "fmt"

// Point2D - 미션 평면 좌표계의 지상 좌표
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Point3D - 지상 좌표 + 고도
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// At - 평면 좌표에 고도를 붙여 3D 목표점 생성
func (p Point2D) At(z float64) Point3D {
	return Point3D{X: p.X, Y: p.Y, Z: z}
}

// Ground - 고도를 버린 평면 좌표
func (p Point3D) Ground() Point2D {
	return Point2D{X: p.X, Y: p.Y}
}

func (p Point2D) String() string {
	return fmt.Sprintf("(%.1f, %.1f)", p.X, p.Y)
}

func (p Point3D) String() string {
	return fmt.Sprintf("(%.1f, %.1f, %.1f)", p.X, p.Y, p.Z)
}

// FootprintSize - 특정 고도에서 카메라가 지상에 투영하는 사각형 크기 (미터)
type FootprintSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

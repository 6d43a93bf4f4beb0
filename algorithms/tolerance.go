package algorithms

import "mission-backend/models"

// WithinTolerance - target-tol < current < target+tol (경계값은 미도착)
func WithinTolerance(target, current, tolerance float64) bool {
	return target-tolerance < current && current < target+tolerance
}

// Arrived - 세 축 모두 허용 오차 안에 있으면 도착
func Arrived(target, current models.Point3D, tolerance float64) bool {
	return WithinTolerance(target.X, current.X, tolerance) &&
		WithinTolerance(target.Y, current.Y, tolerance) &&
		WithinTolerance(target.Z, current.Z, tolerance)
}

package services

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"mission-backend/models"

	"github.com/google/uuid"
)

const (
	defaultPathFile     = "traveled_path.txt"
	defaultTickInterval = 100 * time.Millisecond
)

// LoadMissionConfigFromEnv - MISSION_* 환경 변수로 미션 설정 구성
//
// 값이 없는 항목은 기본값을 사용하고, 숫자 파싱 실패는 에러로 반환한다.
func LoadMissionConfigFromEnv() (models.MissionConfig, error) {
	cfg := models.MissionConfig{
		MissionID:        os.Getenv("MISSION_ID"),
		Width:            100,
		Height:           100,
		CoverageAltitude: 10,
		PhotoAltitude:    3,
		Tolerance:        0.5,
		PathFile:         os.Getenv("MISSION_PATH_FILE"),
		TickInterval:     defaultTickInterval,
	}
	if cfg.MissionID == "" {
		cfg.MissionID = uuid.New().String()
	}
	if cfg.PathFile == "" {
		cfg.PathFile = defaultPathFile
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{"MISSION_ORIGIN_X", &cfg.Origin.X},
		{"MISSION_ORIGIN_Y", &cfg.Origin.Y},
		{"MISSION_WIDTH", &cfg.Width},
		{"MISSION_HEIGHT", &cfg.Height},
		{"MISSION_COVERAGE_ALTITUDE", &cfg.CoverageAltitude},
		{"MISSION_PHOTO_ALTITUDE", &cfg.PhotoAltitude},
		{"MISSION_TOLERANCE", &cfg.Tolerance},
	}
	for _, f := range floats {
		if err := envFloat(f.key, f.dst); err != nil {
			return cfg, err
		}
	}

	if raw := os.Getenv("MISSION_TICK_MS"); raw != "" {
		ms, err := strconv.Atoi(raw)
		if err != nil || ms <= 0 {
			return cfg, fmt.Errorf("%w: MISSION_TICK_MS=%q", models.ErrInvalidConfig, raw)
		}
		cfg.TickInterval = time.Duration(ms) * time.Millisecond
	}

	return cfg, cfg.Validate()
}

// SimulationEnabled - MISSION_SIMULATE가 참이면 내장 시뮬레이터 사용
func SimulationEnabled() bool {
	v, err := strconv.ParseBool(os.Getenv("MISSION_SIMULATE"))
	return err == nil && v
}

func envFloat(key string, dst *float64) error {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("%w: %s=%q", models.ErrInvalidConfig, key, raw)
	}
	*dst = v
	return nil
}

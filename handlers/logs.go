package handlers

import (
	"strconv"
	"time"

	"mission-backend/services"

	"github.com/gofiber/fiber/v2"
)

const defaultLogLimit = 100

// logQuery - 로그 API 공통 쿼리 (mission_id, limit)
//
// mission_id가 없으면 현재 미션을 사용하고, 둘 다 없으면 ok=false.
func logQuery(c *fiber.Ctx) (missionID string, limit int, ok bool) {
	missionID = c.Query("mission_id", currentMissionID())

	limit, err := strconv.Atoi(c.Query("limit", strconv.Itoa(defaultLogLimit)))
	if err != nil || limit <= 0 {
		limit = defaultLogLimit
	}
	return missionID, limit, missionID != ""
}

func missingMissionID(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "mission_id parameter is required",
	})
}

// parseTimeParam - RFC3339 쿼리 파싱 (비어 있으면 fallback)
func parseTimeParam(c *fiber.Ctx, key string, fallback time.Time) (time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	return time.Parse(time.RFC3339, raw)
}

// HandleGetRecentLogs - 미션의 최근 이벤트 로그
func HandleGetRecentLogs(c *fiber.Ctx) error {
	missionID, limit, ok := logQuery(c)
	if !ok {
		return missingMissionID(c)
	}

	logs, err := services.GetRecentLogs(missionID, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch logs",
		})
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"mission_id": missionID,
		"count":      len(logs),
		"logs":       logs,
	})
}

// HandleGetLogsByTimeRange - 시간 범위로 로그 조회 (기본: 최근 24시간)
func HandleGetLogsByTimeRange(c *fiber.Ctx) error {
	missionID, limit, ok := logQuery(c)
	if !ok {
		return missingMissionID(c)
	}

	now := time.Now()
	start, err := parseTimeParam(c, "start", now.Add(-24*time.Hour))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid start time format (use RFC3339)",
		})
	}
	end, err := parseTimeParam(c, "end", now)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid end time format (use RFC3339)",
		})
	}

	logs, err := services.GetLogsByTimeRange(missionID, start, end, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch logs",
		})
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"mission_id": missionID,
		"count":      len(logs),
		"time_range": fiber.Map{
			"start": start.Format(time.RFC3339),
			"end":   end.Format(time.RFC3339),
		},
		"logs": logs,
	})
}

// HandleGetLogsByEventType - 이벤트 타입별 로그 조회 (transition, arrival, ...)
func HandleGetLogsByEventType(c *fiber.Ctx) error {
	missionID, limit, ok := logQuery(c)
	if !ok {
		return missingMissionID(c)
	}

	eventType := c.Query("event_type")
	if eventType == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "event_type parameter is required",
		})
	}

	logs, err := services.GetLogsByEventType(missionID, eventType, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch logs",
		})
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"mission_id": missionID,
		"count":      len(logs),
		"event_type": eventType,
		"logs":       logs,
	})
}

// HandleGetLogStats - 이벤트 타입별 통계
func HandleGetLogStats(c *fiber.Ctx) error {
	missionID, _, ok := logQuery(c)
	if !ok {
		return missingMissionID(c)
	}

	hours, err := strconv.Atoi(c.Query("hours", "24"))
	if err != nil || hours <= 0 {
		hours = 24
	}

	stats, err := services.GetLogStats(missionID, hours)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch stats",
		})
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"mission_id": missionID,
		"stats":      stats,
	})
}

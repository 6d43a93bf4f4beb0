package handlers

import (
	"errors"
	"strconv"

	"mission-backend/algorithms"
	"mission-backend/services"

	"github.com/gofiber/fiber/v2"
)

// 미션 실행 상태 (main에서 설정)
var (
	Runner    *services.MissionRunner
	PathStore *services.PathStore
	POIs      *services.POIField // 시뮬레이션 모드에서만 설정
)

// currentMissionID - 쿼리에 mission_id가 없을 때 사용할 현재 미션 ID
func currentMissionID() string {
	if Runner == nil {
		return ""
	}
	return Runner.Config().MissionID
}

// HandleGetMission - 현재 미션 상태 조회
func HandleGetMission(c *fiber.Ctx) error {
	if Runner == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "mission not started",
		})
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"status":   Runner.Status(),
		"config":   Runner.Config(),
		"running":  Runner.Running(),
		"archived": Runner.Archived(),
	})
}

// HandleGetMissionPath - 현재 미션의 이동 경로 (format=text면 저장 파일과 같은 형식)
func HandleGetMissionPath(c *fiber.Ctx) error {
	if Runner == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "mission not started",
		})
	}

	points := Runner.TraveledPath()
	if c.Query("format") == "text" {
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.SendString(services.TraveledPathFrom(points).Serialize())
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"mission_id": currentMissionID(),
		"count":      len(points),
		"points":     points,
	})
}

// HandleStopMission - 미션 루프 중지
func HandleStopMission(c *fiber.Ctx) error {
	if Runner == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "mission not started",
		})
	}

	Runner.Stop()
	return c.JSON(fiber.Map{
		"success": true,
		"status":  Runner.Status(),
	})
}

// HandleGetFootprint - 임의 고도의 카메라 footprint 계산
func HandleGetFootprint(c *fiber.Ctx) error {
	altitude, err := strconv.ParseFloat(c.Query("altitude"), 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "altitude parameter is required",
		})
	}

	footprint, err := algorithms.ComputeFootprint(altitude)
	if err != nil {
		if errors.Is(err, algorithms.ErrInvalidAltitude) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"altitude":  altitude,
		"footprint": footprint,
	})
}

// HandleListMissions - DB에 보관된 미션 목록
func HandleListMissions(c *fiber.Ctx) error {
	if PathStore == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "database not connected",
		})
	}

	ids, err := PathStore.ListMissions()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch missions",
		})
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"count":    len(ids),
		"missions": ids,
	})
}

// HandleGetArchivedPath - 보관된 미션의 이동 경로
func HandleGetArchivedPath(c *fiber.Ctx) error {
	if PathStore == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "database not connected",
		})
	}

	missionID := c.Params("id")
	points, err := PathStore.LoadTraveledPath(missionID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch path",
		})
	}
	if len(points) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "mission not found",
		})
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"mission_id": missionID,
		"count":      len(points),
		"points":     points,
	})
}

// HandleGetVehicles - 연결된 기체 목록
func HandleGetVehicles(c *fiber.Ctx) error {
	statuses := Vehicles.GetAllStatuses()
	return c.JSON(fiber.Map{
		"success":  true,
		"count":    len(statuses),
		"vehicles": statuses,
	})
}

// HandleGetPOIs - 시뮬레이션 POI 목록
func HandleGetPOIs(c *fiber.Ctx) error {
	if POIs == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "simulation disabled",
		})
	}

	pois := POIs.POIs()
	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(pois),
		"pois":    pois,
	})
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"mission-backend/algorithms"
	"mission-backend/handlers"
	"mission-backend/models"
	"mission-backend/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"
)

func main() {
	// .env 파일 로드
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env 파일을 찾을 수 없습니다.")
	}

	// DB 연결 (DB_DRIVER 미설정 시 생략)
	if err := services.InitDatabase(); err != nil {
		log.Fatalf("❌ DB 초기화 실패: %v", err)
	}

	// 로깅 시스템 초기화
	// flushSize: 50 (로그 50개마다 일괄 저장)
	// flushInterval: 10초 (매 10초마다 자동 저장)
	services.InitLogging(50, 10*time.Second)
	defer services.StopLogging() // 종료 시 남은 로그 저장

	cfg, err := services.LoadMissionConfigFromEnv()
	if err != nil {
		log.Fatalf("❌ 미션 설정 오류: %v", err)
	}

	metrics, err := services.NewMissionCollector(nil)
	if err != nil {
		log.Fatalf("❌ 메트릭 등록 실패: %v", err)
	}

	go handlers.Manager.Start()

	// 오프라인 기체 정리 (1분 무응답)
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if removed := handlers.Vehicles.CleanupOfflineVehicles(time.Minute); removed > 0 {
				log.Printf("🧹 오프라인 기체 %d대 정리", removed)
			}
		}
	}()

	deps, stopSimulation := buildCollaborators(cfg)
	defer stopSimulation()

	observers := []services.MissionObserver{
		services.MissionLogObserver,
		metrics,
		&handlers.MissionBroadcaster{Manager: handlers.Manager},
	}
	if handlers.POIs != nil {
		observers = append(observers, handlers.POIs) // 시뮬레이션 POI 촬영 상태 갱신
	}

	mc, err := services.NewMissionController(cfg, deps, services.WithObservers(observers...))
	if err != nil {
		log.Fatalf("❌ 미션 생성 실패: %v", err)
	}

	runner := services.NewMissionRunner(mc, cfg.TickInterval)
	if conn := services.GetDB(); conn != nil {
		store := services.NewPathStore(conn)
		runner.SetArchive(store)
		handlers.PathStore = store
	}
	handlers.Runner = runner

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runner.Start(ctx)

	go func() {
		<-runner.Done()
		handlers.Manager.BroadcastMessage(models.WebSocketMessage{
			Type:      models.MessageTypeMissionStatus,
			Data:      runner.Status(),
			Timestamp: time.Now().UnixMilli(),
		})
	}()

	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: envOr("CORS_ALLOW_ORIGINS", "http://localhost:5173, http://localhost:3000"),
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("미션 서버가 실행 중입니다.")
	})

	// Prometheus
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	api := app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "OK",
			"clients": handlers.Manager.GetClientCount(),
			"mission": runner.Status().State,
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	// 미션
	api.Get("/mission", handlers.HandleGetMission)
	api.Get("/mission/path", handlers.HandleGetMissionPath)
	api.Get("/mission/footprint", handlers.HandleGetFootprint)
	api.Post("/mission/stop", handlers.HandleStopMission)
	api.Get("/missions", handlers.HandleListMissions)
	api.Get("/missions/:id/path", handlers.HandleGetArchivedPath)
	api.Get("/vehicles", handlers.HandleGetVehicles)
	api.Get("/pois", handlers.HandleGetPOIs)

	// 로그 조회 API
	logsAPI := api.Group("/logs")
	logsAPI.Get("/recent", handlers.HandleGetRecentLogs)     // 최근 로그
	logsAPI.Get("/range", handlers.HandleGetLogsByTimeRange) // 시간 범위
	logsAPI.Get("/type", handlers.HandleGetLogsByEventType)  // 이벤트 타입별
	logsAPI.Get("/stats", handlers.HandleGetLogStats)        // 통계

	// WebSocket
	app.Use("/websocket", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/websocket/vehicle", websocket.New(handlers.HandleVehicleWebSocket))
	app.Get("/websocket/web", websocket.New(handlers.HandleWebClientWebSocket))

	// 종료 시그널 처리
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-quit
		log.Println("🛑 서버 종료 중...")
		runner.Stop()
		_ = app.Shutdown()
	}()

	addr := ":" + envOr("PORT", "3000")
	log.Printf("🚀 서버 시작: http://localhost%s", addr)
	log.Printf("📡 WebSocket: ws://localhost%s/websocket/web (기체: /websocket/vehicle?id=...)", addr)
	log.Printf("📊 메트릭: http://localhost%s/metrics", addr)
	if err := app.Listen(addr); err != nil {
		log.Printf("❌ 서버 오류: %v", err)
	}
}

// buildCollaborators - MISSION_SIMULATE에 따라 시뮬레이터 또는 외부 기체/플래너 연결
func buildCollaborators(cfg models.MissionConfig) (services.Collaborators, func()) {
	if services.SimulationEnabled() {
		vehicle := services.NewSimulatedVehicle(cfg.Origin.At(0), 0, handlers.Manager.BroadcastMessage)
		vehicle.Start()

		footprint, err := algorithms.ComputeFootprint(cfg.CoverageAltitude)
		if err != nil {
			log.Fatalf("❌ footprint 계산 실패: %v", err)
		}

		poiCount, err := strconv.Atoi(envOr("MISSION_SIM_POIS", "20"))
		if err != nil || poiCount < 0 {
			poiCount = 20
		}
		field := services.NewPOIField(cfg.Origin, cfg.Width, cfg.Height, poiCount, time.Now().UnixNano())
		handlers.POIs = field

		log.Printf("🧪 시뮬레이션 모드 (POI %d개)", poiCount)
		return services.Collaborators{
			Routes: services.SimulatedRoutePlanner{},
			POIs:   &services.SimulatedPOIPlanner{Field: field, Pose: vehicle, Footprint: footprint},
			Motion: vehicle,
			Pose:   vehicle,
		}, vehicle.Stop
	}

	vehicleID := envOr("MISSION_VEHICLE_ID", handlers.DefaultVehicleID)
	planner := services.NewPlannerClientFromEnv(cfg.MissionID)

	log.Printf("📡 기체 연결 대기: %s", vehicleID)
	return services.Collaborators{
		Routes: planner,
		POIs:   planner,
		Motion: &handlers.WebSocketCommander{
			Manager:   handlers.Manager,
			Vehicles:  handlers.Vehicles,
			VehicleID: vehicleID,
			MissionID: cfg.MissionID,
		},
		Pose: &handlers.VehiclePoseSource{
			Vehicles:  handlers.Vehicles,
			VehicleID: vehicleID,
		},
	}, func() {}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"mission-backend/algorithms"
	"mission-backend/models"
)

// ========================================
// 상태 전이 테이블
// ========================================

// allowedTransitions - 상태별로 Tick 한 번에 갈 수 있는 다음 상태 (자기 자신 = 재시도/대기)
var allowedTransitions = map[models.MissionState][]models.MissionState{
	models.StateRequestCoverageRoute:  {models.StateRequestCoverageRoute, models.StateAdvanceCoverageCursor},
	models.StateAdvanceCoverageCursor: {models.StateCommandCoverageMove, models.StateFinalize},
	models.StateCommandCoverageMove:   {models.StateCommandCoverageMove, models.StateAwaitCoverageArrival},
	models.StateAwaitCoverageArrival:  {models.StateAwaitCoverageArrival, models.StateRequestPOIRoute},
	models.StateRequestPOIRoute:       {models.StateRequestPOIRoute, models.StateAdvancePOICursor},
	models.StateAdvancePOICursor:      {models.StateCommandPOIMove, models.StateAdvanceCoverageCursor},
	models.StateCommandPOIMove:        {models.StateCommandPOIMove, models.StateAwaitPOIArrival},
	models.StateAwaitPOIArrival:       {models.StateAwaitPOIArrival, models.StateAdvancePOICursor},
	models.StateFinalize:              {models.StateDone},
	models.StateDone:                  {models.StateDone},
}

// CanTransition - from → to 전이가 테이블에 있는지
func CanTransition(from, to models.MissionState) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// stateHandler - 현재 상태의 동작을 수행하고 다음 상태를 반환
type stateHandler func(mc *MissionController, ctx context.Context) models.MissionState

var stateHandlers = map[models.MissionState]stateHandler{
	models.StateRequestCoverageRoute:  (*MissionController).requestCoverageRoute,
	models.StateAdvanceCoverageCursor: (*MissionController).advanceCoverageCursor,
	models.StateCommandCoverageMove:   (*MissionController).commandCoverageMove,
	models.StateAwaitCoverageArrival:  (*MissionController).awaitCoverageArrival,
	models.StateRequestPOIRoute:       (*MissionController).requestPOIRoute,
	models.StateAdvancePOICursor:      (*MissionController).advancePOICursor,
	models.StateCommandPOIMove:        (*MissionController).commandPOIMove,
	models.StateAwaitPOIArrival:       (*MissionController).awaitPOIArrival,
	models.StateFinalize:              (*MissionController).finalize,
	models.StateDone:                  (*MissionController).done,
}

// ========================================
// MissionController
// ========================================

// Collaborators - 상태 머신이 호출하는 외부 서비스
type Collaborators struct {
	Routes RoutePlanner
	POIs   POIPlanner
	Motion MotionCommander
	Pose   PoseSource
}

// MissionController - coverage → POI 촬영 미션 상태 머신
//
// 호스트 루프가 Tick을 반복 호출하며, Tick 한 번에 최대 한 번 상태가 바뀐다.
// 내부 고루틴이 없고 블로킹하지 않는다. 한 고루틴에서만 호출해야 한다.
type MissionController struct {
	cfg       models.MissionConfig
	camera    algorithms.CameraIntrinsics
	footprint models.FootprintSize

	routes RoutePlanner
	pois   POIPlanner
	motion MotionCommander
	pose   PoseSource

	state       models.MissionState
	coverage    Route
	poi         Route
	traveled    *TraveledPath
	finalizeErr error
	ticks       uint64

	observers []MissionObserver
	logger    *log.Logger
	now       func() time.Time
}

// ControllerOption - MissionController 생성 옵션
type ControllerOption func(*MissionController)

// WithObservers - 이벤트 관찰자 등록
func WithObservers(observers ...MissionObserver) ControllerOption {
	return func(mc *MissionController) {
		for _, o := range observers {
			if o != nil {
				mc.observers = append(mc.observers, o)
			}
		}
	}
}

// WithLogger - 로거 지정 (nil이면 출력 없음)
func WithLogger(l *log.Logger) ControllerOption {
	return func(mc *MissionController) {
		if l == nil {
			l = log.New(io.Discard, "", 0)
		}
		mc.logger = l
	}
}

// WithCamera - 기본 카메라 대신 다른 내부 파라미터 사용
func WithCamera(cam algorithms.CameraIntrinsics) ControllerOption {
	return func(mc *MissionController) {
		mc.camera = cam
	}
}

// WithClock - 이벤트 타임스탬프용 시계 (테스트용)
func WithClock(now func() time.Time) ControllerOption {
	return func(mc *MissionController) {
		if now != nil {
			mc.now = now
		}
	}
}

// NewMissionController - 설정 검증 후 coverage 고도의 footprint를 계산해 상태 머신 생성
func NewMissionController(cfg models.MissionConfig, deps Collaborators, opts ...ControllerOption) (*MissionController, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Routes == nil || deps.POIs == nil || deps.Motion == nil || deps.Pose == nil {
		return nil, fmt.Errorf("%w: all four collaborators are required", models.ErrInvalidConfig)
	}

	mc := &MissionController{
		cfg:      cfg,
		camera:   algorithms.DefaultCamera,
		routes:   deps.Routes,
		pois:     deps.POIs,
		motion:   deps.Motion,
		pose:     deps.Pose,
		state:    models.StateRequestCoverageRoute,
		coverage: Route{Cursor: cursorBeforeFirst},
		poi:      Route{Cursor: cursorBeforeFirst},
		traveled: NewTraveledPath(),
		logger:   log.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(mc)
	}

	footprint, err := mc.camera.Footprint(cfg.CoverageAltitude)
	if err != nil {
		return nil, fmt.Errorf("coverage footprint: %w", err)
	}
	mc.footprint = footprint

	mc.logger.Printf("📷 카메라 footprint: %.1f m X %.1f m (고도 %.1f m)", footprint.Width, footprint.Height, cfg.CoverageAltitude)
	return mc, nil
}

// Tick - 현재 상태의 동작을 한 번 수행 (최대 1회 전이)
func (mc *MissionController) Tick(ctx context.Context) {
	mc.ticks++

	handler, ok := stateHandlers[mc.state]
	if !ok {
		mc.logger.Printf("❌ 알 수 없는 상태: %s", mc.state)
		return
	}

	from := mc.state
	next := handler(mc, ctx)
	if !CanTransition(from, next) {
		mc.logger.Printf("❌ 허용되지 않은 전이 무시: %s → %s", from, next)
		return
	}
	if next == from {
		return
	}

	mc.state = next
	mc.emit(models.MissionEvent{Type: models.EventTransition, From: from, To: next})
}

// ---- coverage ----

func (mc *MissionController) requestCoverageRoute(ctx context.Context) models.MissionState {
	xs, ys, err := mc.routes.RequestCoverageRoute(ctx, mc.cfg.Origin, mc.cfg.Width, mc.cfg.Height, mc.footprint)
	if errors.Is(err, ErrRouteNotReady) {
		return models.StateRequestCoverageRoute
	}

	var route Route
	if err != nil {
		err = planningError(err)
	} else if route, err = NewRoute(xs, ys); err == nil && route.Len() == 0 {
		err = fmt.Errorf("%w: empty coverage route", ErrPlanningFailure)
	}
	if err != nil {
		mc.logger.Printf("⚠️ coverage 경로 요청 실패: %v", err)
		mc.emit(models.MissionEvent{Type: models.EventPlanningFailure, Kind: models.TargetCoverage, Err: err.Error()})
		return models.StateRequestCoverageRoute
	}

	mc.coverage = route
	mc.logger.Printf("✅ coverage 경로 수신: %d개 지점", route.Len())
	mc.emit(models.MissionEvent{Type: models.EventRouteReceived, Kind: models.TargetCoverage, Count: route.Len()})
	return models.StateAdvanceCoverageCursor
}

func (mc *MissionController) advanceCoverageCursor(ctx context.Context) models.MissionState {
	mc.coverage.Advance()
	if !mc.coverage.Exhausted() {
		return models.StateCommandCoverageMove
	}
	mc.logger.Printf("🏁 coverage 모든 지점 방문 완료")
	return models.StateFinalize
}

func (mc *MissionController) commandCoverageMove(ctx context.Context) models.MissionState {
	if mc.commandMove(ctx, models.TargetCoverage, &mc.coverage, mc.cfg.CoverageAltitude) {
		return models.StateAwaitCoverageArrival
	}
	return models.StateCommandCoverageMove
}

func (mc *MissionController) awaitCoverageArrival(ctx context.Context) models.MissionState {
	if mc.awaitArrival(ctx, models.TargetCoverage, &mc.coverage, mc.cfg.CoverageAltitude) {
		return models.StateRequestPOIRoute
	}
	return models.StateAwaitCoverageArrival
}

// ---- POI ----

func (mc *MissionController) requestPOIRoute(ctx context.Context) models.MissionState {
	xs, ys, err := mc.pois.RequestPOIRoute(ctx)
	if errors.Is(err, ErrRouteNotReady) {
		return models.StateRequestPOIRoute
	}

	var route Route
	if err != nil {
		err = planningError(err)
	} else {
		route, err = NewRoute(xs, ys)
	}
	if err != nil {
		mc.logger.Printf("⚠️ POI 경로 요청 실패: %v", err)
		mc.emit(models.MissionEvent{Type: models.EventPlanningFailure, Kind: models.TargetPOI, Err: err.Error()})
		return models.StateRequestPOIRoute
	}

	if route.Len() == 0 {
		// 방문할 POI 없음: 다음 Advance에서 바로 소진된다.
		route.Cursor = 0
	}
	mc.poi = route
	mc.logger.Printf("✅ POI 경로 수신: %d개 지점", route.Len())
	mc.emit(models.MissionEvent{Type: models.EventRouteReceived, Kind: models.TargetPOI, Count: route.Len()})
	return models.StateAdvancePOICursor
}

func (mc *MissionController) advancePOICursor(ctx context.Context) models.MissionState {
	mc.poi.Advance()
	if !mc.poi.Exhausted() {
		return models.StateCommandPOIMove
	}
	mc.logger.Printf("📸 현재 지점의 POI 촬영 완료")
	return models.StateAdvanceCoverageCursor
}

func (mc *MissionController) commandPOIMove(ctx context.Context) models.MissionState {
	if mc.commandMove(ctx, models.TargetPOI, &mc.poi, mc.cfg.PhotoAltitude) {
		return models.StateAwaitPOIArrival
	}
	return models.StateCommandPOIMove
}

func (mc *MissionController) awaitPOIArrival(ctx context.Context) models.MissionState {
	if mc.awaitArrival(ctx, models.TargetPOI, &mc.poi, mc.cfg.PhotoAltitude) {
		return models.StateAdvancePOICursor
	}
	return models.StateAwaitPOIArrival
}

// ---- 종료 ----

func (mc *MissionController) finalize(ctx context.Context) models.MissionState {
	err := mc.traveled.SaveFile(mc.cfg.PathFile)
	mc.finalizeErr = err

	evt := models.MissionEvent{Type: models.EventFinalized, Count: mc.traveled.Len()}
	if err != nil {
		evt.Err = err.Error()
		mc.logger.Printf("❌ 이동 경로 저장 실패: %v", err)
	} else {
		mc.logger.Printf("💾 이동 경로 저장 완료: %s (%d개 지점)", mc.cfg.PathFile, mc.traveled.Len())
	}
	mc.emit(evt)
	mc.logger.Printf("🛑 미션 종료")
	return models.StateDone
}

func (mc *MissionController) done(ctx context.Context) models.MissionState {
	return models.StateDone
}

// ---- 공통 동작 ----

// planningError - planner 오류를 ErrPlanningFailure로 감싸되 원인도 errors.Is로 찾을 수 있게 유지
func planningError(err error) error {
	return fmt.Errorf("%w: %w", ErrPlanningFailure, err)
}

// commandMove - 커서 위치의 웨이포인트로 이동 명령. 수락되면 true.
func (mc *MissionController) commandMove(ctx context.Context, kind models.TargetKind, route *Route, altitude float64) bool {
	waypoint, ok := route.Target()
	if !ok {
		mc.logger.Printf("❌ %s 커서가 경로 밖에 있음: %d/%d", kind, route.Cursor, route.Len())
		return false
	}
	target := waypoint.At(altitude)

	accepted, err := mc.motion.MoveTo(ctx, target)
	evt := models.MissionEvent{Type: models.EventMoveCommand, Kind: kind, Target: target, Accepted: accepted && err == nil}
	if err != nil {
		evt.Err = err.Error()
		mc.logger.Printf("⚠️ %s 이동 명령 실패 %s: %v", kind, target, err)
	} else if !accepted {
		evt.Err = ErrCommandRejected.Error()
		mc.logger.Printf("⚠️ %s 이동 명령 거부 %s", kind, target)
	} else {
		mc.logger.Printf("📍 %s 이동 명령 %s (%d/%d)", kind, target, route.Cursor+1, route.Len())
	}
	mc.emit(evt)
	return evt.Accepted
}

// awaitArrival - 현재 위치가 목표의 허용 오차 안이면 이동 경로에 기록하고 true
func (mc *MissionController) awaitArrival(ctx context.Context, kind models.TargetKind, route *Route, altitude float64) bool {
	waypoint, ok := route.Target()
	if !ok {
		return false
	}
	target := waypoint.At(altitude)

	current, err := mc.pose.CurrentPosition(ctx)
	if err != nil {
		return false
	}
	if !algorithms.Arrived(target, current, mc.cfg.Tolerance) {
		return false
	}

	mc.traveled.Record(current.Ground())
	mc.logger.Printf("✅ %s 목표 도착 %s", kind, current)
	mc.emit(models.MissionEvent{
		Type:     models.EventArrival,
		Kind:     kind,
		Target:   target,
		Position: current,
		Count:    mc.traveled.Len(),
	})
	return true
}

func (mc *MissionController) emit(evt models.MissionEvent) {
	if len(mc.observers) == 0 {
		return
	}
	evt.MissionID = mc.cfg.MissionID
	if evt.Type != models.EventTransition {
		evt.From = mc.state
		evt.To = mc.state
	}
	evt.Timestamp = mc.now()
	for _, o := range mc.observers {
		o.ObserveMission(evt)
	}
}

// ========================================
// 조회
// ========================================

// State - 현재 상태
func (mc *MissionController) State() models.MissionState { return mc.state }

// CoverageCursor - coverage 경로 커서
func (mc *MissionController) CoverageCursor() int { return mc.coverage.Cursor }

// POICursor - POI 경로 커서
func (mc *MissionController) POICursor() int { return mc.poi.Cursor }

// CoverageRoute - coverage 경로 복사본
func (mc *MissionController) CoverageRoute() Route { return mc.coverage.clone() }

// POIRoute - POI 경로 복사본
func (mc *MissionController) POIRoute() Route { return mc.poi.clone() }

// TraveledPath - 도착이 확인된 지점들 (기록 순서)
func (mc *MissionController) TraveledPath() []models.Point2D { return mc.traveled.Points() }

// Footprint - coverage 고도의 카메라 footprint
func (mc *MissionController) Footprint() models.FootprintSize { return mc.footprint }

// Config - 미션 설정
func (mc *MissionController) Config() models.MissionConfig { return mc.cfg }

// FinalizeErr - Finalize 단계의 저장 에러 (없으면 nil)
func (mc *MissionController) FinalizeErr() error { return mc.finalizeErr }

// Snapshot - 현재 상태 요약
func (mc *MissionController) Snapshot() models.MissionStatus {
	status := models.MissionStatus{
		MissionID:      mc.cfg.MissionID,
		State:          mc.state,
		CoverageCursor: mc.coverage.Cursor,
		CoverageLength: mc.coverage.Len(),
		POICursor:      mc.poi.Cursor,
		POILength:      mc.poi.Len(),
		TraveledPoints: mc.traveled.Len(),
		Footprint:      mc.footprint,
		Ticks:          mc.ticks,
		Done:           mc.state == models.StateDone,
		UpdatedAt:      mc.now(),
	}
	if mc.finalizeErr != nil {
		status.FinalizeError = mc.finalizeErr.Error()
	}
	return status
}

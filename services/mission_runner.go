package services

import (
	"context"
	"log"
	"sync"
	"time"

	"mission-backend/models"
)

// MissionRunner - MissionController를 일정 주기로 Tick하는 호스트 루프
//
// Tick은 runner 고루틴에서만 호출되고, HTTP 핸들러는 Status/TraveledPath로
// 마지막 스냅샷을 읽는다. 미션이 Done에 도달하면 이동 경로를 보관소에 저장하고 Done 채널을 닫는다.
type MissionRunner struct {
	mc       *MissionController
	interval time.Duration
	archive  PathArchive

	mu       sync.RWMutex
	status   models.MissionStatus
	traveled []models.Point2D
	running  bool
	archived bool

	stepMu   sync.Mutex    // Step은 한 번에 하나씩
	stopChan chan struct{} // 현재 루프 전용, Stop에서 닫는다
	doneChan chan struct{}
	doneOnce sync.Once
}

// NewMissionRunner - runner 생성 (interval이 0 이하이면 기본 주기)
func NewMissionRunner(mc *MissionController, interval time.Duration) *MissionRunner {
	if interval <= 0 {
		interval = defaultTickInterval
	}
	r := &MissionRunner{
		mc:       mc,
		interval: interval,
		doneChan: make(chan struct{}),
	}
	r.publish()
	return r
}

// SetArchive - 종료 시 이동 경로를 저장할 보관소 지정
func (r *MissionRunner) SetArchive(archive PathArchive) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.archive = archive
}

// Start - 주기 루프 시작
func (r *MissionRunner) Start(ctx context.Context) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	r.running = true
	r.stopChan = stop
	r.mu.Unlock()

	log.Printf("🚀 미션 시작 (id=%s, tick=%v)", r.mc.Config().MissionID, r.interval)
	go r.run(ctx, stop)
}

// Stop - 루프 중지 (진행 중인 Tick은 끝까지 수행)
func (r *MissionRunner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	stop := r.stopChan
	r.running = false
	r.stopChan = nil
	r.mu.Unlock()

	close(stop)
	log.Println("🛑 미션 루프 중지")
}

func (r *MissionRunner) run(ctx context.Context, stop chan struct{}) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			r.exit(stop)
			return
		case <-ticker.C:
			if !r.Step(ctx) {
				r.exit(stop)
				return
			}
		}
	}
}

// exit - 루프가 스스로 끝날 때 running 해제 (이미 Stop/재시작된 경우 무시)
func (r *MissionRunner) exit(stop chan struct{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopChan == stop {
		r.running = false
		r.stopChan = nil
	}
}

// Step - Tick 한 번 수행 후 스냅샷 갱신. 미션이 끝났으면 false.
func (r *MissionRunner) Step(ctx context.Context) bool {
	r.stepMu.Lock()
	defer r.stepMu.Unlock()

	if r.mc.State() == models.StateDone {
		r.finish()
		return false
	}

	r.mc.Tick(ctx)
	r.publish()

	if r.mc.State() == models.StateDone {
		r.finish()
		return false
	}
	return true
}

// publish - 컨트롤러 스냅샷을 읽기용으로 복사
func (r *MissionRunner) publish() {
	status := r.mc.Snapshot()
	traveled := r.mc.TraveledPath()

	r.mu.Lock()
	r.status = status
	r.traveled = traveled
	r.mu.Unlock()
}

// finish - 이동 경로 보관 후 Done 채널 닫기 (한 번만)
func (r *MissionRunner) finish() {
	r.doneOnce.Do(func() {
		r.mu.Lock()
		archive := r.archive
		points := r.traveled
		r.mu.Unlock()

		if archive != nil {
			if err := archive.ArchiveTraveledPath(r.mc.Config().MissionID, points); err != nil {
				log.Printf("❌ 이동 경로 DB 보관 실패: %v", err)
			} else {
				r.mu.Lock()
				r.archived = true
				r.mu.Unlock()
				log.Printf("💾 이동 경로 DB 보관 완료 (%d개 지점)", len(points))
			}
		}
		close(r.doneChan)
	})
}

// Done - 미션 종료 시 닫히는 채널
func (r *MissionRunner) Done() <-chan struct{} {
	return r.doneChan
}

// Status - 마지막 스냅샷
func (r *MissionRunner) Status() models.MissionStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// TraveledPath - 마지막 스냅샷의 이동 경로 복사본
func (r *MissionRunner) TraveledPath() []models.Point2D {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Point2D, len(r.traveled))
	copy(out, r.traveled)
	return out
}

// Running - 루프 동작 여부
func (r *MissionRunner) Running() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.running
}

// Archived - DB 보관 성공 여부
func (r *MissionRunner) Archived() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.archived
}

// Config - 미션 설정
func (r *MissionRunner) Config() models.MissionConfig {
	return r.mc.Config()
}

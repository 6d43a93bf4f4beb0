package services

import (
	"fmt"
	"log"
	"sync"
	"time"

	"mission-backend/models"
)

// LogBuffer - 미션 이벤트 로그 버퍼 (비동기 일괄 저장)
type LogBuffer struct {
	logs      []models.MissionLog
	mu        sync.Mutex
	flushSize int           // 일괄 저장 크기
	flushTime time.Duration // 자동 플러시 시간
	stopChan  chan bool
	doneChan  chan struct{}
}

var logBuffer *LogBuffer

// InitLogging - 로깅 시스템 초기화
func InitLogging(flushSize int, flushInterval time.Duration) {
	if flushSize <= 0 {
		flushSize = 50
	}
	logBuffer = &LogBuffer{
		logs:      make([]models.MissionLog, 0, flushSize*2),
		flushSize: flushSize,
		flushTime: flushInterval,
		stopChan:  make(chan bool),
		doneChan:  make(chan struct{}),
	}

	// 자동 플러시 고루틴 시작
	go logBuffer.autoFlush()

	log.Printf("✅ 로깅 시스템 초기화 완료 (flushSize: %d, flushInterval: %v)", flushSize, flushInterval)
}

// autoFlush - 주기적 로그 저장
func (lb *LogBuffer) autoFlush() {
	defer close(lb.doneChan)

	ticker := time.NewTicker(lb.flushTime)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			lb.Flush()
		case <-lb.stopChan:
			lb.Flush() // 종료 시 남은 로그 저장
			return
		}
	}
}

// AddLog - 로그 버퍼에 추가
func AddLog(logEntry models.MissionLog) {
	if logBuffer == nil {
		return
	}

	logBuffer.mu.Lock()
	logBuffer.logs = append(logBuffer.logs, logEntry)
	size := len(logBuffer.logs)
	logBuffer.mu.Unlock()

	// 버퍼 크기가 차면 즉시 플러시
	if size >= logBuffer.flushSize {
		go logBuffer.Flush()
	}
}

// Pending - 아직 저장되지 않은 로그 수
func (lb *LogBuffer) Pending() int {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return len(lb.logs)
}

// Flush - 버퍼의 모든 로그를 DB에 저장
func (lb *LogBuffer) Flush() {
	lb.mu.Lock()
	if len(lb.logs) == 0 {
		lb.mu.Unlock()
		return
	}

	// 로그 복사 및 버퍼 초기화
	logsToSave := make([]models.MissionLog, len(lb.logs))
	copy(logsToSave, lb.logs)
	lb.logs = lb.logs[:0]
	lb.mu.Unlock()

	if db == nil {
		return
	}
	if err := db.CreateInBatches(logsToSave, 100).Error; err != nil {
		log.Printf("❌ 로그 저장 실패: %v", err)
		return
	}
	log.Printf("💾 로그 %d개 저장 완료", len(logsToSave))
}

// LogMissionEvent - 상태 머신 이벤트를 로그로 저장 (MissionObserver로 등록)
func LogMissionEvent(evt models.MissionEvent) {
	AddLog(models.NewMissionLog(evt))
}

// MissionLogObserver - LogMissionEvent를 관찰자로 감싼 값
var MissionLogObserver MissionObserver = ObserverFunc(LogMissionEvent)

// ========================================
// 조회
// ========================================

// GetRecentLogs - 최근 로그 조회
func GetRecentLogs(missionID string, limit int) ([]models.MissionLog, error) {
	if db == nil {
		return nil, fmt.Errorf("database not connected")
	}
	var logs []models.MissionLog
	err := db.Where("mission_id = ?", missionID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

// GetLogsByTimeRange - 시간 범위로 로그 조회
func GetLogsByTimeRange(missionID string, start, end time.Time, limit int) ([]models.MissionLog, error) {
	if db == nil {
		return nil, fmt.Errorf("database not connected")
	}
	var logs []models.MissionLog
	query := db.Where("mission_id = ? AND created_at BETWEEN ? AND ?", missionID, start, end)

	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.Order("created_at DESC").Find(&logs).Error
	return logs, err
}

// GetLogsByEventType - 이벤트 타입별 로그 조회
func GetLogsByEventType(missionID string, eventType string, limit int) ([]models.MissionLog, error) {
	if db == nil {
		return nil, fmt.Errorf("database not connected")
	}
	var logs []models.MissionLog
	err := db.Where("mission_id = ? AND event_type = ?", missionID, eventType).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

// GetLogStats - 로그 통계
func GetLogStats(missionID string, hours int) (map[string]interface{}, error) {
	if db == nil {
		return nil, fmt.Errorf("database not connected")
	}
	since := time.Now().Add(-time.Duration(hours) * time.Hour)

	var totalLogs int64
	if err := db.Model(&models.MissionLog{}).
		Where("mission_id = ? AND created_at >= ?", missionID, since).
		Count(&totalLogs).Error; err != nil {
		return nil, err
	}

	// 이벤트 타입별 카운트
	var eventCounts []struct {
		EventType string
		Count     int64
	}
	if err := db.Model(&models.MissionLog{}).
		Select("event_type, COUNT(*) as count").
		Where("mission_id = ? AND created_at >= ?", missionID, since).
		Group("event_type").
		Scan(&eventCounts).Error; err != nil {
		return nil, err
	}

	eventMap := make(map[string]int64)
	for _, ec := range eventCounts {
		eventMap[ec.EventType] = ec.Count
	}

	return map[string]interface{}{
		"total_logs":   totalLogs,
		"event_counts": eventMap,
		"time_range":   fmt.Sprintf("Last %d hours", hours),
	}, nil
}

// StopLogging - 로깅 시스템 종료 (남은 로그 저장 후 반환)
func StopLogging() {
	if logBuffer == nil {
		return
	}
	logBuffer.stopChan <- true
	<-logBuffer.doneChan
	logBuffer = nil
	log.Println("🛑 로깅 시스템 종료")
}

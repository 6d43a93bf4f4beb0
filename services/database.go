package services

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"mission-backend/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB 인스턴스
var db *gorm.DB

// InitDatabase - 환경 변수(DB_DRIVER)에 따라 MySQL/SQLite 연결
//
// DB_DRIVER가 비어 있으면 DB 없이 실행한다 (로그/경로 보관 비활성화).
func InitDatabase() error {
	switch driver := os.Getenv("DB_DRIVER"); driver {
	case "":
		log.Println("⚠️  DB_DRIVER가 설정되지 않아 DB 없이 실행합니다")
		return nil
	case "mysql":
		dsn, err := mysqlDSNFromEnv()
		if err != nil {
			return err
		}
		_, err = OpenDatabase(mysql.Open(dsn))
		return err
	case "sqlite":
		path := os.Getenv("SQLITE_PATH")
		if path == "" {
			path = "mission.db"
		}
		_, err := OpenDatabase(sqlite.Open(path))
		return err
	default:
		return fmt.Errorf("지원하지 않는 DB_DRIVER: %q (mysql | sqlite)", driver)
	}
}

// mysqlDSNFromEnv - MYSQL_* 환경 변수로 DSN 구성
func mysqlDSNFromEnv() (string, error) {
	host := os.Getenv("MYSQL_HOST")
	portStr := os.Getenv("MYSQL_PORT")
	user := os.Getenv("MYSQL_USER")
	password := os.Getenv("MYSQL_PASSWORD")
	dbname := os.Getenv("MYSQL_DATABASE")

	if host == "" || user == "" || password == "" || dbname == "" {
		return "", fmt.Errorf("MySQL 환경 변수가 모두 설정되지 않았습니다: MYSQL_HOST, MYSQL_USER, MYSQL_PASSWORD, MYSQL_DATABASE")
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port == 0 {
		port = 3306 // 기본 포트
	}

	log.Printf("📡 연결 정보: %s@%s:%d/%s", user, host, port, dbname)
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, password, host, port, dbname), nil
}

// OpenDatabase - 주어진 dialector로 연결하고 마이그레이션
func OpenDatabase(dialector gorm.Dialector) (*gorm.DB, error) {
	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("DB 연결 실패: %w", err)
	}

	// AutoMigrate - 테이블 자동 생성
	if err := conn.AutoMigrate(
		&models.MissionLog{},
		&models.TraveledPoint{},
	); err != nil {
		return nil, fmt.Errorf("마이그레이션 실패: %w", err)
	}

	db = conn
	log.Printf("✅ DB 연결 및 마이그레이션 완료 (%s)", dialector.Name())
	return conn, nil
}

// GetDB - GORM 인스턴스 반환 (미연결이면 nil)
func GetDB() *gorm.DB {
	return db
}

// ========================================
// 이동 경로 보관
// ========================================

// PathArchive - 종료된 미션의 이동 경로 보관소
type PathArchive interface {
	ArchiveTraveledPath(missionID string, points []models.Point2D) error
}

// PathStore - gorm 기반 PathArchive
type PathStore struct {
	db *gorm.DB
}

// NewPathStore - PathStore 생성
func NewPathStore(conn *gorm.DB) *PathStore {
	return &PathStore{db: conn}
}

// ArchiveTraveledPath - 이동 경로를 순서대로 저장
func (s *PathStore) ArchiveTraveledPath(missionID string, points []models.Point2D) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("%w: database not connected", ErrPersistence)
	}
	if len(points) == 0 {
		return nil
	}

	rows := make([]models.TraveledPoint, len(points))
	for i, p := range points {
		rows[i] = models.TraveledPoint{MissionID: missionID, Seq: i, X: p.X, Y: p.Y}
	}
	if err := s.db.CreateInBatches(rows, 100).Error; err != nil {
		return fmt.Errorf("%w: archive %s: %v", ErrPersistence, missionID, err)
	}
	return nil
}

// LoadTraveledPath - 보관된 이동 경로 조회 (기록 순서)
func (s *PathStore) LoadTraveledPath(missionID string) ([]models.Point2D, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("%w: database not connected", ErrPersistence)
	}

	var rows []models.TraveledPoint
	if err := s.db.Where("mission_id = ?", missionID).Order("seq ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	points := make([]models.Point2D, len(rows))
	for i, r := range rows {
		points[i] = models.Point2D{X: r.X, Y: r.Y}
	}
	return points, nil
}

// ListMissions - 보관된 미션 ID 목록
func (s *PathStore) ListMissions() ([]string, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("%w: database not connected", ErrPersistence)
	}
	var ids []string
	err := s.db.Model(&models.TraveledPoint{}).Distinct("mission_id").Order("mission_id").Pluck("mission_id", &ids).Error
	return ids, err
}

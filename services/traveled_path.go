package services

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"mission-backend/models"
)

// traveledPathLineFormat - 이동 경로 파일 한 줄 형식 (폭 6, 소수점 1자리)
const traveledPathLineFormat = "x=%6.1f y=%6.1f\n"

// TraveledPath - 도착이 확인된 지점의 기록 (추가만 가능)
type TraveledPath struct {
	points []models.Point2D
}

// NewTraveledPath - 빈 이동 경로 생성
func NewTraveledPath() *TraveledPath {
	return &TraveledPath{points: make([]models.Point2D, 0, 64)}
}

// TraveledPathFrom - 기존 지점 목록으로 이동 경로 구성 (조회/직렬화용)
func TraveledPathFrom(points []models.Point2D) *TraveledPath {
	tp := NewTraveledPath()
	for _, p := range points {
		tp.Record(p)
	}
	return tp
}

// Record - 지점 추가
func (tp *TraveledPath) Record(p models.Point2D) {
	tp.points = append(tp.points, p)
}

// Len - 기록된 지점 수
func (tp *TraveledPath) Len() int {
	return len(tp.points)
}

// Points - 기록된 지점 복사본 (기록 순서)
func (tp *TraveledPath) Points() []models.Point2D {
	return append([]models.Point2D(nil), tp.points...)
}

// Serialize - 고정 형식 텍스트로 변환
func (tp *TraveledPath) Serialize() string {
	var sb strings.Builder
	for _, p := range tp.points {
		fmt.Fprintf(&sb, traveledPathLineFormat, p.X, p.Y)
	}
	return sb.String()
}

// WriteTo - io.Writer로 직렬화
func (tp *TraveledPath) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, tp.Serialize())
	return int64(n), err
}

// SaveFile - 이동 경로를 파일로 저장
//
// 어떤 경로로 빠져나가도 파일은 닫히며, Close 에러도 보고한다.
func (tp *TraveledPath) SaveFile(path string) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrPersistence, path, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("%w: close %s: %v", ErrPersistence, path, closeErr)
		}
	}()

	w := bufio.NewWriter(file)
	if _, err := tp.WriteTo(w); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrPersistence, path, err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("%w: flush %s: %v", ErrPersistence, path, err)
	}
	return nil
}

// ParseTraveledPath - SaveFile/Serialize 형식을 다시 읽음
func ParseTraveledPath(r io.Reader) ([]models.Point2D, error) {
	points := []models.Point2D{}
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		var p models.Point2D
		if _, err := fmt.Sscanf(text, "x=%f y=%f", &p.X, &p.Y); err != nil {
			return nil, fmt.Errorf("line %d %q: %w", line, text, err)
		}
		points = append(points, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return points, nil
}

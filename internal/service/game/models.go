package game

import (
	"fmt"
	"time"
)

// Case: 퍼즐 단위인 사건 기록 (불변 참조 데이터)
type Case struct {
	CaseID      uint   `gorm:"primaryKey;column:case_id" json:"case_id"`
	Date        string `gorm:"column:date;size:20" json:"date"`
	Type        string `gorm:"column:type;size:64" json:"type"`
	Description string `gorm:"column:description;type:text" json:"description"`
	City        string `gorm:"column:city;size:64" json:"city"`
}

// checkRow: 사건 → 정답 person_id 매핑 (ground truth)
// (case_id, person_id) 중복 행이 존재할 수 있다는 전제로 조회 시 항상 DISTINCT를 쓴다.
type checkRow struct {
	ID       uint `gorm:"primaryKey;autoIncrement;column:id"`
	CaseID   uint `gorm:"column:case_id;index"`
	PersonID int  `gorm:"column:person_id"`
}

// progressModel: user_progress 테이블 매핑
// (user_id, level_id, case_id) 조합당 최대 1행 — 유니크 키가 업서트의 원자성을 보장한다.
type progressModel struct {
	ID          uint       `gorm:"primaryKey;autoIncrement;column:id"`
	UserID      uint       `gorm:"column:user_id;uniqueIndex:idx_user_level_case"`
	LevelID     int        `gorm:"column:level_id;uniqueIndex:idx_user_level_case"`
	CaseID      uint       `gorm:"column:case_id;uniqueIndex:idx_user_level_case"`
	Completed   bool       `gorm:"column:completed;default:false"`
	Score       int        `gorm:"column:score;default:0"`
	Attempts    int        `gorm:"column:attempts;default:0"`
	CompletedAt *time.Time `gorm:"column:completed_at"`
}

func (progressModel) TableName() string { return "user_progress" }

// Pagination: 케이스 목록 응답의 페이지 정보
type Pagination struct {
	CurrentPage    int `json:"currentPage,omitempty"`
	TotalPages     int `json:"totalPages"`
	TotalQuestions int `json:"totalQuestions,omitempty"`
	TotalCases     int `json:"totalCases,omitempty"`
}

// CheckResult: 정답 판정 결과
type CheckResult struct {
	Correct       bool
	AlreadySolved bool
	CaseID        uint
	Message       string
	FoundPersons  int
	TotalPersons  int
	PointsAwarded int
	NextLevel     string
}

func caseTable(level int) string {
	return fmt.Sprintf("crime_scene_report_level%d", level)
}

func checkTable(level int) string {
	return fmt.Sprintf("check_table%d", level)
}

package auth

import (
	"time"
)

// userModel: users 테이블 매핑 (password_hash는 절대 API로 노출하지 않음)
// 게임 점수/스트릭 필드는 game 서비스가 같은 테이블을 공유하여 갱신한다.
type userModel struct {
	ID           uint   `gorm:"primaryKey;autoIncrement;column:id"`
	Name         string `gorm:"column:name;size:64"`
	Email        string `gorm:"uniqueIndex;column:email;size:255"`
	PasswordHash string `gorm:"column:password_hash;size:100"`

	TotalScore     int     `gorm:"column:total_score;default:0"`
	CurrentStreak  int     `gorm:"column:current_streak;default:0"`
	HighestStreak  int     `gorm:"column:highest_streak;default:0"`
	LastActiveDate *string `gorm:"column:last_active_date;size:10"`

	LastLogin *time.Time `gorm:"column:last_login"`

	ResetTokenHash    *string    `gorm:"column:reset_token_hash;size:64;index"`
	ResetTokenExpires *time.Time `gorm:"column:reset_token_expires"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (userModel) TableName() string { return "users" }

// User: API 응답용 유저 정보
type User struct {
	ID        uint
	Name      string
	Email     string
	CreatedAt time.Time
}

func toUser(m *userModel) *User {
	if m == nil {
		return nil
	}
	return &User{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		CreatedAt: m.CreatedAt,
	}
}

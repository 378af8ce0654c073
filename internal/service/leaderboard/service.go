package leaderboard

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/kapu/sql-detective-go/internal/constants"
	"github.com/kapu/sql-detective-go/internal/service/cache"
)

const leaderboardCacheKey = "leaderboard:top"

// Entry: 리더보드 한 행
type Entry struct {
	ID            uint   `gorm:"column:id" json:"id"`
	Name          string `gorm:"column:name" json:"name"`
	TotalScore    int    `gorm:"column:total_score" json:"total_score"`
	CurrentStreak int    `gorm:"column:current_streak" json:"current_streak"`
	HighestStreak int    `gorm:"column:highest_streak" json:"highest_streak"`
}

// UserStats: 개인 통계 (경쟁 순위 포함)
type UserStats struct {
	TotalScore      int `gorm:"column:total_score" json:"total_score"`
	CurrentStreak   int `gorm:"column:current_streak" json:"current_streak"`
	HighestStreak   int `gorm:"column:highest_streak" json:"highest_streak"`
	Rank            int `gorm:"column:user_rank" json:"rank"`
	LevelsCompleted int `gorm:"column:levels_completed" json:"levels_completed"`
}

// Service: 상위 10명 랭킹과 개인 통계를 제공한다. 랭킹은 Valkey에 30초 캐싱된다.
// cacheSvc는 nil일 수 있으며, 그 경우 매번 DB를 조회한다.
type Service struct {
	db       *gorm.DB
	cacheSvc *cache.Service
	logger   *slog.Logger
}

// NewService: 리더보드 서비스를 생성합니다.
func NewService(db *gorm.DB, cacheSvc *cache.Service, logger *slog.Logger) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, cacheSvc: cacheSvc, logger: logger}, nil
}

// GetLeaderboard: 총점 내림차순(동점 시 최고 스트릭 내림차순) 상위 10명을 반환합니다.
// 캐시 장애는 DB 조회로 폴백하고 경고만 남긴다.
func (s *Service) GetLeaderboard(ctx context.Context) ([]Entry, error) {
	if s.cacheSvc != nil {
		// 캐시 미스면 cached가 nil로 남는다.
		var cached []Entry
		if err := s.cacheSvc.Get(ctx, leaderboardCacheKey, &cached); err != nil {
			s.logger.Warn("leaderboard_cache_read_failed", slog.Any("error", err))
		} else if cached != nil {
			return cached, nil
		}
	}

	entries := make([]Entry, 0, constants.LeaderboardConfig.TopN)
	err := s.db.WithContext(ctx).
		Table("users").
		Select("id, name, total_score, current_streak, highest_streak").
		Order("total_score DESC, highest_streak DESC").
		Limit(constants.LeaderboardConfig.TopN).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard: %w", err)
	}

	if s.cacheSvc != nil {
		if err := s.cacheSvc.Set(ctx, leaderboardCacheKey, entries, constants.LeaderboardConfig.CacheTTL); err != nil {
			s.logger.Warn("leaderboard_cache_write_failed", slog.Any("error", err))
		}
	}
	return entries, nil
}

// GetUserStats: 점수/스트릭과 경쟁 순위(나보다 점수가 높은 인원 수 + 1),
// 완료한 사건 수를 반환합니다.
func (s *Service) GetUserStats(ctx context.Context, userID uint) (*UserStats, error) {
	var stats UserStats
	err := s.db.WithContext(ctx).
		Table("users AS u").
		Select(`u.total_score, u.current_streak, u.highest_streak,
			(SELECT COUNT(*) + 1 FROM users WHERE total_score > u.total_score) AS user_rank,
			(SELECT COUNT(*) FROM user_progress WHERE user_id = ? AND completed = ?) AS levels_completed`,
			userID, true).
		Where("u.id = ?", userID).
		Take(&stats).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to fetch user stats: %w", err)
	}
	return &stats, nil
}

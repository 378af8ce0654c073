package server

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/kapu/sql-detective-go/internal/constants"
	leaderboardsvc "github.com/kapu/sql-detective-go/internal/service/leaderboard"
)

// LeaderboardHandler: 랭킹과 개인 통계 엔드포인트를 처리하는 핸들러
type LeaderboardHandler struct {
	leaderboard *leaderboardsvc.Service
	logger      *slog.Logger
}

// NewLeaderboardHandler: LeaderboardHandler 인스턴스를 생성합니다.
func NewLeaderboardHandler(leaderboard *leaderboardsvc.Service, logger *slog.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboard: leaderboard, logger: logger}
}

// GetLeaderboard: GET /api/leaderboard
func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout.APIRequest)
	defer cancel()

	entries, err := h.leaderboard.GetLeaderboard(ctx)
	if err != nil {
		h.logger.Error("leaderboard_fetch_failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Server error while fetching leaderboard",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"leaderboard": entries,
	})
}

// GetUserStats: GET /api/user-stats (Bearer)
func (h *LeaderboardHandler) GetUserStats(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized. Please log in."})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout.APIRequest)
	defer cancel()

	stats, err := h.leaderboard.GetUserStats(ctx, userID)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
			return
		}
		h.logger.Error("user_stats_fetch_failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Server error while fetching user stats",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   stats,
	})
}

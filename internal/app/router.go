package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/kapu/sql-detective-go/internal/config"
	"github.com/kapu/sql-detective-go/internal/constants"
	"github.com/kapu/sql-detective-go/internal/health"
	"github.com/kapu/sql-detective-go/internal/server"
)

// newRouter: 공통 미들웨어가 장착된 Gin 라우터를 생성합니다.
func newRouter(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	if err := router.SetTrustedProxies(constants.ServerConfig.TrustedProxies); err != nil {
		return nil, fmt.Errorf("failed to set trusted proxies: %w", err)
	}

	router.Use(gin.Recovery())
	router.Use(server.LoggerMiddleware(ctx, logger, "/health"))
	router.Use(server.RequestIDMiddleware())
	router.Use(server.SecurityHeadersMiddleware())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           constants.CORSConfig.MaxAge,
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.Server.CORSOrigins
	} else {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, health.Get())
	})

	return router, nil
}

// registerRoutes: 전체 API 라우트를 등록합니다.
// 레벨 2/3 경로는 원 API와의 호환을 위해 "-2"/"-3" 접미사를 쓴다.
func registerRoutes(
	router *gin.Engine,
	authHandler *server.AuthHandler,
	gameHandler *server.GameHandler,
	leaderboardHandler *server.LeaderboardHandler,
	quizHandler *server.QuizHandler,
	authed gin.HandlerFunc,
) {
	authGroup := router.Group("/auth")
	authGroup.Use(server.AuthRateLimitMiddleware())
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/forgot-password", authHandler.ForgotPassword)
		authGroup.POST("/reset-password", authHandler.ResetPassword)
		authGroup.GET("/user", authed, authHandler.GetUser)
		authGroup.PUT("/update-profile", authed, authHandler.UpdateProfile)
	}

	api := router.Group("/api")
	{
		api.GET("/leaderboard", leaderboardHandler.GetLeaderboard)
		api.GET("/user-stats", authed, leaderboardHandler.GetUserStats)

		api.GET("/topics", quizHandler.GetTopics)
		api.GET("/questions/:topicId", quizHandler.GetQuestionsByTopic)
		api.POST("/submit-answers", quizHandler.SubmitAnswers)

		for level := constants.GameConfig.MinLevel; level <= constants.GameConfig.MaxLevel; level++ {
			suffix := ""
			if level > 1 {
				suffix = fmt.Sprintf("-%d", level)
			}
			levelPath := fmt.Sprintf("/level%d", level)

			api.GET(levelPath, authed, gameHandler.CasePage(level))
			api.GET(levelPath+"/all-cases", authed, gameHandler.AllCases(level))
			api.GET(levelPath+"/case/:caseId", authed, gameHandler.CaseByID(level))
			api.POST("/check-answer"+suffix, authed, gameHandler.CheckAnswer(level))
			api.GET("/user/completed-cases"+suffix, authed, gameHandler.CompletedCases(level))
			api.POST("/execute-query"+suffix, authed, gameHandler.ExecuteQuery)
		}
	}
}

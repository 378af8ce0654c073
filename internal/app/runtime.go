package app

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kapu/sql-detective-go/internal/config"
	"github.com/kapu/sql-detective-go/internal/constants"
	authsvc "github.com/kapu/sql-detective-go/internal/service/auth"
	"github.com/kapu/sql-detective-go/internal/service/cache"
	"github.com/kapu/sql-detective-go/internal/service/database"
	gamesvc "github.com/kapu/sql-detective-go/internal/service/game"
	leaderboardsvc "github.com/kapu/sql-detective-go/internal/service/leaderboard"
	"github.com/kapu/sql-detective-go/internal/service/mailer"
	playgroundsvc "github.com/kapu/sql-detective-go/internal/service/playground"
	quizsvc "github.com/kapu/sql-detective-go/internal/service/quiz"
	"github.com/kapu/sql-detective-go/internal/server"
)

// Runtime: 서비스와 HTTP 서버를 묶어 수명주기를 관리한다.
type Runtime struct {
	Config *config.Config
	Logger *slog.Logger

	Database *database.MySQLService
	Cache    *cache.Service

	Auth        *authsvc.Service
	Game        *gamesvc.Service
	Playground  *playgroundsvc.Service
	Leaderboard *leaderboardsvc.Service
	Quiz        *quizsvc.Service

	Server *http.Server
}

// BuildRuntime: 설정으로부터 전체 서비스 그래프와 HTTP 서버를 조립합니다.
// Valkey 연결 실패는 치명적으로 보지 않는다. (캐시/잠금 기능만 비활성화)
func BuildRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := database.NewMySQLService(cfg.MySQL, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	cacheSvc, err := cache.NewCacheService(cache.Config{
		Host:     cfg.Valkey.Host,
		Port:     cfg.Valkey.Port,
		Password: cfg.Valkey.Password,
		DB:       cfg.Valkey.DB,
	}, logger)
	if err != nil {
		logger.Warn("valkey_unavailable", slog.Any("error", err))
		cacheSvc = nil
	}

	var mailSvc authsvc.Mailer
	mailerSvc := mailer.NewService(cfg.SMTP, cfg.Server.FrontendURL, logger)
	if mailerSvc != nil {
		mailSvc = mailerSvc
	} else {
		logger.Warn("mail_disabled", slog.String("reason", "SMTP_HOSTS not set"))
	}

	authService, err := authsvc.NewService(ctx, db.GetGormDB(), cacheSvc, mailSvc, logger,
		authsvc.DefaultConfig(cfg.JWT.Secret, cfg.Server.FrontendURL))
	if err != nil {
		return nil, fmt.Errorf("failed to build auth service: %w", err)
	}

	gameService, err := gamesvc.NewService(ctx, db.GetGormDB(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build game service: %w", err)
	}

	playgroundService, err := playgroundsvc.NewService(db.GetDB(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build playground service: %w", err)
	}

	leaderboardService, err := leaderboardsvc.NewService(db.GetGormDB(), cacheSvc, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build leaderboard service: %w", err)
	}

	quizService, err := quizsvc.NewService(ctx, db.GetGormDB(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build quiz service: %w", err)
	}

	router, err := newRouter(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	authHandler := server.NewAuthHandler(authService, logger)
	gameHandler := server.NewGameHandler(gameService, playgroundService, logger)
	leaderboardHandler := server.NewLeaderboardHandler(leaderboardService, logger)
	quizHandler := server.NewQuizHandler(quizService, logger)

	registerRoutes(router, authHandler, gameHandler, leaderboardHandler, quizHandler,
		server.RequireAuth(authService))

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  constants.ServerTimeout.Read,
		WriteTimeout: constants.ServerTimeout.Write,
		IdleTimeout:  constants.ServerTimeout.Idle,
	}

	return &Runtime{
		Config:      cfg,
		Logger:      logger,
		Database:    db,
		Cache:       cacheSvc,
		Auth:        authService,
		Game:        gameService,
		Playground:  playgroundService,
		Leaderboard: leaderboardService,
		Quiz:        quizService,
		Server:      httpServer,
	}, nil
}

// Run: HTTP 서버를 기동하고 SIGINT/SIGTERM에서 graceful shutdown 한다.
func (r *Runtime) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		r.Logger.Info("server_started", slog.String("addr", r.Server.Addr))
		if err := r.Server.ListenAndServe(); err != nil && !stdErrors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		r.runReminderSweep(groupCtx)
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		r.Logger.Info("shutdown_started")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ServerTimeout.Shutdown)
		defer cancel()
		if err := r.Server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		return nil
	})

	err := group.Wait()
	r.Close()
	return err
}

// runReminderSweep: 주기적으로 장기 미접속 사용자에게 복귀 메일을 발송한다.
// 메일러가 구성되지 않았으면 스윕은 아무 일도 하지 않는다.
func (r *Runtime) runReminderSweep(ctx context.Context) {
	if !r.Config.MailEnabled() {
		return
	}

	ticker := time.NewTicker(constants.ReminderConfig.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sent, err := r.Auth.SendInactivityReminders(ctx,
				constants.ReminderConfig.InactiveAfter, constants.ReminderConfig.BatchLimit)
			if err != nil {
				r.Logger.Warn("reminder_sweep_failed", slog.Any("error", err))
				continue
			}
			if sent > 0 {
				r.Logger.Info("reminder_sweep_done", slog.Int("sent", sent))
			}
		}
	}
}

// Close: DB, 캐시 연결을 정리한다.
func (r *Runtime) Close() {
	if r == nil {
		return
	}
	if r.Cache != nil {
		if err := r.Cache.Close(); err != nil {
			r.Logger.Warn("cache_close_failed", slog.Any("error", err))
		}
	}
	if r.Database != nil {
		if err := r.Database.Close(); err != nil {
			r.Logger.Warn("database_close_failed", slog.Any("error", err))
		}
	}
}

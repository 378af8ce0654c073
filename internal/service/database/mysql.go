package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/go-sql-driver/mysql" // MySQL 드라이버 등록
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/kapu/sql-detective-go/internal/config"
	"github.com/kapu/sql-detective-go/internal/constants"
)

// MySQLService: MySQL 데이터베이스 연결 및 GORM 인스턴스를 관리하는 서비스
type MySQLService struct {
	db     *sql.DB
	gormDB *gorm.DB
	logger *slog.Logger
}

// NewMySQLService: 주어진 설정을 사용하여 MySQL 연결을 수립하고 서비스를 초기화한다.
// 연결 풀 설정 및 초기 헬스 체크(Ping)를 수행하며, GORM 인스턴스도 함께 초기화한다.
func NewMySQLService(cfg config.MySQLConfig, logger *slog.Logger) (*MySQLService, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql: %w", err)
	}

	db.SetMaxOpenConns(constants.DatabaseConfig.MaxOpenConns)
	db.SetMaxIdleConns(constants.DatabaseConfig.MaxIdleConns)
	db.SetConnMaxLifetime(constants.DatabaseConfig.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), constants.RequestTimeout.DatabasePing)
	defer cancel()

	err = db.PingContext(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping mysql: %w", err)
	}

	logger.Info("MySQL connected",
		slog.String("host", cfg.Host),
		slog.Int("port", cfg.Port),
		slog.String("database", cfg.Database),
	)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn: db,
	}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize GORM: %w", err)
	}

	return &MySQLService{
		db:     db,
		gormDB: gormDB,
		logger: logger,
	}, nil
}

// GetDB: 기본 sql.DB 인스턴스를 반환한다. (자유 SQL 실행 등 raw 쿼리용)
func (ms *MySQLService) GetDB() *sql.DB {
	return ms.db
}

// GetGormDB: GORM DB 인스턴스를 반환한다.
func (ms *MySQLService) GetGormDB() *gorm.DB {
	return ms.gormDB
}

// Close: 데이터베이스 연결을 안전하게 종료한다.
func (ms *MySQLService) Close() error {
	if ms.db != nil {
		if err := ms.db.Close(); err != nil {
			return fmt.Errorf("failed to close mysql: %w", err)
		}
	}
	return nil
}

// Ping: 데이터베이스 연결 상태를 확인한다. (헬스 체크용)
func (ms *MySQLService) Ping(ctx context.Context) error {
	if err := ms.db.PingContext(ctx); err != nil {
		return fmt.Errorf("mysql ping failed: %w", err)
	}
	return nil
}

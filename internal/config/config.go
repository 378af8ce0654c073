package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/kapu/sql-detective-go/internal/constants"
	"github.com/kapu/sql-detective-go/internal/util"
)

// Config: SQL Detective 백엔드 전체 동작에 필요한 설정을 담는 구조체
type Config struct {
	Server  ServerConfig
	MySQL   MySQLConfig
	Valkey  ValkeyConfig
	JWT     JWTConfig
	SMTP    SMTPConfig
	Logging LoggingConfig
	Version string
}

// ServerConfig: HTTP 서버 및 프론트엔드 연동 설정
type ServerConfig struct {
	Port        int
	FrontendURL string
	CORSOrigins []string
}

// MySQLConfig: MySQL 접속 정보(Host, Port, User, Password, Database)를 담는 설정 구조체
type MySQLConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// ValkeyConfig: Valkey(Redis) 연결 설정
type ValkeyConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig: 토큰 서명 비밀키 (HS256)
type JWTConfig struct {
	Secret string
}

// SMTPConfig: 메일 발송 설정. Hosts는 우선순위 순서의 폴백 목록이다.
type SMTPConfig struct {
	Hosts    []string
	Port     int
	Username string
	Password string
	From     string
}

// LoggingConfig: 로그 레벨 및 파일 로테이션 설정
type LoggingConfig struct {
	Level      string
	Dir        string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Load: .env 및 환경변수에서 설정을 읽고 검증한다.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnvInt("SERVER_PORT", 8080),
			FrontendURL: strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:5173"), "/"),
			CORSOrigins: parseCommaSeparated(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		},
		MySQL: MySQLConfig{
			Host:     getEnv("MYSQL_HOST", constants.DatabaseDefaults.Host),
			Port:     getEnvInt("MYSQL_PORT", constants.DatabaseDefaults.Port),
			User:     getEnv("MYSQL_USER", constants.DatabaseDefaults.User),
			Password: getEnv("MYSQL_PASSWORD", constants.DatabaseDefaults.Password),
			Database: getEnv("MYSQL_DB", constants.DatabaseDefaults.Database),
		},
		Valkey: ValkeyConfig{
			Host:     getEnv("CACHE_HOST", "localhost"),
			Port:     getEnvInt("CACHE_PORT", 6379),
			Password: getEnv("CACHE_PASSWORD", ""),
			DB:       getEnvInt("CACHE_DB", 0),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
		},
		SMTP: SMTPConfig{
			Hosts:    parseCommaSeparated(getEnv("SMTP_HOSTS", "")),
			Port:     getEnvInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "SQL Detective <noreply@sqldetective.local>"),
		},
		Logging: LoggingConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Dir:        getEnv("LOG_DIR", ""),
			MaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 100),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
			MaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 30),
			Compress:   getEnvBool("LOG_COMPRESS", true),
		},
		Version: util.TrimSpace(getEnv("APP_VERSION", "1.0.0-go")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate: 필수 설정 존재 여부를 확인한다.
func (c *Config) Validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("SERVER_PORT is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required for token signing")
	}
	if c.MySQL.Database == "" {
		return fmt.Errorf("MYSQL_DB is required")
	}
	return nil
}

// MailEnabled: SMTP 발송이 구성되어 있는지 여부
func (c *Config) MailEnabled() bool {
	return len(c.SMTP.Hosts) > 0
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func parseCommaSeparated(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := util.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

package constants

import "time"

// GameConfig 는 패키지 변수다.
var GameConfig = struct {
	PointsPerCase int
	MinLevel      int
	MaxLevel      int
	CasesPerPage  int
}{
	PointsPerCase: 10, // 사건 최초 해결 시 부여 점수
	MinLevel:      1,
	MaxLevel:      3,
	CasesPerPage:  10, // 페이지당 사건 수
}

// PlaygroundConfig 는 패키지 변수다.
var PlaygroundConfig = struct {
	ForbiddenKeywords []string
	MaxQueryLength    int
	MaxRows           int
	QueryTimeout      time.Duration
}{
	ForbiddenKeywords: []string{"drop", "delete", "update", "insert", "alter", "create", "truncate"},
	MaxQueryLength:    2000,
	MaxRows:           500, // 응답 폭주 방지 상한
	QueryTimeout:      5 * time.Second,
}

// LeaderboardConfig 는 패키지 변수다.
var LeaderboardConfig = struct {
	TopN     int
	CacheTTL time.Duration
}{
	TopN:     10,
	CacheTTL: 30 * time.Second,
}

// AuthConfig 는 패키지 변수다.
var AuthConfig = struct {
	TokenTTL        time.Duration
	ResetTokenTTL   time.Duration
	RegisterCost    int
	ResetCost       int
	ResetTokenBytes int
}{
	TokenTTL:        1 * time.Hour,
	ResetTokenTTL:   1 * time.Hour,
	RegisterCost:    10, // bcrypt cost (가입)
	ResetCost:       12, // bcrypt cost (비밀번호 재설정)
	ResetTokenBytes: 32,
}

// ReminderConfig 는 패키지 변수다. 장기 미접속 사용자 복귀 메일 스윕 설정.
var ReminderConfig = struct {
	InactiveAfter time.Duration
	SweepInterval time.Duration
	BatchLimit    int
}{
	InactiveAfter: 14 * 24 * time.Hour,
	SweepInterval: 24 * time.Hour,
	BatchLimit:    200,
}

// RateLimitConfig 는 패키지 변수다.
var RateLimitConfig = struct {
	AuthPerSecond float64
	AuthBurst     int
	LoginFailMax  int64
	FailWindow    time.Duration
	LockDuration  time.Duration
}{
	AuthPerSecond: 2,
	AuthBurst:     10,
	LoginFailMax:  5, // 연속 실패 허용 횟수
	FailWindow:    15 * time.Minute,
	LockDuration:  15 * time.Minute,
}

// ValkeyConfig 는 패키지 변수다.
var ValkeyConfig = struct {
	ReadyTimeout      time.Duration
	ConnWriteTimeout  time.Duration
	DialTimeout       time.Duration
	BlockingPoolSize  int
	PipelineMultiplex int
}{
	ReadyTimeout:      5 * time.Second,
	ConnWriteTimeout:  10 * time.Second,
	DialTimeout:       10 * time.Second,
	BlockingPoolSize:  100,
	PipelineMultiplex: 4,
}

// DatabaseConfig 는 패키지 변수다.
var DatabaseConfig = struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}{
	MaxOpenConns:    25,
	MaxIdleConns:    10,
	ConnMaxLifetime: 30 * time.Minute,
}

// DatabaseDefaults 는 패키지 변수다.
var DatabaseDefaults = struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}{
	Host:     "localhost",
	Port:     3306,
	User:     "detective_user",
	Password: "detective_password",
	Database: "sql_detective_db",
}

// RequestTimeout 는 패키지 변수다.
var RequestTimeout = struct {
	APIRequest   time.Duration
	DatabasePing time.Duration
	MailSend     time.Duration
}{
	APIRequest:   10 * time.Second,
	DatabasePing: 5 * time.Second,
	MailSend:     15 * time.Second,
}

// AppTimeout 는 패키지 변수다.
var AppTimeout = struct {
	Build time.Duration
}{
	Build: 30 * time.Second,
}

// ServerTimeout 는 패키지 변수다.
var ServerTimeout = struct {
	Read     time.Duration
	Write    time.Duration
	Idle     time.Duration
	Shutdown time.Duration
}{
	Read:     15 * time.Second,
	Write:    30 * time.Second,
	Idle:     60 * time.Second,
	Shutdown: 10 * time.Second,
}

// ServerConfig 는 패키지 변수다.
var ServerConfig = struct {
	TrustedProxies []string
}{
	TrustedProxies: []string{"127.0.0.1", "::1"},
}

// CORSConfig 는 패키지 변수다.
var CORSConfig = struct {
	MaxAge time.Duration
}{
	MaxAge: 12 * time.Hour,
}

package auth

import (
	"time"

	"github.com/kapu/sql-detective-go/internal/constants"
)

// Config: 인증 서비스 동작 파라미터
type Config struct {
	// JWTSecret: HS256 서명 비밀키 (필수)
	JWTSecret string
	// FrontendURL: 비밀번호 재설정 링크의 베이스 URL
	FrontendURL string

	// TokenTTL: 액세스 토큰(JWT) 유효 기간
	TokenTTL time.Duration
	// ResetTokenTTL: 비밀번호 재설정 토큰 유효 기간
	ResetTokenTTL time.Duration

	// RegisterCost / ResetCost: bcrypt cost factor (재설정 시 더 높게)
	RegisterCost int
	ResetCost    int

	// LoginFailLimit: 이메일 기준 연속 실패 허용 횟수
	LoginFailLimit int64
	// LoginFailWindow: 실패 카운트 집계 윈도우
	LoginFailWindow time.Duration
	// LoginLockDuration: 계정 잠금 지속 시간
	LoginLockDuration time.Duration
}

// DefaultConfig: secret을 제외한 기본 파라미터를 채운 설정을 반환한다.
func DefaultConfig(secret, frontendURL string) Config {
	return Config{
		JWTSecret:         secret,
		FrontendURL:       frontendURL,
		TokenTTL:          constants.AuthConfig.TokenTTL,
		ResetTokenTTL:     constants.AuthConfig.ResetTokenTTL,
		RegisterCost:      constants.AuthConfig.RegisterCost,
		ResetCost:         constants.AuthConfig.ResetCost,
		LoginFailLimit:    constants.RateLimitConfig.LoginFailMax,
		LoginFailWindow:   constants.RateLimitConfig.FailWindow,
		LoginLockDuration: constants.RateLimitConfig.LockDuration,
	}
}

package auth

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/kapu/sql-detective-go/internal/service/cache"
	"github.com/kapu/sql-detective-go/internal/util"
)

const (
	loginFailKeyPrefix   = "auth:login_fail:"
	accountLockKeyPrefix = "auth:lock:"
	reminderKeyPrefix    = "auth:reminded:"
)

// Mailer: 가입/재설정 메일 발송 의존성. 발송 실패는 호출 측에서 비치명적으로 처리한다.
type Mailer interface {
	SendWelcome(ctx context.Context, name, email string) error
	SendPasswordReset(ctx context.Context, name, email, resetLink string) error
	SendInactivityReminder(ctx context.Context, name, email string, daysSinceLogin int) error
}

// Service: DB(유저) + Valkey(실패 카운터/잠금) 기반 인증 서비스
// cacheSvc와 mailer는 nil일 수 있으며, 그 경우 해당 기능은 비활성화된다.
type Service struct {
	db       *gorm.DB
	cacheSvc *cache.Service
	mailer   Mailer
	logger   *slog.Logger
	cfg      Config
}

// RegisterResult: 가입 결과. 환영 메일 발송 실패는 가입을 롤백하지 않고
// EmailFailed로만 보고한다. (메일러 미구성 시에는 false)
type RegisterResult struct {
	User        *User
	EmailFailed bool
}

// NewService: 인증 서비스를 생성하고 users 테이블을 준비합니다.
func NewService(ctx context.Context, db *gorm.DB, cacheSvc *cache.Service, mailer Mailer, logger *slog.Logger, cfg Config) (*Service, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if db == nil {
		return nil, fmt.Errorf("db must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt secret must not be empty")
	}
	if cfg.TokenTTL <= 0 {
		defaults := DefaultConfig(cfg.JWTSecret, cfg.FrontendURL)
		defaults.JWTSecret = cfg.JWTSecret
		cfg = defaults
	}

	if err := db.WithContext(ctx).AutoMigrate(&userModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate users table: %w", err)
	}

	return &Service{
		db:       db,
		cacheSvc: cacheSvc,
		mailer:   mailer,
		logger:   logger,
		cfg:      cfg,
	}, nil
}

// Register: 신규 사용자 등록. 성공 시 환영 메일을 best-effort로 발송한다.
func (s *Service) Register(ctx context.Context, name, email, password string) (*RegisterResult, error) {
	name = util.TrimSpace(name)
	email = normalizeEmail(email)

	if !validateName(name) || !validateEmail(email) || !validatePassword(password) {
		return nil, newError(CodeInvalidInput, "invalid name/email/password", nil)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.RegisterCost)
	if err != nil {
		return nil, newError(CodeInternal, "password hash failed", err)
	}

	model := &userModel{
		Name:         name,
		Email:        email,
		PasswordHash: string(passwordHash),
	}

	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		if isDuplicateKeyError(err) {
			return nil, newError(CodeEmailExists, "email already exists", err)
		}
		return nil, newError(CodeInternal, "failed to create user", err)
	}

	emailFailed := false
	if s.mailer != nil {
		if err := s.mailer.SendWelcome(ctx, name, email); err != nil {
			s.logger.Warn("welcome_email_failed",
				slog.Uint64("user_id", uint64(model.ID)),
				slog.Any("error", err),
			)
			emailFailed = true
		}
	}

	return &RegisterResult{User: toUser(model), EmailFailed: emailFailed}, nil
}

// Login: 자격 증명 검증 후 1시간짜리 JWT를 발급한다.
// last_login 갱신은 fire-and-forget이다. (실패는 로그만 남김)
func (s *Service) Login(ctx context.Context, email, password string) (string, *User, error) {
	email = normalizeEmail(email)

	if !validateEmail(email) || password == "" {
		return "", nil, newError(CodeInvalidCredentials, "invalid email or password", nil)
	}

	if locked, err := s.isAccountLocked(ctx, email); err != nil {
		s.logger.Warn("account_lock_check_failed", slog.Any("error", err))
	} else if locked {
		return "", nil, newError(CodeAccountLocked, "account temporarily locked", nil)
	}

	var user userModel
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			s.onLoginFailed(ctx, email)
			return "", nil, newError(CodeInvalidCredentials, "invalid email or password", nil)
		}
		return "", nil, newError(CodeInternal, "failed to query user", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.onLoginFailed(ctx, email)
		return "", nil, newError(CodeInvalidCredentials, "invalid email or password", nil)
	}

	s.onLoginSucceeded(ctx, email)

	token, err := signAccessToken(s.cfg.JWTSecret, user.ID, s.cfg.TokenTTL)
	if err != nil {
		return "", nil, newError(CodeInternal, "failed to sign token", err)
	}

	go s.touchLastLogin(user.ID)

	return token, toUser(&user), nil
}

// VerifyToken: Bearer 토큰을 검증하고 user id를 반환한다. (미들웨어용)
func (s *Service) VerifyToken(tokenString string) (uint, error) {
	userID, err := parseAccessToken(s.cfg.JWTSecret, tokenString)
	if err != nil {
		return 0, newError(CodeUnauthorized, "invalid or expired token", err)
	}
	return userID, nil
}

// GetUser: id로 사용자 정보를 조회한다.
func (s *Service) GetUser(ctx context.Context, userID uint) (*User, error) {
	var user userModel
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(CodeNotFound, "user not found", nil)
		}
		return nil, newError(CodeInternal, "failed to query user", err)
	}
	return toUser(&user), nil
}

// UpdateProfile: 이름/이메일(선택적으로 비밀번호)을 하나의 트랜잭션 안에서 갱신한다.
// 비밀번호 변경 시 현재 비밀번호 검증에 실패하면 전체가 롤백된다.
func (s *Service) UpdateProfile(ctx context.Context, userID uint, name, email, currentPassword, newPassword string) (*User, error) {
	name = util.TrimSpace(name)
	email = normalizeEmail(email)

	if !validateName(name) || !validateEmail(email) {
		return nil, newError(CodeInvalidInput, "invalid name/email", nil)
	}
	changePassword := currentPassword != "" && newPassword != ""
	if changePassword && !validatePassword(newPassword) {
		return nil, newError(CodeInvalidInput, "invalid new password", nil)
	}

	var updated *userModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user userModel
		if err := tx.First(&user, userID).Error; err != nil {
			if stdErrors.Is(err, gorm.ErrRecordNotFound) {
				return newError(CodeNotFound, "user not found", nil)
			}
			return newError(CodeInternal, "failed to query user", err)
		}

		updates := map[string]any{
			"name":  name,
			"email": email,
		}

		if changePassword {
			if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)) != nil {
				return newError(CodeInvalidInput, "current password is incorrect", nil)
			}
			newHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cfg.RegisterCost)
			if err != nil {
				return newError(CodeInternal, "password hash failed", err)
			}
			updates["password_hash"] = string(newHash)
		}

		if err := tx.Model(&userModel{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
			if isDuplicateKeyError(err) {
				return newError(CodeEmailExists, "email already exists", err)
			}
			return newError(CodeInternal, "failed to update profile", err)
		}

		var reread userModel
		if err := tx.First(&reread, userID).Error; err != nil {
			return newError(CodeInternal, "failed to re-read user", err)
		}
		updated = &reread
		return nil
	})
	if err != nil {
		var ae *Error
		if stdErrors.As(err, &ae) {
			return nil, ae
		}
		return nil, newError(CodeInternal, "profile update transaction failed", err)
	}

	return toUser(updated), nil
}

// ForgotPassword: 재설정 토큰을 생성해 해시만 저장하고, 원문 토큰을 메일 링크로 발송한다.
// 계정 존재 여부는 절대 노출하지 않는다. (미존재 시에도 에러 없이 반환)
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if !validateEmail(email) {
		// 포맷이 틀려도 generic 응답을 위해 성공 취급
		return nil
	}

	var user userModel
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return newError(CodeInternal, "failed to query user", err)
	}

	rawToken, err := generateResetToken(resetTokenBytes)
	if err != nil {
		return newError(CodeInternal, "failed to generate reset token", err)
	}

	tokenHash := sha256Hex(rawToken)
	expires := time.Now().UTC().Add(s.cfg.ResetTokenTTL)

	if err := s.db.WithContext(ctx).Model(&userModel{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"reset_token_hash":    tokenHash,
			"reset_token_expires": expires,
		}).Error; err != nil {
		return newError(CodeInternal, "failed to store reset token", err)
	}

	if s.mailer != nil {
		resetLink := fmt.Sprintf("%s/reset-password?token=%s", s.cfg.FrontendURL, rawToken)
		if err := s.mailer.SendPasswordReset(ctx, user.Name, user.Email, resetLink); err != nil {
			s.logger.Warn("reset_email_failed",
				slog.Uint64("user_id", uint64(user.ID)),
				slog.Any("error", err),
			)
		}
	}

	return nil
}

// ResetPassword: 토큰 해시로 미만료 사용자를 찾아 비밀번호를 재설정한다.
// 새 해시 기록과 재설정 필드 초기화는 단일 UPDATE로 원자적으로 수행된다.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" || !validatePassword(newPassword) {
		return newError(CodeInvalidInput, "invalid token or password", nil)
	}

	tokenHash := sha256Hex(token)
	now := time.Now().UTC()

	var user userModel
	err := s.db.WithContext(ctx).
		Where("reset_token_hash = ? AND reset_token_expires > ?", tokenHash, now).
		First(&user).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return newError(CodeInvalidInput, "invalid or expired reset token", nil)
		}
		return newError(CodeInternal, "failed to query reset token", err)
	}

	// 재설정 경로는 더 높은 cost로 재해싱한다.
	newHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cfg.ResetCost)
	if err != nil {
		return newError(CodeInternal, "password hash failed", err)
	}

	if err := s.db.WithContext(ctx).Model(&userModel{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"password_hash":       string(newHash),
			"reset_token_hash":    nil,
			"reset_token_expires": nil,
		}).Error; err != nil {
		return newError(CodeInternal, "failed to reset password", err)
	}

	return nil
}

const resetTokenBytes = 32

// SendInactivityReminders: last_login이 inactiveAfter보다 오래된 사용자에게 복귀 메일을 발송한다.
// 발송한 사용자는 캐시에 마킹해 같은 창 안에서 중복 발송하지 않는다. 발송 건수를 반환한다.
func (s *Service) SendInactivityReminders(ctx context.Context, inactiveAfter time.Duration, limit int) (int, error) {
	if s.mailer == nil {
		return 0, nil
	}

	cutoff := time.Now().UTC().Add(-inactiveAfter)

	var users []userModel
	if err := s.db.WithContext(ctx).
		Where("last_login IS NOT NULL AND last_login < ?", cutoff).
		Order("last_login ASC").
		Limit(limit).
		Find(&users).Error; err != nil {
		return 0, newError(CodeInternal, "failed to list inactive users", err)
	}

	now := time.Now().UTC()
	sent := 0
	for i := range users {
		u := &users[i]
		markerKey := reminderKeyPrefix + fmt.Sprint(u.ID)

		if s.cacheSvc != nil {
			if reminded, err := s.cacheSvc.Exists(ctx, markerKey); err == nil && reminded {
				continue
			}
		}

		days := util.DaysSince(*u.LastLogin, now)
		if err := s.mailer.SendInactivityReminder(ctx, u.Name, u.Email, days); err != nil {
			s.logger.Warn("inactivity_email_failed",
				slog.Uint64("user_id", uint64(u.ID)),
				slog.Any("error", err),
			)
			continue
		}
		sent++

		if s.cacheSvc != nil {
			_ = s.cacheSvc.Set(ctx, markerKey, "1", inactiveAfter)
		}
	}

	return sent, nil
}

func (s *Service) touchLastLogin(userID uint) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	now := time.Now().UTC()
	if err := s.db.WithContext(ctx).Model(&userModel{}).
		Where("id = ?", userID).
		Update("last_login", now).Error; err != nil {
		s.logger.Warn("last_login_update_failed",
			slog.Uint64("user_id", uint64(userID)),
			slog.Any("error", err),
		)
	}
}

func (s *Service) isAccountLocked(ctx context.Context, email string) (bool, error) {
	if s.cacheSvc == nil {
		return false, nil
	}
	exists, err := s.cacheSvc.Exists(ctx, accountLockKeyPrefix+email)
	if err != nil {
		return false, fmt.Errorf("cache exists failed: %w", err)
	}
	return exists, nil
}

func (s *Service) onLoginFailed(ctx context.Context, email string) {
	if s.cacheSvc == nil {
		return
	}

	key := loginFailKeyPrefix + email
	count, err := s.cacheSvc.IncrWithTTL(ctx, key, s.cfg.LoginFailWindow)
	if err != nil {
		s.logger.Warn("login_fail_increment_failed", slog.Any("error", err))
		return
	}

	if count >= s.cfg.LoginFailLimit {
		_ = s.cacheSvc.Set(ctx, accountLockKeyPrefix+email, "1", s.cfg.LoginLockDuration)
		_ = s.cacheSvc.Del(ctx, key)
	}
}

func (s *Service) onLoginSucceeded(ctx context.Context, email string) {
	if s.cacheSvc == nil {
		return
	}
	_ = s.cacheSvc.Del(ctx, loginFailKeyPrefix+email)
	_ = s.cacheSvc.Del(ctx, accountLockKeyPrefix+email)
}

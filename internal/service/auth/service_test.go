package auth

import (
	"context"
	stdErrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/kapu/sql-detective-go/internal/service/cache"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dbName := strings.NewReplacer("/", "_", " ", "_", ":", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", dbName)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

func newTestCache(t *testing.T) *cache.Service {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	host, portStr, err := net.SplitHostPort(mr.Addr())
	if err != nil {
		t.Fatalf("failed to split host/port: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("failed to parse port: %v", err)
	}

	cacheSvc, err := cache.NewCacheService(cache.Config{
		Host:         host,
		Port:         port,
		DisableCache: true,
	}, newTestLogger())
	if err != nil {
		t.Fatalf("failed to create cache service: %v", err)
	}
	t.Cleanup(func() { _ = cacheSvc.Close() })

	return cacheSvc
}

// 테스트에서는 bcrypt 비용을 최소로 낮춘다.
func newTestConfig() Config {
	cfg := DefaultConfig("test-secret", "http://localhost:3000")
	cfg.RegisterCost = bcrypt.MinCost
	cfg.ResetCost = bcrypt.MinCost
	return cfg
}

func newTestService(t *testing.T, cacheSvc *cache.Service, mailer Mailer) *Service {
	t.Helper()

	svc, err := NewService(context.Background(), newTestDB(t), cacheSvc, mailer, newTestLogger(), newTestConfig())
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return svc
}

func assertAuthCode(t *testing.T, err error, want ErrorCode) {
	t.Helper()

	var ae *Error
	if !stdErrors.As(err, &ae) {
		t.Fatalf("expected *auth.Error, got: %T (%v)", err, err)
	}
	if ae.Code != want {
		t.Fatalf("unexpected code: got=%s want=%s", ae.Code, want)
	}
}

type captureMailer struct {
	welcomeTo   string
	resetLink   string
	remindedTo  []string
	reminderDay int
	fail        bool
}

func (m *captureMailer) SendWelcome(_ context.Context, _, email string) error {
	if m.fail {
		return fmt.Errorf("smtp down")
	}
	m.welcomeTo = email
	return nil
}

func (m *captureMailer) SendPasswordReset(_ context.Context, _, _, resetLink string) error {
	if m.fail {
		return fmt.Errorf("smtp down")
	}
	m.resetLink = resetLink
	return nil
}

func (m *captureMailer) SendInactivityReminder(_ context.Context, _, email string, daysSinceLogin int) error {
	if m.fail {
		return fmt.Errorf("smtp down")
	}
	m.remindedTo = append(m.remindedTo, email)
	m.reminderDay = daysSinceLogin
	return nil
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService(t, nil, nil)

	result, err := svc.Register(context.Background(), "Detective", "user@example.com", "Password1")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if result.User == nil || result.User.ID == 0 {
		t.Fatalf("expected registered user with id")
	}

	token, user, err := svc.Login(context.Background(), "user@example.com", "Password1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token")
	}
	if user.ID != result.User.ID {
		t.Fatalf("unexpected user id: got=%d want=%d", user.ID, result.User.ID)
	}

	// 토큰의 id 클레임은 로그인한 사용자를 가리켜야 한다.
	verifiedID, err := svc.VerifyToken(token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if verifiedID != user.ID {
		t.Fatalf("token id mismatch: got=%d want=%d", verifiedID, user.ID)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := newTestService(t, nil, nil)

	if _, err := svc.Register(context.Background(), "User", "user@example.com", "Password1"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	_, err := svc.Register(context.Background(), "User2", "USER@example.com", "Password1")
	if err == nil {
		t.Fatalf("expected duplicate error, got nil")
	}
	assertAuthCode(t, err, CodeEmailExists)
}

func TestRegister_WelcomeEmailFailureIsNonFatal(t *testing.T) {
	mailer := &captureMailer{fail: true}
	svc := newTestService(t, nil, mailer)

	result, err := svc.Register(context.Background(), "User", "user@example.com", "Password1")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if !result.EmailFailed {
		t.Fatalf("expected EmailFailed=true when smtp fails")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := newTestService(t, nil, nil)

	if _, err := svc.Register(context.Background(), "User", "user@example.com", "Password1"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	_, _, err := svc.Login(context.Background(), "user@example.com", "wrong")
	if err == nil {
		t.Fatalf("expected login error, got nil")
	}
	assertAuthCode(t, err, CodeInvalidCredentials)
}

func TestLogin_AccountLockAfterFailures(t *testing.T) {
	cacheSvc := newTestCache(t)

	cfg := newTestConfig()
	cfg.LoginFailLimit = 3

	svc, err := NewService(context.Background(), newTestDB(t), cacheSvc, nil, newTestLogger(), cfg)
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	if _, err := svc.Register(context.Background(), "User", "user@example.com", "Password1"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		_, _, err := svc.Login(context.Background(), "user@example.com", "wrong")
		assertAuthCode(t, err, CodeInvalidCredentials)
	}

	// 잠금 이후엔 올바른 비밀번호로도 거부된다.
	_, _, err = svc.Login(context.Background(), "user@example.com", "Password1")
	if err == nil {
		t.Fatalf("expected locked account error, got nil")
	}
	assertAuthCode(t, err, CodeAccountLocked)
}

func TestUpdateProfile_WrongCurrentPasswordRollsBack(t *testing.T) {
	svc := newTestService(t, nil, nil)

	result, err := svc.Register(context.Background(), "User", "user@example.com", "Password1")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	_, err = svc.UpdateProfile(context.Background(), result.User.ID,
		"Renamed", "renamed@example.com", "wrong", "NewPassword1")
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	assertAuthCode(t, err, CodeInvalidInput)

	// 이름/이메일 변경도 함께 롤백되어야 한다.
	user, err := svc.GetUser(context.Background(), result.User.ID)
	if err != nil {
		t.Fatalf("get user failed: %v", err)
	}
	if user.Name != "User" || user.Email != "user@example.com" {
		t.Fatalf("profile changed despite rollback: %+v", user)
	}

	if _, _, err := svc.Login(context.Background(), "user@example.com", "Password1"); err != nil {
		t.Fatalf("old password should still work: %v", err)
	}
}

func TestUpdateProfile_ChangePassword(t *testing.T) {
	svc := newTestService(t, nil, nil)

	result, err := svc.Register(context.Background(), "User", "user@example.com", "Password1")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	_, err = svc.UpdateProfile(context.Background(), result.User.ID,
		"User", "user@example.com", "Password1", "NewPassword1")
	if err != nil {
		t.Fatalf("update profile failed: %v", err)
	}

	if _, _, err := svc.Login(context.Background(), "user@example.com", "NewPassword1"); err != nil {
		t.Fatalf("new password login failed: %v", err)
	}
	_, _, err = svc.Login(context.Background(), "user@example.com", "Password1")
	assertAuthCode(t, err, CodeInvalidCredentials)
}

func TestForgotAndResetPassword(t *testing.T) {
	mailer := &captureMailer{}
	svc := newTestService(t, nil, mailer)

	if _, err := svc.Register(context.Background(), "User", "user@example.com", "Password1"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if err := svc.ForgotPassword(context.Background(), "user@example.com"); err != nil {
		t.Fatalf("forgot password failed: %v", err)
	}
	if mailer.resetLink == "" {
		t.Fatalf("expected reset link to be mailed")
	}

	// 메일 링크에서 원문 토큰 추출
	idx := strings.Index(mailer.resetLink, "token=")
	if idx < 0 {
		t.Fatalf("reset link has no token: %s", mailer.resetLink)
	}
	token := mailer.resetLink[idx+len("token="):]

	if err := svc.ResetPassword(context.Background(), token, "NewPassword1"); err != nil {
		t.Fatalf("reset password failed: %v", err)
	}

	if _, _, err := svc.Login(context.Background(), "user@example.com", "NewPassword1"); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}

	// 토큰은 1회용이다.
	err := svc.ResetPassword(context.Background(), token, "AnotherPassword1")
	assertAuthCode(t, err, CodeInvalidInput)
}

func TestForgotPassword_UnknownEmailIsSilent(t *testing.T) {
	mailer := &captureMailer{}
	svc := newTestService(t, nil, mailer)

	if err := svc.ForgotPassword(context.Background(), "nobody@example.com"); err != nil {
		t.Fatalf("expected silent success, got: %v", err)
	}
	if mailer.resetLink != "" {
		t.Fatalf("no mail should be sent for unknown email")
	}
}

func TestResetPassword_ExpiredToken(t *testing.T) {
	mailer := &captureMailer{}

	cfg := newTestConfig()
	cfg.ResetTokenTTL = -1 * time.Minute // 발급 즉시 만료

	svc, err := NewService(context.Background(), newTestDB(t), nil, mailer, newTestLogger(), cfg)
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	if _, err := svc.Register(context.Background(), "User", "user@example.com", "Password1"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := svc.ForgotPassword(context.Background(), "user@example.com"); err != nil {
		t.Fatalf("forgot password failed: %v", err)
	}

	idx := strings.Index(mailer.resetLink, "token=")
	token := mailer.resetLink[idx+len("token="):]

	err = svc.ResetPassword(context.Background(), token, "NewPassword1")
	assertAuthCode(t, err, CodeInvalidInput)

	// 비밀번호는 바뀌지 않아야 한다.
	if _, _, err := svc.Login(context.Background(), "user@example.com", "Password1"); err != nil {
		t.Fatalf("original password should still work: %v", err)
	}
}

func TestVerifyToken_Garbage(t *testing.T) {
	svc := newTestService(t, nil, nil)

	_, err := svc.VerifyToken("not-a-jwt")
	assertAuthCode(t, err, CodeUnauthorized)
}

func TestSendInactivityReminders(t *testing.T) {
	mailer := &captureMailer{}
	svc := newTestService(t, newTestCache(t), mailer)

	for _, name := range []string{"Idle", "Active", "Fresh"} {
		if _, err := svc.Register(context.Background(), name, strings.ToLower(name)+"@example.com", "Password1"); err != nil {
			t.Fatalf("register failed: %v", err)
		}
	}

	// Idle은 20일 전, Active는 2일 전 로그인. Fresh는 로그인 기록이 없다.
	idleLogin := time.Now().UTC().AddDate(0, 0, -20)
	activeLogin := time.Now().UTC().AddDate(0, 0, -2)
	if err := svc.db.Model(&userModel{}).Where("email = ?", "idle@example.com").
		Update("last_login", idleLogin).Error; err != nil {
		t.Fatalf("failed to backdate login: %v", err)
	}
	if err := svc.db.Model(&userModel{}).Where("email = ?", "active@example.com").
		Update("last_login", activeLogin).Error; err != nil {
		t.Fatalf("failed to backdate login: %v", err)
	}

	sent, err := svc.SendInactivityReminders(context.Background(), 14*24*time.Hour, 10)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if sent != 1 {
		t.Fatalf("sent = %d, want 1", sent)
	}
	if len(mailer.remindedTo) != 1 || mailer.remindedTo[0] != "idle@example.com" {
		t.Fatalf("remindedTo = %v, want only idle@example.com", mailer.remindedTo)
	}
	if mailer.reminderDay != 20 {
		t.Fatalf("daysSinceLogin = %d, want 20", mailer.reminderDay)
	}

	// 캐시 마커 덕분에 같은 창 안에서는 재발송하지 않는다.
	sent, err = svc.SendInactivityReminders(context.Background(), 14*24*time.Hour, 10)
	if err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}
	if sent != 0 {
		t.Fatalf("second sweep sent = %d, want 0", sent)
	}
}

func TestSendInactivityReminders_NoMailerIsNoop(t *testing.T) {
	svc := newTestService(t, nil, nil)

	sent, err := svc.SendInactivityReminders(context.Background(), time.Hour, 10)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if sent != 0 {
		t.Fatalf("sent = %d, want 0", sent)
	}
}

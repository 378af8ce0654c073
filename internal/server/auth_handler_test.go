package server

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	json "github.com/goccy/go-json"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	authsvc "github.com/kapu/sql-detective-go/internal/service/auth"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func newTestGormDB(t *testing.T) *gorm.DB {
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

func newTestAuthService(t *testing.T, mailer authsvc.Mailer) *authsvc.Service {
	t.Helper()

	db := newTestGormDB(t)
	cfg := authsvc.DefaultConfig("test-secret", "http://localhost:3000")
	cfg.RegisterCost = bcrypt.MinCost
	cfg.ResetCost = bcrypt.MinCost

	svc, err := authsvc.NewService(context.Background(), db, nil, mailer, newTestLogger(), cfg)
	if err != nil {
		t.Fatalf("failed to create auth service: %v", err)
	}
	return svc
}

// 항상 발송에 실패하는 메일러 (가입 응답 강등 경로 테스트용)
type failingMailer struct{}

func (failingMailer) SendWelcome(context.Context, string, string) error {
	return fmt.Errorf("smtp down")
}

func (failingMailer) SendPasswordReset(context.Context, string, string, string) error {
	return fmt.Errorf("smtp down")
}

func (failingMailer) SendInactivityReminder(context.Context, string, string, int) error {
	return fmt.Errorf("smtp down")
}

func newTestRouter(t *testing.T) (*gin.Engine, *authsvc.Service) {
	t.Helper()
	return newTestRouterWithMailer(t, nil)
}

func newTestRouterWithMailer(t *testing.T, mailer authsvc.Mailer) (*gin.Engine, *authsvc.Service) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	auth := newTestAuthService(t, mailer)
	handler := NewAuthHandler(auth, newTestLogger())
	authed := RequireAuth(auth)

	router := gin.New()
	router.POST("/auth/register", handler.Register)
	router.POST("/auth/login", handler.Login)
	router.GET("/auth/user", authed, handler.GetUser)
	router.PUT("/auth/update-profile", authed, handler.UpdateProfile)
	return router, auth
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestRegisterEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/auth/register", "", gin.H{
		"name": "Detective", "email": "user@example.com", "password": "Password1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	if decodeBody(t, rec)["message"] != "User registered successfully" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}

	// 같은 이메일 재등록은 409
	rec = doJSON(t, router, http.MethodPost, "/auth/register", "", gin.H{
		"name": "Other", "email": "user@example.com", "password": "Password1",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

// 환영 메일 발송 실패 시 가입은 성공하되 201 메시지가 강등되어야 한다.
func TestRegisterEndpoint_WelcomeEmailFailureDegradesMessage(t *testing.T) {
	router, _ := newTestRouterWithMailer(t, failingMailer{})

	rec := doJSON(t, router, http.MethodPost, "/auth/register", "", gin.H{
		"name": "Detective", "email": "user@example.com", "password": "Password1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	if decodeBody(t, rec)["message"] != "User registered successfully, but failed to send welcome email" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestRegisterEndpoint_MissingFields(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/auth/register", "", gin.H{"email": "user@example.com"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if decodeBody(t, rec)["message"] != "All fields are required" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestLoginEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	doJSON(t, router, http.MethodPost, "/auth/register", "", gin.H{
		"name": "Detective", "email": "user@example.com", "password": "Password1",
	})

	rec := doJSON(t, router, http.MethodPost, "/auth/login", "", gin.H{
		"email": "user@example.com", "password": "Password1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatalf("expected token in response: %s", rec.Body.String())
	}
	user, _ := body["user"].(map[string]any)
	if user["email"] != "user@example.com" {
		t.Fatalf("unexpected user payload: %v", body["user"])
	}

	// 발급된 토큰으로 보호된 엔드포인트 접근
	rec = doJSON(t, router, http.MethodGet, "/auth/user", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestLoginEndpoint_BadCredentials(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/auth/login", "", gin.H{
		"email": "nobody@example.com", "password": "whatever",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if decodeBody(t, rec)["message"] != "Invalid email or password" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestProtectedEndpoint_NoToken(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, token := range []string{"", "garbage-token"} {
		rec := doJSON(t, router, http.MethodGet, "/auth/user", token, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for token %q, got %d", token, rec.Code)
		}
		if decodeBody(t, rec)["message"] != "Unauthorized. Please log in." {
			t.Fatalf("unexpected body: %s", rec.Body.String())
		}
	}
}

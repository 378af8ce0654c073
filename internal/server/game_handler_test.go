package server

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	gamesvc "github.com/kapu/sql-detective-go/internal/service/game"
	playgroundsvc "github.com/kapu/sql-detective-go/internal/service/playground"
)

// 게임 라우트가 붙은 테스트 라우터, 로그인 토큰, 시드용 DB 핸들을 준비한다.
func newGameTestRouter(t *testing.T) (*gin.Engine, string, *gorm.DB) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	auth := newTestAuthService(t, nil)

	if _, err := auth.Register(context.Background(), "Detective", "user@example.com", "Password1"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	token, _, err := auth.Login(context.Background(), "user@example.com", "Password1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	// 같은 공유 인메모리 DSN이라 users 테이블을 게임 서비스도 본다.
	gameDB := newTestGormDB(t)
	game, err := gamesvc.NewService(context.Background(), gameDB, newTestLogger())
	if err != nil {
		t.Fatalf("failed to create game service: %v", err)
	}

	sqlDB, err := gameDB.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	playground, err := playgroundsvc.NewService(sqlDB, newTestLogger())
	if err != nil {
		t.Fatalf("failed to create playground service: %v", err)
	}

	handler := NewGameHandler(game, playground, newTestLogger())
	authed := RequireAuth(auth)

	router := gin.New()
	router.GET("/api/level1/all-cases", authed, handler.AllCases(1))
	router.POST("/api/check-answer", authed, handler.CheckAnswer(1))
	router.POST("/api/execute-query", authed, handler.ExecuteQuery)
	return router, token, gameDB
}

func seedLevel1Case(t *testing.T, db *gorm.DB, caseID uint, personIDs ...int) {
	t.Helper()

	c := gamesvc.Case{CaseID: caseID, Date: "2024-01-15", Type: "murder", Description: "report", City: "SQL City"}
	if err := db.Table("crime_scene_report_level1").Create(&c).Error; err != nil {
		t.Fatalf("failed to seed case: %v", err)
	}
	for _, pid := range personIDs {
		row := map[string]any{"case_id": caseID, "person_id": pid}
		if err := db.Table("check_table1").Create(row).Error; err != nil {
			t.Fatalf("failed to seed check row: %v", err)
		}
	}
}

func TestCheckAnswerEndpoint_RequiresAuth(t *testing.T) {
	router, _, _ := newGameTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/check-answer", "", gin.H{
		"answer": "5", "caseId": "101",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestCheckAnswerEndpoint_MissingFields(t *testing.T) {
	router, token, _ := newGameTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/check-answer", token, gin.H{"answer": "5"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (%s)", rec.Code, rec.Body.String())
	}
	if decodeBody(t, rec)["message"] != "Case ID and Answer are required" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

// 원래 클라이언트는 caseId를 JSON 숫자로 보낸다. 문자열 형태와 똑같이 처리해야 한다.
func TestCheckAnswerEndpoint_NumericCaseID(t *testing.T) {
	router, token, gameDB := newGameTestRouter(t)
	seedLevel1Case(t, gameDB, 101, 5, 9)

	rec := doJSON(t, router, http.MethodPost, "/api/check-answer", token, gin.H{
		"answer": "5,9", "caseId": 101,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["correct"] != true {
		t.Fatalf("expected correct=true, got %s", rec.Body.String())
	}
}

func TestCheckAnswerEndpoint_StringCaseID(t *testing.T) {
	router, token, gameDB := newGameTestRouter(t)
	seedLevel1Case(t, gameDB, 101, 5, 9)

	rec := doJSON(t, router, http.MethodPost, "/api/check-answer", token, gin.H{
		"answer": "5,9", "caseId": "101",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if decodeBody(t, rec)["correct"] != true {
		t.Fatalf("expected correct=true, got %s", rec.Body.String())
	}
}

// 숫자로 해석되지 않는 caseId는 누락된 것과 같이 취급한다.
func TestCheckAnswerEndpoint_GarbageCaseID(t *testing.T) {
	router, token, _ := newGameTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/check-answer", token, gin.H{
		"answer": "5", "caseId": "abc",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (%s)", rec.Code, rec.Body.String())
	}
	if decodeBody(t, rec)["message"] != "Case ID and Answer are required" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestAllCasesEndpoint_EmptyLevel(t *testing.T) {
	router, token, _ := newGameTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/level1/all-cases", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for empty level, got %d", rec.Code)
	}
	if decodeBody(t, rec)["message"] != "No cases available" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestExecuteQueryEndpoint_ForbiddenKeyword(t *testing.T) {
	router, token, _ := newGameTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/execute-query", token, gin.H{
		"query": "drop table users",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d (%s)", rec.Code, rec.Body.String())
	}
	if decodeBody(t, rec)["message"] != "Query contains forbidden keywords" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestExecuteQueryEndpoint_Select(t *testing.T) {
	router, token, _ := newGameTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/execute-query", token, gin.H{
		"query": "SELECT 1 AS one",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

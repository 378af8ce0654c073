package playground

import (
	"context"
	"database/sql"
	stdErrors "errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func newTestDB(t *testing.T) *sql.DB {
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

	stmts := []string{
		`CREATE TABLE person (id INTEGER PRIMARY KEY, name TEXT, city TEXT)`,
		`INSERT INTO person (id, name, city) VALUES (1, 'Alice', 'SQL City'), (2, 'Bob', 'Gotham')`,
	}
	for _, stmt := range stmts {
		if _, err := sqlDB.Exec(stmt); err != nil {
			t.Fatalf("failed to seed: %v", err)
		}
	}
	return sqlDB
}

func assertPlaygroundCode(t *testing.T, err error, want ErrorCode) {
	t.Helper()

	var pe *Error
	if !stdErrors.As(err, &pe) {
		t.Fatalf("expected *playground.Error, got: %T (%v)", err, err)
	}
	if pe.Code != want {
		t.Fatalf("unexpected code: got=%s want=%s", pe.Code, want)
	}
}

func TestValidate_ForbiddenKeywords(t *testing.T) {
	queries := []string{
		"DROP TABLE users",
		"drop table users",
		"DrOp TaBlE users",
		"SELECT 1; DELETE FROM users",
		"update users set total_score = 999",
		"INSERT INTO users VALUES (1)",
		"alter table users add column x int",
		"CREATE TABLE evil (id int)",
		"truncate table users",
	}
	for _, q := range queries {
		err := Validate(q)
		assertPlaygroundCode(t, err, CodeForbidden)
	}
}

func TestValidate_MultiStatement(t *testing.T) {
	err := Validate("SELECT 1; SELECT 2")
	assertPlaygroundCode(t, err, CodeForbidden)

	// 말미의 단일 세미콜론은 허용
	if err := Validate("SELECT 1;"); err != nil {
		t.Fatalf("trailing semicolon should be allowed: %v", err)
	}
}

func TestValidate_EmptyAndOversized(t *testing.T) {
	assertPlaygroundCode(t, Validate("   "), CodeInvalidInput)
	assertPlaygroundCode(t, Validate("SELECT '"+strings.Repeat("x", 3000)+"'"), CodeInvalidInput)
}

func TestExecute_ForbiddenQueryNeverReachesDB(t *testing.T) {
	// 닫힌 DB를 주더라도 금지 키워드 검사는 그 전에 끝나야 한다.
	db := newTestDB(t)
	svc, err := NewService(db, newTestLogger())
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	_ = db.Close()

	_, execErr := svc.Execute(context.Background(), "DROP TABLE person")
	assertPlaygroundCode(t, execErr, CodeForbidden)
}

func TestExecute_Select(t *testing.T) {
	svc, err := NewService(newTestDB(t), newTestLogger())
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	results, err := svc.Execute(context.Background(), "SELECT id, name FROM person WHERE city = 'SQL City'")
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 row, got %d", len(results))
	}
	if results[0]["name"] != "Alice" {
		t.Fatalf("unexpected row: %+v", results[0])
	}
}

func TestExecute_InvalidSQL(t *testing.T) {
	svc, err := NewService(newTestDB(t), newTestLogger())
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	_, execErr := svc.Execute(context.Background(), "SELECT FROM WHERE")
	assertPlaygroundCode(t, execErr, CodeInvalidQuery)
}

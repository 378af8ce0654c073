package playground

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kapu/sql-detective-go/internal/constants"
)

// Service: 사용자가 입력한 SELECT 질의를 제한된 조건에서 실행한다.
// 금지 키워드 검사와 다중 문장 차단은 DB에 닿기 전에 끝난다.
type Service struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewService: 플레이그라운드 서비스를 생성합니다.
func NewService(db *sql.DB, logger *slog.Logger) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, logger: logger}, nil
}

// Validate: 질의 실행 전 정적 검사. DB 왕복 없이 결정된다.
func Validate(query string) error {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return newError(CodeInvalidInput, "Query is required", nil)
	}
	if len(trimmed) > constants.PlaygroundConfig.MaxQueryLength {
		return newError(CodeInvalidInput, "Query is too long", nil)
	}

	lowered := strings.ToLower(trimmed)
	for _, keyword := range constants.PlaygroundConfig.ForbiddenKeywords {
		if strings.Contains(lowered, keyword) {
			return newError(CodeForbidden, "Query contains forbidden keywords", nil)
		}
	}

	// 세미콜론 뒤에 또 다른 문장이 오면 거부한다. 말미의 단일 세미콜론은 허용.
	if rest := strings.TrimSpace(strings.TrimSuffix(trimmed, ";")); strings.Contains(rest, ";") {
		return newError(CodeForbidden, "Multiple statements are not allowed", nil)
	}
	return nil
}

// Execute: 검사를 통과한 질의를 실행하고 행을 컬럼명 → 값 맵으로 반환합니다.
// 결과는 상한 행 수까지만 읽는다.
func (s *Service) Execute(ctx context.Context, query string) ([]map[string]any, error) {
	if err := Validate(query); err != nil {
		return nil, err
	}

	queryCtx, cancel := context.WithTimeout(ctx, constants.PlaygroundConfig.QueryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(queryCtx, query)
	if err != nil {
		return nil, newError(CodeInvalidQuery, "Invalid SQL query: "+err.Error(), err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, newError(CodeInternal, "failed to read result columns", err)
	}

	results := make([]map[string]any, 0)
	values := make([]any, len(columns))
	scanArgs := make([]any, len(columns))
	for i := range values {
		scanArgs[i] = &values[i]
	}

	for rows.Next() {
		if len(results) >= constants.PlaygroundConfig.MaxRows {
			s.logger.Warn("query_result_truncated",
				slog.Int("max_rows", constants.PlaygroundConfig.MaxRows),
			)
			break
		}
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, newError(CodeInternal, "failed to scan result row", err)
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			switch v := values[i].(type) {
			case []byte:
				row[col] = string(v)
			default:
				row[col] = v
			}
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, newError(CodeInvalidQuery, "Invalid SQL query: "+err.Error(), err)
	}

	return results, nil
}

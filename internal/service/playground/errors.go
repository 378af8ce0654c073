package playground

import "fmt"

// ErrorCode: 플레이그라운드 오류 코드
type ErrorCode string

const (
	CodeInvalidInput ErrorCode = "INVALID_INPUT"
	CodeForbidden    ErrorCode = "FORBIDDEN_QUERY"
	CodeInvalidQuery ErrorCode = "INVALID_QUERY"
	CodeInternal     ErrorCode = "INTERNAL_ERROR"
)

// Error: 서비스 레벨 에러
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err == nil {
		return fmt.Sprintf("playground error code=%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("playground error code=%s: %s: %v", e.Code, e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

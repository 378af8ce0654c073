package auth

import (
	"net/mail"

	"github.com/kapu/sql-detective-go/internal/util"
)

func normalizeEmail(email string) string {
	return util.Normalize(email)
}

func validateEmail(email string) bool {
	if email == "" {
		return false
	}
	_, err := mail.ParseAddress(email)
	return err == nil
}

func validatePassword(password string) bool {
	// bcrypt 입력 길이 제한(72 bytes)을 고려해 너무 긴 비밀번호는 거부한다.
	return len(password) >= 6 && len(password) <= 72
}

func validateName(name string) bool {
	name = util.TrimSpace(name)
	if name == "" {
		return false
	}
	return len([]rune(name)) <= 64
}

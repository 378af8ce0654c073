package server

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kapu/sql-detective-go/internal/constants"
	authsvc "github.com/kapu/sql-detective-go/internal/service/auth"
)

// AuthHandler: /auth 엔드포인트를 처리하는 핸들러
type AuthHandler struct {
	auth   *authsvc.Service
	logger *slog.Logger
}

// NewAuthHandler: AuthHandler 인스턴스를 생성합니다.
func NewAuthHandler(auth *authsvc.Service, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

type resetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

type updateProfileRequest struct {
	Name            string `json:"name" binding:"required"`
	Email           string `json:"email" binding:"required"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func writeMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"message": message})
}

// authErrorResponse: 서비스 에러 코드를 HTTP 상태와 공개 메시지로 변환한다.
func authErrorResponse(err error) (int, string) {
	var ae *authsvc.Error
	if !stdErrors.As(err, &ae) {
		return http.StatusInternalServerError, "Server error"
	}

	switch ae.Code {
	case authsvc.CodeInvalidInput:
		return http.StatusBadRequest, ae.Message
	case authsvc.CodeEmailExists:
		return http.StatusConflict, "Email already registered"
	case authsvc.CodeInvalidCredentials:
		return http.StatusUnauthorized, "Invalid email or password"
	case authsvc.CodeAccountLocked:
		return http.StatusForbidden, "Account temporarily locked. Try again later."
	case authsvc.CodeUnauthorized:
		return http.StatusUnauthorized, "Unauthorized. Please log in."
	case authsvc.CodeNotFound:
		return http.StatusNotFound, "User not found"
	default:
		return http.StatusInternalServerError, "Server error"
	}
}

// Register: POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeMessage(c, http.StatusBadRequest, "All fields are required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout.APIRequest)
	defer cancel()

	result, err := h.auth.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		status, message := authErrorResponse(err)
		writeMessage(c, status, message)
		return
	}

	if result.EmailFailed {
		writeMessage(c, http.StatusCreated, "User registered successfully, but failed to send welcome email")
		return
	}
	writeMessage(c, http.StatusCreated, "User registered successfully")
}

// Login: POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeMessage(c, http.StatusBadRequest, "All fields are required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout.APIRequest)
	defer cancel()

	token, user, err := h.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		status, message := authErrorResponse(err)
		writeMessage(c, status, message)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
		},
	})
}

// ForgotPassword: POST /auth/forgot-password
// 계정 존재 여부와 무관하게 동일한 응답을 내린다.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeMessage(c, http.StatusBadRequest, "Email is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout.MailSend)
	defer cancel()

	if err := h.auth.ForgotPassword(ctx, req.Email); err != nil {
		h.logger.Error("forgot_password_failed", slog.Any("error", err))
	}

	writeMessage(c, http.StatusOK, "If an account with that email exists, a password reset link has been sent.")
}

// ResetPassword: POST /auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeMessage(c, http.StatusBadRequest, "Token and new password are required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout.APIRequest)
	defer cancel()

	if err := h.auth.ResetPassword(ctx, req.Token, req.NewPassword); err != nil {
		status, message := authErrorResponse(err)
		writeMessage(c, status, message)
		return
	}

	writeMessage(c, http.StatusOK, "Password has been reset successfully")
}

// GetUser: GET /auth/user (Bearer)
func (h *AuthHandler) GetUser(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		writeMessage(c, http.StatusUnauthorized, "Unauthorized. Please log in.")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout.APIRequest)
	defer cancel()

	user, err := h.auth.GetUser(ctx, userID)
	if err != nil {
		status, message := authErrorResponse(err)
		writeMessage(c, status, message)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
	})
}

// UpdateProfile: PUT /auth/update-profile (Bearer)
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		writeMessage(c, http.StatusUnauthorized, "Unauthorized. Please log in.")
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeMessage(c, http.StatusBadRequest, "Name and email are required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout.APIRequest)
	defer cancel()

	user, err := h.auth.UpdateProfile(ctx, userID, req.Name, req.Email, req.CurrentPassword, req.NewPassword)
	if err != nil {
		status, message := authErrorResponse(err)
		writeMessage(c, status, message)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user": gin.H{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
		},
	})
}

package server

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kapu/sql-detective-go/internal/constants"
	quizsvc "github.com/kapu/sql-detective-go/internal/service/quiz"
)

// QuizHandler: 학습 주제/문항/채점 엔드포인트를 처리하는 핸들러
type QuizHandler struct {
	quiz   *quizsvc.Service
	logger *slog.Logger
}

// NewQuizHandler: QuizHandler 인스턴스를 생성합니다.
func NewQuizHandler(quiz *quizsvc.Service, logger *slog.Logger) *QuizHandler {
	return &QuizHandler{quiz: quiz, logger: logger}
}

type submitAnswersRequest struct {
	Answers map[string]int `json:"answers" binding:"required"`
}

// GetTopics: GET /api/topics
func (h *QuizHandler) GetTopics(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout.APIRequest)
	defer cancel()

	topics, err := h.quiz.GetTopics(ctx)
	if err != nil {
		h.logger.Error("topics_fetch_failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
		return
	}
	c.JSON(http.StatusOK, topics)
}

// GetQuestionsByTopic: GET /api/questions/:topicId
func (h *QuizHandler) GetQuestionsByTopic(c *gin.Context) {
	topicID, err := strconv.ParseUint(c.Param("topicId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid topic ID"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout.APIRequest)
	defer cancel()

	questions, err := h.quiz.GetQuestionsByTopic(ctx, uint(topicID))
	if err != nil {
		h.logger.Error("questions_fetch_failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
		return
	}
	c.JSON(http.StatusOK, questions)
}

// SubmitAnswers: POST /api/submit-answers
// 키가 숫자가 아닌 항목은 무시한다.
func (h *QuizHandler) SubmitAnswers(c *gin.Context) {
	var req submitAnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Answers are required"})
		return
	}

	answers := make(map[uint]int, len(req.Answers))
	for rawID, chosen := range req.Answers {
		id, err := strconv.ParseUint(rawID, 10, 64)
		if err != nil {
			continue
		}
		answers[uint(id)] = chosen
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout.APIRequest)
	defer cancel()

	result, err := h.quiz.SubmitAnswers(ctx, answers)
	if err != nil {
		h.logger.Error("submit_answers_failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
		return
	}
	c.JSON(http.StatusOK, result)
}

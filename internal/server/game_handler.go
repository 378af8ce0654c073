package server

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kapu/sql-detective-go/internal/constants"
	gamesvc "github.com/kapu/sql-detective-go/internal/service/game"
	playgroundsvc "github.com/kapu/sql-detective-go/internal/service/playground"
)

// GameHandler: 레벨별 사건 조회, 정답 판정, SQL 플레이그라운드 엔드포인트를 처리하는 핸들러
type GameHandler struct {
	game       *gamesvc.Service
	playground *playgroundsvc.Service
	logger     *slog.Logger
}

// NewGameHandler: GameHandler 인스턴스를 생성합니다.
func NewGameHandler(game *gamesvc.Service, playground *playgroundsvc.Service, logger *slog.Logger) *GameHandler {
	return &GameHandler{game: game, playground: playground, logger: logger}
}

// caseIDValue: 클라이언트에 따라 caseId가 JSON 숫자 또는 문자열로 온다. 둘 다 받는다.
// 파싱할 수 없는 값은 0으로 두고, 필수값 검증에서 걸러낸다.
type caseIDValue uint

func (v *caseIDValue) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*v = 0
		return nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		*v = 0
		return nil
	}
	*v = caseIDValue(n)
	return nil
}

type checkAnswerRequest struct {
	Answer string      `json:"answer"`
	CaseID caseIDValue `json:"caseId"`
}

type executeQueryRequest struct {
	Query string `json:"query"`
}

func writeGameError(c *gin.Context, err error) {
	var ge *gamesvc.Error
	if !stdErrors.As(err, &ge) {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
		return
	}

	status := http.StatusInternalServerError
	switch ge.Code {
	case gamesvc.CodeInvalidInput:
		status = http.StatusBadRequest
	case gamesvc.CodeInvalidLevel, gamesvc.CodeNotFound:
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"success": false, "message": ge.Message})
}

func writePlaygroundError(c *gin.Context, err error) {
	var pe *playgroundsvc.Error
	if !stdErrors.As(err, &pe) {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
		return
	}

	status := http.StatusInternalServerError
	switch pe.Code {
	case playgroundsvc.CodeInvalidInput, playgroundsvc.CodeInvalidQuery:
		status = http.StatusBadRequest
	case playgroundsvc.CodeForbidden:
		status = http.StatusForbidden
	}
	c.JSON(status, gin.H{"success": false, "message": pe.Message})
}

// CasePage: GET /api/level{N}?page= — 페이지당 사건 1건
func (h *GameHandler) CasePage(level int) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))

		ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout.APIRequest)
		defer cancel()

		result, err := h.game.CaseByPage(ctx, level, page)
		if err != nil {
			writeGameError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":      true,
			"case_id":      result.Case.CaseID,
			"question":     result.Case,
			"pagination":   result.Pagination,
			"instructions": result.Instructions,
		})
	}
}

// AllCases: GET /api/level{N}/all-cases
func (h *GameHandler) AllCases(level int) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout.APIRequest)
		defer cancel()

		cases, pagination, err := h.game.ListCases(ctx, level)
		if err != nil {
			writeGameError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":    true,
			"cases":      cases,
			"pagination": pagination,
		})
	}
}

// CaseByID: GET /api/level{N}/case/:caseId
func (h *GameHandler) CaseByID(level int) gin.HandlerFunc {
	return func(c *gin.Context) {
		caseID, err := strconv.ParseUint(c.Param("caseId"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid Case ID format"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout.APIRequest)
		defer cancel()

		detail, instructions, err := h.game.GetCase(ctx, level, uint(caseID))
		if err != nil {
			writeGameError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":      true,
			"case_id":      detail.CaseID,
			"question":     detail,
			"instructions": instructions,
		})
	}
}

// CheckAnswer: POST /api/check-answer[-N]
func (h *GameHandler) CheckAnswer(level int) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized. Please log in."})
			return
		}

		var req checkAnswerRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Answer == "" || req.CaseID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Case ID and Answer are required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout.APIRequest)
		defer cancel()

		result, err := h.game.CheckAnswer(ctx, userID, level, uint(req.CaseID), req.Answer)
		if err != nil {
			writeGameError(c, err)
			return
		}

		resp := gin.H{
			"success": true,
			"correct": result.Correct,
			"case_id": result.CaseID,
			"message": result.Message,
		}
		if result.NextLevel != "" {
			resp["nextLevel"] = result.NextLevel
		}
		c.JSON(http.StatusOK, resp)
	}
}

// CompletedCases: GET /api/user/completed-cases[-N]
func (h *GameHandler) CompletedCases(level int) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized. Please log in."})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout.APIRequest)
		defer cancel()

		caseIDs, err := h.game.CompletedCases(ctx, userID, level)
		if err != nil {
			writeGameError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":        true,
			"completedCases": caseIDs,
		})
	}
}

// ExecuteQuery: POST /api/execute-query[-N]
// 금지 키워드가 섞인 질의는 DB에 닿기 전에 403으로 거부된다.
func (h *GameHandler) ExecuteQuery(c *gin.Context) {
	var req executeQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Query is required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout.APIRequest)
	defer cancel()

	results, err := h.playground.Execute(ctx, req.Query)
	if err != nil {
		writePlaygroundError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"results": results,
	})
}

package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"campusRecruit/internal/api/middleware"
	"campusRecruit/internal/database"
	"campusRecruit/internal/recruit"
)

// QuestionHandler 暴露候选人提问与负责人答复接口。
type QuestionHandler struct {
	engine *recruit.Engine
	logger *slog.Logger
}

// NewQuestionHandler 构造问答处理器。
func NewQuestionHandler(engine *recruit.Engine, logger *slog.Logger) *QuestionHandler {
	return &QuestionHandler{engine: engine, logger: logger}
}

type postQuestionRequest struct {
	Question string `json:"question" binding:"required,max=4096"`
}

type questionResponse struct {
	ID             uint       `json:"id"`
	QuestionerID   uint       `json:"questioner_id"`
	Question       string     `json:"question"`
	ResponseStatus string     `json:"response_status"`
	Answer         *string    `json:"answer,omitempty"`
	AnsweredAt     *time.Time `json:"answered_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func toQuestionResponse(q *database.Question) questionResponse {
	return questionResponse{
		ID:             q.ID,
		QuestionerID:   q.QuestionerID,
		Question:       q.Question,
		ResponseStatus: q.ResponseStatus,
		Answer:         q.Answer,
		AnsweredAt:     q.AnsweredAt,
		CreatedAt:      q.CreatedAt,
	}
}

// PostQuestion 候选人提交一个新问题。
func (h *QuestionHandler) PostQuestion(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var req postQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	logger := h.loggerFromContext(c).With(slog.Uint64("user_id", uint64(userID)))
	question, err := h.engine.PostQuestion(c.Request.Context(), userID, req.Question)
	if err != nil {
		EngineError(c, logger, err)
		return
	}

	logger.Info("question posted", slog.Uint64("question_id", uint64(question.ID)))
	c.JSON(http.StatusCreated, toQuestionResponse(question))
}

// ListQuestions 按角色返回不同视图：候选人看自己问过的，负责人看待答复队列。
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	offset, limit := pagination(c)
	ctx := c.Request.Context()

	var (
		questions []database.Question
		err       error
	)
	if roleFromContext(c) == database.RoleCandidate {
		questions, err = h.engine.ListAskedQuestions(ctx, userID, offset, limit)
	} else {
		questions, err = h.engine.ListPendingQuestions(ctx, offset, limit)
	}
	if err != nil {
		EngineError(c, h.loggerFromContext(c), err)
		return
	}

	out := make([]questionResponse, 0, len(questions))
	for i := range questions {
		out = append(out, toQuestionResponse(&questions[i]))
	}
	c.JSON(http.StatusOK, gin.H{"questions": out})
}

type answerQuestionRequest struct {
	Answer string `json:"answer" binding:"required,max=4096"`
}

// AnswerQuestion 答复一个问题。重复答复是否允许由配置决定。
func (h *QuestionHandler) AnswerQuestion(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	raw := c.Param("id")
	questionID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || questionID == 0 {
		BadRequest(c, "invalid question id")
		return
	}

	var req answerQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	logger := h.loggerFromContext(c).With(slog.Uint64("question_id", questionID))
	question, err := h.engine.AnswerQuestion(c.Request.Context(), uint(questionID), userID, req.Answer)
	if err != nil {
		EngineError(c, logger, err)
		return
	}

	logger.Info("question answered")
	c.JSON(http.StatusOK, toQuestionResponse(question))
}

func (h *QuestionHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}

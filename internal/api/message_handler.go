package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"campusRecruit/internal/api/middleware"
	"campusRecruit/internal/metrics"
	"campusRecruit/internal/recruit"
	"campusRecruit/internal/tasks"
)

// MessageHandler 暴露群发消息的发送与收件箱接口。
type MessageHandler struct {
	engine *recruit.Engine
	asynq  *asynq.Client
	logger *slog.Logger
}

// NewMessageHandler 构造消息处理器。
func NewMessageHandler(engine *recruit.Engine, asynqClient *asynq.Client, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{engine: engine, asynq: asynqClient, logger: logger}
}

type sendMessageRequest struct {
	Message      string `json:"message" binding:"required,max=8192"`
	JobID        *uint  `json:"job_id"`
	RecipientIDs []uint `json:"recipient_ids" binding:"required,min=1"`
}

// SendMessage 给一组账号群发消息。消息与收件记录在同一事务内落库。
func (h *MessageHandler) SendMessage(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	logger := h.loggerFromContext(c).With(
		slog.Uint64("sender_id", uint64(userID)),
		slog.Int("recipients", len(req.RecipientIDs)),
	)

	messageID, err := h.engine.SendMassMessage(c.Request.Context(), userID, req.JobID, req.Message, req.RecipientIDs)
	if err != nil {
		EngineError(c, logger, err)
		return
	}

	metrics.ObserveMassMessage()
	h.enqueueNotify(c, logger, messageID)

	logger.Info("mass message sent", slog.Uint64("message_id", uint64(messageID)))
	c.JSON(http.StatusCreated, gin.H{"id": messageID})
}

// ListReceived 返回当前账号收到的群发消息，新的在前。
func (h *MessageHandler) ListReceived(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	offset, limit := pagination(c)
	messages, err := h.engine.ListReceivedMessages(c.Request.Context(), userID, offset, limit)
	if err != nil {
		EngineError(c, h.loggerFromContext(c), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (h *MessageHandler) enqueueNotify(c *gin.Context, logger *slog.Logger, messageID uint) {
	task, err := tasks.NewMassMessageNotifyTask(messageID, middleware.GetCorrelationID(c))
	if err != nil {
		logger.Error("build notify task failed", slog.Any("error", err))
		return
	}
	// 投递失败只影响实时推送，消息本身已持久化。
	if _, err := h.asynq.EnqueueContext(c.Request.Context(), task); err != nil {
		logger.Error("enqueue notify task failed", slog.Any("error", err))
	}
}

func (h *MessageHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}

package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"campusRecruit/internal/database"
	"campusRecruit/internal/errcode"
	"campusRecruit/internal/tasks"
)

// NotifyTaskHandler 消费群发消息通知任务，把已落库的消息逐个
// 推到接收者的 Redis 通知频道。消息本体不在这里创建。
type NotifyTaskHandler struct {
	db          *gorm.DB
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewNotifyTaskHandler 创建通知任务处理器。
func NewNotifyTaskHandler(db *gorm.DB, redisClient *redis.Client, logger *slog.Logger) *NotifyTaskHandler {
	return &NotifyTaskHandler{
		db:          db,
		redisClient: redisClient,
		logger:      logger,
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *NotifyTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	log := h.logger

	var payload tasks.MassMessageNotifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Error("unmarshal task payload failed", slog.Any("error", err))
		return err
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Uint64("message_id", uint64(payload.MessageID)),
	)

	var message database.MassMessage
	err := h.db.WithContext(ctx).
		Preload("Receivers").
		First(&message, payload.MessageID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("mass message not found, skipping task")
			return nil
		}
		log.Error("query mass message failed", slog.Any("error", err))
		return err
	}

	notify := NotificationMessage{
		Type:          NotifyTypeMassMessage,
		Status:        "delivered",
		CorrelationID: payload.CorrelationID,
		ErrorCode:     errcode.OK,
		MassMessageID: message.ID,
		JobID:         message.JobID,
		Message:       message.Message,
		SentAt:        message.SentAt,
	}

	delivered := 0
	for _, receiver := range message.Receivers {
		if err := publishNotification(ctx, h.redisClient, receiver.ReceiverID, notify); err != nil {
			// 单个频道失败不阻塞其余接收者，整个任务交给 asynq 重试。
			log.Error("publish notification failed",
				slog.Uint64("receiver_id", uint64(receiver.ReceiverID)),
				slog.Any("error", err),
			)
			continue
		}
		delivered++
	}

	if delivered < len(message.Receivers) {
		log.Warn("notification fan-out incomplete",
			slog.Int("delivered", delivered),
			slog.Int("total", len(message.Receivers)),
		)
		return errors.New("notification fan-out incomplete")
	}

	log.Info("mass message notifications delivered", slog.Int("receivers", delivered))
	return nil
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}

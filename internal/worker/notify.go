package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"campusRecruit/internal/tasks"
)

// 统一的 WebSocket 消息协议（通过 Redis Pub/Sub 转发给前端）。
// 注意：这里的字段名与前端解析保持一致。
const (
	NotifyTypeMassMessage  = "mass_message"
	NotifyTypeRosterExport = "roster_export"
)

type NotificationMessage struct {
	Type          string    `json:"type"`
	Status        string    `json:"status"`
	CorrelationID string    `json:"correlation_id"`
	ErrorCode     int       `json:"error_code"`
	ErrorMessage  string    `json:"error_message,omitempty"`
	MassMessageID uint      `json:"mass_message_id,omitempty"`
	JobID         *uint     `json:"job_id,omitempty"`
	Message       string    `json:"message,omitempty"`
	SentAt        time.Time `json:"sent_at,omitempty"`
	ObjectKey     string    `json:"object_key,omitempty"`
	DownloadURL   string    `json:"download_url,omitempty"`
}

func publishNotification(ctx context.Context, redisClient *redis.Client, userID uint, notify NotificationMessage) error {
	data, err := json.Marshal(notify)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	channel := tasks.NotifyChannel(userID)
	if err := redisClient.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish redis notification to %q: %w", channel, err)
	}
	return nil
}

package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// NotifyChannel 返回某账号实时通知的 Redis 频道名。
// worker 发布、WebSocket 网关订阅，两端必须一致。
func NotifyChannel(userID uint) string {
	return fmt.Sprintf("notify:user:%d", userID)
}

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypeMassMessageNotify = "message:notify"
	TypeRosterExport      = "roster:export"
)

// MassMessageNotifyPayload 描述通知投递任务所需的最小信息。
type MassMessageNotifyPayload struct {
	MessageID     uint   `json:"message_id"`
	CorrelationID string `json:"correlation_id"`
}

// NewMassMessageNotifyTask 构造一个新的群发消息通知任务。
func NewMassMessageNotifyTask(messageID uint, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(MassMessageNotifyPayload{
		MessageID:     messageID,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeMassMessageNotify, payload), nil
}

// RosterExportPayload 描述导出报名名册所需的信息。
type RosterExportPayload struct {
	JobID         uint   `json:"job_id"`
	RequestedBy   uint   `json:"requested_by"`
	CorrelationID string `json:"correlation_id"`
}

// NewRosterExportTask 构造一个岗位报名名册导出任务。
func NewRosterExportTask(jobID, requestedBy uint, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(RosterExportPayload{
		JobID:         jobID,
		RequestedBy:   requestedBy,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeRosterExport, payload), nil
}

package recruit

import (
	"context"
	"time"

	"gorm.io/gorm"

	"campusRecruit/internal/database"
)

// fanOut 在给定事务内写入一条 MassMessage 与每个接收者一条接收记录。
// 任意一条接收记录写入失败都会让整个事务回滚：部分送达是不允许被
// 观测到的状态。
func fanOut(tx *gorm.DB, senderID uint, jobID *uint, body string, recipientIDs []uint) (uint, error) {
	if len(recipientIDs) == 0 {
		return 0, ErrNoRecipients
	}

	message := database.MassMessage{
		Message:  body,
		JobID:    jobID,
		SenderID: senderID,
	}
	if err := tx.Create(&message).Error; err != nil {
		return 0, storeErr(StoreAdd, "mass_message", err)
	}

	receivers := make([]database.MassMessageReceiver, 0, len(recipientIDs))
	for _, id := range recipientIDs {
		receivers = append(receivers, database.MassMessageReceiver{
			MassMessageID: message.ID,
			ReceiverID:    id,
		})
	}
	if err := tx.Create(&receivers).Error; err != nil {
		return 0, storeErr(StoreAdd, "mass_message_receiver", err)
	}

	return message.ID, nil
}

// SendMassMessage 群发一条消息：一条消息记录加每个接收者一条接收
// 记录，整体原子。失败不自动重试，由调用方上抛。
func (e *Engine) SendMassMessage(ctx context.Context, senderID uint, jobID *uint, body string, recipientIDs []uint) (uint, error) {
	var messageID uint
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		id, err := fanOut(tx, senderID, jobID, body, recipientIDs)
		if err != nil {
			return err
		}
		messageID = id
		return nil
	})
	if err != nil {
		return 0, err
	}
	return messageID, nil
}

// ReceivedMessage 是候选人收件箱里的一条群发消息。
type ReceivedMessage struct {
	MassMessageID uint      `json:"mass_message_id"`
	JobID         *uint     `json:"job_id,omitempty"`
	SenderID      uint      `json:"sender_id"`
	Message       string    `json:"message"`
	SentAt        time.Time `json:"sent_at"`
}

// ListReceivedMessages 返回某账号收到的群发消息，按发送时间倒序。
func (e *Engine) ListReceivedMessages(ctx context.Context, userID uint, offset, limit int) ([]ReceivedMessage, error) {
	var messages []ReceivedMessage
	err := e.db.WithContext(ctx).
		Model(&database.MassMessageReceiver{}).
		Select("mass_messages.id AS mass_message_id, mass_messages.job_id, mass_messages.sender_id, mass_messages.message, mass_messages.sent_at").
		Joins("JOIN mass_messages ON mass_messages.id = mass_message_receivers.mass_message_id").
		Where("mass_message_receivers.receiver_id = ?", userID).
		Order("mass_messages.sent_at DESC").
		Offset(offset).
		Limit(limit).
		Scan(&messages).Error
	if err != nil {
		return nil, storeErr(StoreFetch, "mass_message_receiver", err)
	}
	return messages, nil
}

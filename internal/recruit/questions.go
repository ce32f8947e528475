package recruit

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"campusRecruit/internal/database"
)

// 问题的应答状态，pending → answered 只流转一次。
const (
	QuestionPending  = "pending"
	QuestionAnswered = "answered"
)

// PostQuestion 创建一条待回答的问题。
func (e *Engine) PostQuestion(ctx context.Context, questionerID uint, body string) (*database.Question, error) {
	question := database.Question{
		QuestionerID:   questionerID,
		Question:       body,
		ResponseStatus: QuestionPending,
	}
	if err := e.db.WithContext(ctx).Create(&question).Error; err != nil {
		return nil, storeErr(StoreAdd, "question", err)
	}
	return &question, nil
}

// ListAskedQuestions 返回提问者自己的问题，最新的在前。
func (e *Engine) ListAskedQuestions(ctx context.Context, questionerID uint, offset, limit int) ([]database.Question, error) {
	var questions []database.Question
	err := e.db.WithContext(ctx).
		Where("questioner_id = ?", questionerID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&questions).Error
	if err != nil {
		return nil, storeErr(StoreFetch, "question", err)
	}
	return questions, nil
}

// ListPendingQuestions 返回所有待回答的问题，最早提出的在前（招聘官视角）。
func (e *Engine) ListPendingQuestions(ctx context.Context, offset, limit int) ([]database.Question, error) {
	var questions []database.Question
	err := e.db.WithContext(ctx).
		Where("response_status = ?", QuestionPending).
		Order("created_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&questions).Error
	if err != nil {
		return nil, storeErr(StoreFetch, "question", err)
	}
	return questions, nil
}

// AnswerQuestion 把问题置为已回答并记录回答者与回答时间（UTC）。
// 谁有权回答由上游的访问控制决定，这里只维护 "一问至多一答" 的不变量；
// 是否允许覆盖旧答案由引擎配置决定。
func (e *Engine) AnswerQuestion(ctx context.Context, questionID, answererID uint, answer string) (*database.Question, error) {
	var question database.Question

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&question, questionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("question %d: %w", questionID, ErrQuestionNotFound)
			}
			return storeErr(StoreFetch, "question", err)
		}

		if question.ResponseStatus == QuestionAnswered && !e.allowReanswer {
			return fmt.Errorf("question %d: %w", questionID, ErrQuestionAlreadyAnswered)
		}

		answeredAt := e.now().UTC()
		updates := map[string]any{
			"response_status": QuestionAnswered,
			"answerer_id":     answererID,
			"answered_at":     answeredAt,
			"answer":          answer,
		}
		if err := tx.Model(&question).Updates(updates).Error; err != nil {
			return storeErr(StoreUpdate, "question", err)
		}

		question.ResponseStatus = QuestionAnswered
		question.AnswererID = &answererID
		question.AnsweredAt = &answeredAt
		question.Answer = &answer
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &question, nil
}

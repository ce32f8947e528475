package recruit

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"campusRecruit/internal/database"
)

// ApprovalResult 是审批操作返回的最小投影。
type ApprovalResult struct {
	ID             uint   `json:"id"`
	Username       string `json:"username"`
	ApprovalStatus string `json:"approval_status"`
}

// ListPendingAccounts 返回等待审批的账号，最近注册的在前。
func (e *Engine) ListPendingAccounts(ctx context.Context, offset, limit int) ([]database.User, error) {
	var users []database.User
	err := e.db.WithContext(ctx).
		Where("approval_status = ?", database.ApprovalPending).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, storeErr(StoreFetch, "user", err)
	}
	return users, nil
}

// SetApprovalStatus 修改目标账号的审批状态。状态之间可以任意流转
// （审批可以被收回或改判），唯一的硬性限制是管理员不能改自己的状态，
// 以防自我提权或把自己锁死。
func (e *Engine) SetApprovalStatus(ctx context.Context, actingAdminID, targetAccountID uint, newStatus string) (*ApprovalResult, error) {
	switch newStatus {
	case database.ApprovalPending, database.ApprovalApproved, database.ApprovalRefused:
	default:
		return nil, fmt.Errorf("status %q: %w", newStatus, ErrInvalidApprovalStatus)
	}

	if targetAccountID == actingAdminID {
		return nil, fmt.Errorf("admin %d: %w", actingAdminID, ErrSelfStatusSet)
	}

	var user database.User
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, targetAccountID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("account %d: %w", targetAccountID, ErrAccountNotFound)
			}
			return storeErr(StoreFetch, "user", err)
		}

		if err := tx.Model(&user).
			Update("approval_status", newStatus).Error; err != nil {
			return storeErr(StoreUpdate, "user", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &ApprovalResult{
		ID:             user.ID,
		Username:       user.Username,
		ApprovalStatus: newStatus,
	}, nil
}

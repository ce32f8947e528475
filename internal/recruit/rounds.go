package recruit

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"campusRecruit/internal/database"
	"campusRecruit/internal/errcode"
)

// 岗位在一次轮次推进后的去向。completed 没有落库表示：岗位记录已删除。
const (
	JobStatusInProgress = "in_progress"
	JobStatusCompleted  = "completed"
)

// RoundResult 是一次轮次推进的结构化结果。Warning 只用于
// "调用方点名了从未报名的人" 这一种非致命情况。
type RoundResult struct {
	JobID                uint
	SelectedApplicantIDs []uint
	MassMessageID        uint
	Message              string
	JobStatus            string
	Warning              string
	WarningCode          int
}

// AdvanceRound 把岗位推进到下一轮：淘汰未保留的申请人、向晋级者群发
// 通知、递增轮次计数；轮次耗尽或无人晋级时删除岗位本身。
//
// 整个操作在一个事务里执行，并对岗位行加锁："岗位已截止" 的判断与
// 后续全部写入构成单个临界区，报名与推进不会交错。零晋级会删除岗位
// 并在提交后返回 ErrNoQualifiedApplicants：这是被报告的业务结局，
// 副作用（岗位已删除）与错误同时成立，调用方不得重试。
func (e *Engine) AdvanceRound(ctx context.Context, senderID, jobID uint, retainedApplicantIDs []uint, message string) (*RoundResult, error) {
	retained := make(map[uint]bool, len(retainedApplicantIDs))
	for _, id := range retainedApplicantIDs {
		retained[id] = true
	}

	result := RoundResult{JobID: jobID, Message: message, WarningCode: errcode.OK}
	noSurvivors := false

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var job database.Job
		if err := lockForUpdate(tx).First(&job, jobID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("job %d: %w", jobID, ErrJobNotFound)
			}
			return storeErr(StoreFetch, "job", err)
		}

		if IsOpen(job, e.now()) {
			return fmt.Errorf("job %d: %w", jobID, ErrJobStillOpen)
		}

		var applications []database.JobApplication
		if err := tx.Where("job_id = ?", jobID).
			Order("id ASC").
			Find(&applications).Error; err != nil {
			return storeErr(StoreFetch, "job_application", err)
		}

		applied := make(map[uint]bool, len(applications))
		kept := applications[:0:0]
		for _, app := range applications {
			applied[app.ApplicantID] = true
			if retained[app.ApplicantID] {
				kept = append(kept, app)
				continue
			}
			// 未保留者立即淘汰：申请表只保留仍在流程中的人。
			if err := tx.Delete(&database.JobApplication{}, app.ID).Error; err != nil {
				return storeErr(StoreDelete, "job_application", err)
			}
		}

		var missing []uint
		for id := range retained {
			if !applied[id] {
				missing = append(missing, id)
			}
		}
		if len(missing) > 0 {
			sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
			result.Warning = fmt.Sprintf("retained applicant ids %v have no application for job %d", missing, jobID)
			result.WarningCode = errcode.ResourceMissing
		}

		if len(kept) == 0 {
			// 无人晋级：岗位就此终结。删除提交后再向调用方报告。
			if err := tx.Delete(&database.Job{}, jobID).Error; err != nil {
				return storeErr(StoreDelete, "job", err)
			}
			noSurvivors = true
			return nil
		}

		result.SelectedApplicantIDs = make([]uint, 0, len(kept))
		recipients := make([]uint, 0, len(kept))
		for _, app := range kept {
			result.SelectedApplicantIDs = append(result.SelectedApplicantIDs, app.ApplicantID)
			recipients = append(recipients, app.ApplicantID)
		}

		massMessageID, err := fanOut(tx, senderID, &jobID, message, recipients)
		if err != nil {
			return err
		}
		result.MassMessageID = massMessageID

		// current_round 只允许停留在 [0, total) 区间：递增后触顶即完赛，
		// current_round == total 永远不会落库。
		job.CurrentRound++
		if job.CurrentRound >= job.TotalRoundCount {
			// 轮次耗尽：流程自然完成，岗位与剩余申请一并删除。
			if err := tx.Where("job_id = ?", jobID).
				Delete(&database.JobApplication{}).Error; err != nil {
				return storeErr(StoreDelete, "job_application", err)
			}
			if err := tx.Delete(&database.Job{}, jobID).Error; err != nil {
				return storeErr(StoreDelete, "job", err)
			}
			result.JobStatus = JobStatusCompleted
			return nil
		}

		if err := tx.Model(&database.Job{}).
			Where("id = ?", jobID).
			Update("current_round", job.CurrentRound).Error; err != nil {
			return storeErr(StoreUpdate, "job", err)
		}
		result.JobStatus = JobStatusInProgress
		return nil
	})
	if err != nil {
		return nil, err
	}

	if noSurvivors {
		return &result, fmt.Errorf("job %d: %w", jobID, ErrNoQualifiedApplicants)
	}
	return &result, nil
}

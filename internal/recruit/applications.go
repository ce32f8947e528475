package recruit

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"campusRecruit/internal/database"
)

// Apply 为候选人报名一个岗位。检查与写入在同一事务内完成，
// 并发的重复报名要么被存在性检查拦下，要么被唯一键约束拦下，
// 两条路径都翻译成 ErrAlreadyApplied。
func (e *Engine) Apply(ctx context.Context, jobID, candidateID uint) (*database.JobApplication, error) {
	var application database.JobApplication

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var job database.Job
		if err := lockForUpdate(tx).First(&job, jobID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("job %d: %w", jobID, ErrJobNotFound)
			}
			return storeErr(StoreFetch, "job", err)
		}

		var profile database.CandidateProfile
		if err := tx.First(&profile, "user_id = ?", candidateID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("candidate %d: %w", candidateID, ErrCandidateProfileAbsent)
			}
			return storeErr(StoreFetch, "candidate_profile", err)
		}

		if !IsOpen(job, e.now()) {
			return fmt.Errorf("job %d: %w", jobID, ErrJobClosed)
		}
		if !IsEligible(job, profile) {
			return fmt.Errorf("candidate %d, job %d: %w", candidateID, jobID, ErrNotEligible)
		}

		var count int64
		if err := tx.Model(&database.JobApplication{}).
			Where("job_id = ? AND applicant_id = ?", jobID, candidateID).
			Count(&count).Error; err != nil {
			return storeErr(StoreFetch, "job_application", err)
		}
		if count > 0 {
			return fmt.Errorf("candidate %d, job %d: %w", candidateID, jobID, ErrAlreadyApplied)
		}

		application = database.JobApplication{JobID: jobID, ApplicantID: candidateID}
		if err := tx.Create(&application).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("candidate %d, job %d: %w", candidateID, jobID, ErrAlreadyApplied)
			}
			return storeErr(StoreAdd, "job_application", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &application, nil
}

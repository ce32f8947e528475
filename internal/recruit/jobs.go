package recruit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"campusRecruit/internal/database"
)

// CreateJobInput 是发布岗位所需的全部字段，时间一律按 UTC 处理。
type CreateJobInput struct {
	CompanyName         string
	JobDescription      string
	CTC                 float64
	ApplicableDegree    string
	ApplicableBranches  []string
	TotalRoundCount     int
	ApplicationClosedOn time.Time
}

// CreateJob 发布一条岗位。编码专业列表与写入在同一事务内完成。
func (e *Engine) CreateJob(ctx context.Context, input CreateJobInput) (*database.Job, error) {
	if input.TotalRoundCount < 1 {
		return nil, ErrInvalidRoundCount
	}
	encoded, err := EncodeBranches(input.ApplicableBranches)
	if err != nil {
		return nil, err
	}

	job := database.Job{
		CompanyName:         input.CompanyName,
		JobDescription:      input.JobDescription,
		CTC:                 input.CTC,
		ApplicableDegree:    input.ApplicableDegree,
		ApplicableBranches:  encoded,
		TotalRoundCount:     input.TotalRoundCount,
		ApplicationClosedOn: input.ApplicationClosedOn.UTC(),
	}
	if err := e.db.WithContext(ctx).Create(&job).Error; err != nil {
		return nil, storeErr(StoreAdd, "job", err)
	}
	return &job, nil
}

// ListOpenJobsFor 返回候选人可投递且仍开放的岗位，按截止时间升序。
// 专业过滤沿用定界串的 LIKE 匹配：两侧定界符保证了精确成员判断。
func (e *Engine) ListOpenJobsFor(ctx context.Context, candidateID uint, offset, limit int) ([]database.Job, error) {
	var profile database.CandidateProfile
	if err := e.db.WithContext(ctx).First(&profile, "user_id = ?", candidateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("candidate %d: %w", candidateID, ErrCandidateProfileAbsent)
		}
		return nil, storeErr(StoreFetch, "candidate_profile", err)
	}

	branchPattern := "%" + BranchDelimiter + profile.Branch + BranchDelimiter + "%"
	var jobs []database.Job
	err := e.db.WithContext(ctx).
		Where("application_closed_on > ?", e.now().UTC()).
		Where("applicable_degree = ?", profile.Degree).
		Where("applicable_branches LIKE ?", branchPattern).
		Order("application_closed_on ASC").
		Offset(offset).
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		return nil, storeErr(StoreFetch, "job", err)
	}
	return jobs, nil
}

// GetJob 按 ID 取岗位。
func (e *Engine) GetJob(ctx context.Context, jobID uint) (*database.Job, error) {
	var job database.Job
	if err := e.db.WithContext(ctx).First(&job, jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("job %d: %w", jobID, ErrJobNotFound)
		}
		return nil, storeErr(StoreFetch, "job", err)
	}
	return &job, nil
}

// ListApplicants 返回岗位当前的申请人分页，按报名先后排序。
// 申请表里只存 "仍在流程中" 的人，所以这里不需要任何状态过滤。
func (e *Engine) ListApplicants(ctx context.Context, jobID uint, offset, limit int) ([]database.User, error) {
	if _, err := e.GetJob(ctx, jobID); err != nil {
		return nil, err
	}

	var applicants []database.User
	err := e.db.WithContext(ctx).
		Model(&database.User{}).
		Joins("JOIN job_applications ON job_applications.applicant_id = users.id").
		Where("job_applications.job_id = ?", jobID).
		Order("job_applications.id ASC").
		Offset(offset).
		Limit(limit).
		Find(&applicants).Error
	if err != nil {
		return nil, storeErr(StoreFetch, "job_application", err)
	}
	return applicants, nil
}

package recruit

import (
	"errors"
	"fmt"
)

// 领域错误（冲突 / 策略类）。引擎只返回类型化错误，不打日志，
// 由请求层决定 HTTP 状态码与日志记录。
var (
	ErrJobNotFound      = errors.New("job not found")
	ErrAccountNotFound  = errors.New("account not found")
	ErrQuestionNotFound = errors.New("question not found")

	ErrAlreadyApplied = errors.New("candidate has already applied for this job")
	ErrSelfStatusSet  = errors.New("account may not change its own approval status")

	ErrJobClosed               = errors.New("job is closed for applications")
	ErrNotEligible             = errors.New("candidate is not eligible for this job")
	ErrJobStillOpen            = errors.New("job is still accepting applications")
	ErrNoQualifiedApplicants   = errors.New("no qualified applicants")
	ErrQuestionAlreadyAnswered = errors.New("question is already answered")

	ErrInvalidBranch          = errors.New("branch name is empty or contains the list delimiter")
	ErrInvalidRoundCount      = errors.New("total round count must be at least 1")
	ErrInvalidApprovalStatus  = errors.New("approval status must be pending, approved or refused")
	ErrNoRecipients           = errors.New("mass message requires at least one recipient")
	ErrCandidateProfileAbsent = errors.New("candidate profile not found")
)

// StoreOp 区分持久化协作方的失败类别，调用方按类别分支处理。
type StoreOp string

const (
	StoreFetch  StoreOp = "fetch"
	StoreAdd    StoreOp = "add"
	StoreUpdate StoreOp = "update"
	StoreDelete StoreOp = "delete"
)

// StoreError 包装一次持久化失败，保留操作类别与实体名。
type StoreError struct {
	Op     StoreOp
	Entity string
	Err    error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func storeErr(op StoreOp, entity string, err error) error {
	return &StoreError{Op: op, Entity: entity, Err: err}
}

// IsStoreError 判断 err 是否为持久化失败（5xx 级别）。
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

package recruit

import (
	"strings"
	"time"

	"campusRecruit/internal/database"
)

// BranchDelimiter 是岗位可投专业列表的存储定界符。
// 列表以 |branch1|branch2| 的形式落库，因此专业名本身不允许包含该字符。
const BranchDelimiter = "|"

// EncodeBranches 把专业列表编码为定界串。空名或含定界符的名字视为非法。
func EncodeBranches(branches []string) (string, error) {
	if len(branches) == 0 {
		return "", ErrInvalidBranch
	}
	var b strings.Builder
	b.WriteString(BranchDelimiter)
	for _, branch := range branches {
		branch = strings.TrimSpace(branch)
		if branch == "" || strings.Contains(branch, BranchDelimiter) {
			return "", ErrInvalidBranch
		}
		b.WriteString(branch)
		b.WriteString(BranchDelimiter)
	}
	return b.String(), nil
}

// SplitBranches 按约定解码定界串：先去掉首尾定界符再切分。
// 编码与成员判断必须共用同一套约定，否则子串会被误判为成员。
func SplitBranches(encoded string) []string {
	trimmed := strings.Trim(encoded, BranchDelimiter)
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, BranchDelimiter)
}

// IsEligible 判断候选人是否可投递该岗位：学位完全相等，且专业是
// 岗位专业集合的精确成员（不是子串匹配）。纯函数，无副作用。
func IsEligible(job database.Job, profile database.CandidateProfile) bool {
	if job.ApplicableDegree != profile.Degree {
		return false
	}
	for _, branch := range SplitBranches(job.ApplicableBranches) {
		if branch == profile.Branch {
			return true
		}
	}
	return false
}

// IsOpen 判断岗位是否仍接受报名。派生谓词，每次现算，不缓存。
func IsOpen(job database.Job, now time.Time) bool {
	return now.UTC().Before(job.ApplicationClosedOn.UTC())
}

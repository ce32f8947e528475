package database

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// 账号角色与审批状态的取值约定，API 层与业务层共用。
const (
	RoleAdmin            = "admin"
	RoleCandidate        = "candidate"
	RolePlacementOfficer = "placement_officer"

	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRefused  = "refused"
)

// User 表示系统中的账号信息。账号只做软删除，审批状态仅由审批流程修改。
type User struct {
	gorm.Model
	Username           string `gorm:"uniqueIndex;size:64"`
	Email              string `gorm:"uniqueIndex;size:255"`
	PasswordHash       string `gorm:"size:255"`
	FirstName          string `gorm:"size:64"`
	LastName           string `gorm:"size:64"`
	Role               string `gorm:"size:32;index"`
	ApprovalStatus     string `gorm:"size:16;default:pending;index"`
	MustChangePassword bool   `gorm:"default:false"`

	Profile *CandidateProfile `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// CandidateProfile 与候选人账号一一对应，创建后不再修改（本系统范围内）。
// Extras 放简历之外的补充信息（技能、主页链接等），JSONB 存储。
type CandidateProfile struct {
	UserID uint           `gorm:"primaryKey"`
	Degree string         `gorm:"size:128"`
	Branch string         `gorm:"size:128"`
	CGPA   float64
	Extras datatypes.JSON `gorm:"type:jsonb"`
}

// Job 表示一条校招岗位。completed 没有落库状态：岗位记录被删除即视为流程终结，
// 因此这里刻意不用 gorm.Model（不需要软删除，"岗位存在" 等价于 "岗位仍可操作"）。
type Job struct {
	ID                  uint      `gorm:"primaryKey"`
	PostedAt            time.Time `gorm:"autoCreateTime"`
	CompanyName         string    `gorm:"size:128"`
	JobDescription      string    `gorm:"type:text"`
	CTC                 float64
	ApplicableDegree    string `gorm:"size:128"`
	ApplicableBranches  string `gorm:"size:1024"` // |branch1|branch2| 形式的定界串
	TotalRoundCount     int
	CurrentRound        int       `gorm:"default:0"`
	ApplicationClosedOn time.Time `gorm:"index"`
}

// JobApplication 记录一次报名。轮次淘汰或岗位删除时物理删除，
// 因此留在表里的永远是 "仍在流程中" 的申请。
type JobApplication struct {
	ID          uint      `gorm:"primaryKey"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	JobID       uint      `gorm:"uniqueIndex:idx_job_applicant"`
	ApplicantID uint      `gorm:"uniqueIndex:idx_job_applicant"`

	Job       Job  `gorm:"constraint:OnDelete:CASCADE"`
	Applicant User `gorm:"foreignKey:ApplicantID"`
}

// Question 表示候选人/招聘官提出的问题，pending → answered 单向流转，永不删除。
type Question struct {
	gorm.Model
	QuestionerID   uint   `gorm:"index"`
	Question       string `gorm:"type:text"`
	ResponseStatus string `gorm:"size:16;default:pending;index"`
	AnswererID     *uint
	AnsweredAt     *time.Time
	Answer         *string `gorm:"type:text"`

	Questioner User `gorm:"foreignKey:QuestionerID"`
}

// MassMessage 是一次群发消息，与接收记录一并原子创建，创建后不再修改。
type MassMessage struct {
	ID       uint      `gorm:"primaryKey"`
	SentAt   time.Time `gorm:"autoCreateTime"`
	Message  string    `gorm:"type:text"`
	JobID    *uint     `gorm:"index"`
	SenderID uint      `gorm:"index"`

	Receivers []MassMessageReceiver `gorm:"constraint:OnDelete:CASCADE"`
	Sender    User                  `gorm:"foreignKey:SenderID"`
}

// MassMessageReceiver 是群发消息的单个接收记录。
type MassMessageReceiver struct {
	ID            uint `gorm:"primaryKey"`
	MassMessageID uint `gorm:"index"`
	ReceiverID    uint `gorm:"index"`

	Receiver User `gorm:"foreignKey:ReceiverID"`
}

// CVFile 记录候选人上传的简历文件在对象存储中的位置。
type CVFile struct {
	gorm.Model
	UserID      uint   `gorm:"index"`
	ObjectKey   string `gorm:"size:512"`
	FileName    string `gorm:"size:255"`
	ContentType string `gorm:"size:128"`
	Size        int64
}

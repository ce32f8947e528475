package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"campusRecruit/internal/api/middleware"
	"campusRecruit/internal/database"
	"campusRecruit/internal/metrics"
	"campusRecruit/internal/recruit"
	"campusRecruit/internal/tasks"
)

// JobHandler 暴露岗位发布、浏览、申请与轮次推进接口。
type JobHandler struct {
	engine *recruit.Engine
	asynq  *asynq.Client
	logger *slog.Logger
}

// NewJobHandler 构造岗位处理器。
func NewJobHandler(engine *recruit.Engine, asynqClient *asynq.Client, logger *slog.Logger) *JobHandler {
	return &JobHandler{engine: engine, asynq: asynqClient, logger: logger}
}

type createJobRequest struct {
	CompanyName         string    `json:"company_name" binding:"required,max=256"`
	JobDescription      string    `json:"job_description" binding:"required"`
	CTC                 float64   `json:"ctc" binding:"required,gt=0"`
	ApplicableDegree    string    `json:"applicable_degree" binding:"required,max=128"`
	ApplicableBranches  []string  `json:"applicable_branches" binding:"required,min=1"`
	TotalRoundCount     int       `json:"total_round_count" binding:"required,min=1"`
	ApplicationClosedOn time.Time `json:"application_closed_on" binding:"required"`
}

type jobResponse struct {
	ID                  uint      `json:"id"`
	CompanyName         string    `json:"company_name"`
	JobDescription      string    `json:"job_description"`
	CTC                 float64   `json:"ctc"`
	ApplicableDegree    string    `json:"applicable_degree"`
	ApplicableBranches  []string  `json:"applicable_branches"`
	TotalRoundCount     int       `json:"total_round_count"`
	CurrentRound        int       `json:"current_round"`
	ApplicationClosedOn time.Time `json:"application_closed_on"`
	PostedAt            time.Time `json:"posted_at"`
}

func toJobResponse(job *database.Job) jobResponse {
	return jobResponse{
		ID:                  job.ID,
		CompanyName:         job.CompanyName,
		JobDescription:      job.JobDescription,
		CTC:                 job.CTC,
		ApplicableDegree:    job.ApplicableDegree,
		ApplicableBranches:  recruit.SplitBranches(job.ApplicableBranches),
		TotalRoundCount:     job.TotalRoundCount,
		CurrentRound:        job.CurrentRound,
		ApplicationClosedOn: job.ApplicationClosedOn,
		PostedAt:            job.PostedAt,
	}
}

// CreateJob 发布岗位，报名截止时间必须在未来。
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req createJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if !req.ApplicationClosedOn.After(time.Now()) {
		BadRequest(c, "application deadline must be in the future")
		return
	}

	logger := h.loggerFromContext(c)
	job, err := h.engine.CreateJob(c.Request.Context(), recruit.CreateJobInput{
		CompanyName:         req.CompanyName,
		JobDescription:      req.JobDescription,
		CTC:                 req.CTC,
		ApplicableDegree:    req.ApplicableDegree,
		ApplicableBranches:  req.ApplicableBranches,
		TotalRoundCount:     req.TotalRoundCount,
		ApplicationClosedOn: req.ApplicationClosedOn,
	})
	if err != nil {
		EngineError(c, logger, err)
		return
	}

	logger.Info("job created",
		slog.Uint64("job_id", uint64(job.ID)),
		slog.String("company", job.CompanyName),
	)
	c.JSON(http.StatusCreated, toJobResponse(job))
}

// ListJobs 返回当前候选人可投递的开放岗位。
func (h *JobHandler) ListJobs(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	offset, limit := pagination(c)
	jobs, err := h.engine.ListOpenJobsFor(c.Request.Context(), userID, offset, limit)
	if err != nil {
		EngineError(c, h.loggerFromContext(c), err)
		return
	}

	out := make([]jobResponse, 0, len(jobs))
	for i := range jobs {
		out = append(out, toJobResponse(&jobs[i]))
	}
	c.JSON(http.StatusOK, gin.H{"jobs": out})
}

// Apply 提交一份岗位申请。
func (h *JobHandler) Apply(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	jobID, ok := h.jobIDParam(c)
	if !ok {
		return
	}

	logger := h.loggerFromContext(c).With(
		slog.Uint64("job_id", uint64(jobID)),
		slog.Uint64("user_id", uint64(userID)),
	)

	application, err := h.engine.Apply(c.Request.Context(), jobID, userID)
	if err != nil {
		EngineError(c, logger, err)
		return
	}

	metrics.ObserveApplication()
	logger.Info("application submitted", slog.Uint64("application_id", uint64(application.ID)))
	c.JSON(http.StatusCreated, gin.H{
		"id":         application.ID,
		"job_id":     application.JobID,
		"created_at": application.CreatedAt,
	})
}

type applicantResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// ListApplicants 返回岗位当前仍在流程中的申请人。
func (h *JobHandler) ListApplicants(c *gin.Context) {
	jobID, ok := h.jobIDParam(c)
	if !ok {
		return
	}

	offset, limit := pagination(c)
	applicants, err := h.engine.ListApplicants(c.Request.Context(), jobID, offset, limit)
	if err != nil {
		EngineError(c, h.loggerFromContext(c), err)
		return
	}

	out := make([]applicantResponse, 0, len(applicants))
	for _, user := range applicants {
		out = append(out, applicantResponse{ID: user.ID, Username: user.Username, Email: user.Email})
	}
	c.JSON(http.StatusOK, gin.H{"applicants": out})
}

type advanceRoundRequest struct {
	SelectedApplicantIDs []uint `json:"selected_applicant_ids"`
	Message              string `json:"message" binding:"required"`
}

// AdvanceRound 推进岗位轮次：淘汰落选者并通知晋级者。
// 无人合格时岗位已被删除，响应用 409 携带这一事实。
func (h *JobHandler) AdvanceRound(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	jobID, ok := h.jobIDParam(c)
	if !ok {
		return
	}

	var req advanceRoundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	logger := h.loggerFromContext(c).With(slog.Uint64("job_id", uint64(jobID)))

	result, err := h.engine.AdvanceRound(c.Request.Context(), userID, jobID, req.SelectedApplicantIDs, req.Message)
	if err != nil {
		if errors.Is(err, recruit.ErrNoQualifiedApplicants) {
			metrics.ObserveRoundAdvanced("no_qualified_applicants")
			logger.Info("round advance removed job: no qualified applicants")
			c.JSON(http.StatusConflict, gin.H{
				"error":       err.Error(),
				"job_deleted": true,
			})
			return
		}
		EngineError(c, logger, err)
		return
	}

	metrics.ObserveRoundAdvanced(result.JobStatus)
	h.enqueueNotify(c, logger, result.MassMessageID)

	logger.Info("round advanced",
		slog.String("job_status", result.JobStatus),
		slog.Int("selected", len(result.SelectedApplicantIDs)),
	)

	body := gin.H{
		"job_id":                 result.JobID,
		"selected_applicant_ids": result.SelectedApplicantIDs,
		"mass_message_id":        result.MassMessageID,
		"message":                result.Message,
		"job_status":             result.JobStatus,
	}
	if result.Warning != "" {
		body["warning"] = result.Warning
		body["warning_code"] = result.WarningCode
	}
	c.JSON(http.StatusOK, body)
}

// ExportRoster 异步生成岗位报名名册 PDF，完成后经通知通道送达。
func (h *JobHandler) ExportRoster(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	jobID, ok := h.jobIDParam(c)
	if !ok {
		return
	}

	logger := h.loggerFromContext(c).With(slog.Uint64("job_id", uint64(jobID)))

	if _, err := h.engine.GetJob(c.Request.Context(), jobID); err != nil {
		EngineError(c, logger, err)
		return
	}

	task, err := tasks.NewRosterExportTask(jobID, userID, middleware.GetCorrelationID(c))
	if err != nil {
		logger.Error("build roster export task failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	info, err := h.asynq.EnqueueContext(c.Request.Context(), task)
	if err != nil {
		logger.Error("enqueue roster export failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	logger.Info("roster export queued", slog.String("task_id", info.ID))
	c.JSON(http.StatusAccepted, gin.H{
		"message": "roster export request accepted",
		"task_id": info.ID,
	})
}

func (h *JobHandler) enqueueNotify(c *gin.Context, logger *slog.Logger, messageID uint) {
	if messageID == 0 {
		return
	}
	task, err := tasks.NewMassMessageNotifyTask(messageID, middleware.GetCorrelationID(c))
	if err != nil {
		logger.Error("build notify task failed", slog.Any("error", err))
		return
	}
	// 通知投递失败不影响已提交的轮次推进结果。
	if _, err := h.asynq.EnqueueContext(c.Request.Context(), task); err != nil {
		logger.Error("enqueue notify task failed", slog.Any("error", err))
	}
}

func (h *JobHandler) jobIDParam(c *gin.Context) (uint, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		BadRequest(c, "invalid job id")
		return 0, false
	}
	return uint(id), true
}

func (h *JobHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}

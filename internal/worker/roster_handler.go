package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"campusRecruit/internal/database"
	"campusRecruit/internal/errcode"
	"campusRecruit/internal/pdf"
	"campusRecruit/internal/storage"
	"campusRecruit/internal/tasks"
)

const rosterDownloadTTL = 24 * time.Hour

var rosterTemplate = template.Must(template.New("roster").Parse(RosterTemplateString))

// RosterTaskHandler 消费名册导出任务：渲染当前申请人列表为 PDF，
// 上传对象存储后通知发起导出的负责人。
type RosterTaskHandler struct {
	db          *gorm.DB
	storage     *storage.Client
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewRosterTaskHandler 创建名册导出任务处理器。
func NewRosterTaskHandler(db *gorm.DB, storageClient *storage.Client, redisClient *redis.Client, logger *slog.Logger) *RosterTaskHandler {
	return &RosterTaskHandler{
		db:          db,
		storage:     storageClient,
		redisClient: redisClient,
		logger:      logger,
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *RosterTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	log := h.logger

	var payload tasks.RosterExportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Error("unmarshal task payload failed", slog.Any("error", err))
		return err
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Uint64("job_id", uint64(payload.JobID)),
		slog.Uint64("requested_by", uint64(payload.RequestedBy)),
	)

	defer func() {
		if retErr == nil {
			return
		}
		if !isFinalAsynqAttempt(ctx) {
			return
		}
		notify := NotificationMessage{
			Type:          NotifyTypeRosterExport,
			Status:        "error",
			CorrelationID: payload.CorrelationID,
			ErrorCode:     errcode.SystemError,
			ErrorMessage:  retErr.Error(),
			JobID:         &payload.JobID,
		}
		if err := publishNotification(ctx, h.redisClient, payload.RequestedBy, notify); err != nil {
			log.Error("publish roster error notification failed", slog.Any("error", err))
		}
	}()

	var job database.Job
	if err := h.db.WithContext(ctx).First(&job, payload.JobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 岗位可能在排队期间被推进到结束并删除。
			log.Warn("job no longer exists, skipping roster export")
			notify := NotificationMessage{
				Type:          NotifyTypeRosterExport,
				Status:        "error",
				CorrelationID: payload.CorrelationID,
				ErrorCode:     errcode.ResourceMissing,
				ErrorMessage:  "job no longer exists",
				JobID:         &payload.JobID,
			}
			if err := publishNotification(ctx, h.redisClient, payload.RequestedBy, notify); err != nil {
				log.Error("publish roster missing notification failed", slog.Any("error", err))
			}
			return nil
		}
		log.Error("query job failed", slog.Any("error", err))
		return err
	}

	applicants, err := h.loadApplicants(ctx, job.ID)
	if err != nil {
		log.Error("load applicants failed", slog.Any("error", err))
		return err
	}

	html, err := h.renderRoster(&job, applicants)
	if err != nil {
		log.Error("render roster template failed", slog.Any("error", err))
		return err
	}

	pdfBytes, err := pdf.GeneratePDFFromHTML(html, false)
	if err != nil {
		log.Error("generate roster pdf failed", slog.Any("error", err))
		return err
	}

	objectKey := fmt.Sprintf("rosters/%d/%s.pdf", job.ID, uuid.NewString())
	reader := bytes.NewReader(pdfBytes)
	if _, err := h.storage.UploadFile(ctx, objectKey, reader, int64(len(pdfBytes)), "application/pdf"); err != nil {
		log.Error("upload roster pdf failed", slog.Any("error", err))
		return err
	}

	downloadURL, err := h.storage.GeneratePresignedURL(ctx, objectKey, rosterDownloadTTL)
	if err != nil {
		log.Error("generate roster presigned url failed", slog.Any("error", err))
		return err
	}

	notify := NotificationMessage{
		Type:          NotifyTypeRosterExport,
		Status:        "completed",
		CorrelationID: payload.CorrelationID,
		ErrorCode:     errcode.OK,
		JobID:         &job.ID,
		ObjectKey:     objectKey,
		DownloadURL:   downloadURL,
	}
	if err := publishNotification(ctx, h.redisClient, payload.RequestedBy, notify); err != nil {
		log.Error("publish roster completion notification failed", slog.Any("error", err))
		return err
	}

	log.Info("roster export completed",
		slog.String("object_key", objectKey),
		slog.Int("applicants", len(applicants)),
	)
	return nil
}

func (h *RosterTaskHandler) loadApplicants(ctx context.Context, jobID uint) ([]database.User, error) {
	var applicants []database.User
	err := h.db.WithContext(ctx).
		Model(&database.User{}).
		Preload("Profile").
		Joins("JOIN job_applications ON job_applications.applicant_id = users.id").
		Where("job_applications.job_id = ?", jobID).
		Order("job_applications.id ASC").
		Find(&applicants).Error
	if err != nil {
		return nil, fmt.Errorf("query applicants: %w", err)
	}
	return applicants, nil
}

func (h *RosterTaskHandler) renderRoster(job *database.Job, applicants []database.User) (string, error) {
	data := rosterTemplateData{
		JobID:        job.ID,
		CompanyName:  job.CompanyName,
		Degree:       job.ApplicableDegree,
		CurrentRound: job.CurrentRound,
		TotalRounds:  job.TotalRoundCount,
		GeneratedAt:  time.Now().UTC(),
	}
	for i, user := range applicants {
		row := rosterApplicant{
			Seq:      i + 1,
			Username: user.Username,
			Email:    user.Email,
		}
		if user.Profile != nil {
			row.Branch = user.Profile.Branch
			row.CGPA = user.Profile.CGPA
		}
		data.Applicants = append(data.Applicants, row)
	}

	var buf bytes.Buffer
	if err := rosterTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute roster template: %w", err)
	}
	return buf.String(), nil
}

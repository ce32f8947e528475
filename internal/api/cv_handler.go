package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/dutchcoders/go-clamd"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"campusRecruit/internal/api/middleware"
	"campusRecruit/internal/database"
	"campusRecruit/internal/storage"
)

const maxCVSizeBytes = 10 << 20

// CVHandler 负责候选人简历文件的上传与访问。
type CVHandler struct {
	db        *gorm.DB
	storage   *storage.Client
	logger    *slog.Logger
	clamdAddr string
}

// NewCVHandler 构造简历文件处理器。
func NewCVHandler(db *gorm.DB, storageClient *storage.Client, logger *slog.Logger, clamdAddr string) *CVHandler {
	return &CVHandler{
		db:        db,
		storage:   storageClient,
		logger:    logger,
		clamdAddr: clamdAddr,
	}
}

// Upload 接收 PDF 简历，扫描病毒后写入对象存储。
// 每个候选人只保留最新一份，旧文件在替换时删除。
func (h *CVHandler) Upload(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	logger := h.loggerFromContext(c).With(slog.Uint64("user_id", uint64(userID)))

	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "missing file")
		return
	}
	if file.Size > maxCVSizeBytes {
		BadRequest(c, "file too large")
		return
	}
	if !strings.EqualFold(filepath.Ext(file.Filename), ".pdf") {
		BadRequest(c, "only pdf files are accepted")
		return
	}

	clamdClient := clamd.NewClamd(h.clamdAddr)

	fileReader, err := file.Open()
	if err != nil {
		Internal(c, "failed to open file")
		return
	}

	abortChan := make(chan bool)
	scanChan, err := clamdClient.ScanStream(fileReader, abortChan)
	fileReader.Close()
	if err != nil {
		logger.Error("scan file", slog.Any("error", err))
		Internal(c, "failed to scan file")
		return
	}
	defer close(abortChan)

	for result := range scanChan {
		if result.Status != clamd.RES_OK {
			logger.Info("malicious upload rejected", slog.String("file", file.Filename))
			BadRequest(c, "malicious file detected")
			return
		}
	}

	fileReader, err = file.Open()
	if err != nil {
		Internal(c, "failed to reopen file")
		return
	}
	defer fileReader.Close()

	ctx := c.Request.Context()
	objectKey := fmt.Sprintf("cv/%d/%s.pdf", userID, uuid.NewString())
	if _, err := h.storage.UploadFile(ctx, objectKey, fileReader, file.Size, "application/pdf"); err != nil {
		logger.Error("upload file", slog.Any("error", err))
		Internal(c, "failed to upload file")
		return
	}

	var previous database.CVFile
	err = h.db.WithContext(ctx).Where("user_id = ?", userID).First(&previous).Error
	switch {
	case err == nil:
		oldKey := previous.ObjectKey
		updates := map[string]any{
			"object_key":   objectKey,
			"file_name":    file.Filename,
			"content_type": "application/pdf",
			"size":         file.Size,
		}
		if err := h.db.WithContext(ctx).Model(&previous).Updates(updates).Error; err != nil {
			logger.Error("update cv record", slog.Any("error", err))
			Internal(c, "internal error")
			return
		}
		if err := h.storage.DeleteObject(ctx, oldKey); err != nil {
			logger.Error("delete previous cv object", slog.String("object_key", oldKey), slog.Any("error", err))
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		record := database.CVFile{
			UserID:      userID,
			ObjectKey:   objectKey,
			FileName:    file.Filename,
			ContentType: "application/pdf",
			Size:        file.Size,
		}
		if err := h.db.WithContext(ctx).Create(&record).Error; err != nil {
			logger.Error("create cv record", slog.Any("error", err))
			Internal(c, "internal error")
			return
		}
	default:
		logger.Error("lookup cv record", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	logger.Info("cv uploaded", slog.String("object_key", objectKey))
	c.JSON(http.StatusCreated, gin.H{"object_key": objectKey})
}

// GetLink 返回当前候选人简历的临时预签名下载链接。
func (h *CVHandler) GetLink(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()
	var record database.CVFile
	if err := h.db.WithContext(ctx).Where("user_id = ?", userID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "no cv uploaded")
			return
		}
		h.loggerFromContext(c).Error("lookup cv record", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	signedURL, err := h.storage.GeneratePresignedURL(ctx, record.ObjectKey, 15*time.Minute)
	if err != nil {
		h.loggerFromContext(c).Error("generate presigned url", slog.Any("error", err))
		Internal(c, "failed to generate url")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":       signedURL,
		"file_name": record.FileName,
		"size":      record.Size,
	})
}

func (h *CVHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}

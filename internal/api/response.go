package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"campusRecruit/internal/recruit"
)

func Error(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

func AbortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

func Unauthorized(c *gin.Context)           { Error(c, http.StatusUnauthorized, "unauthorized") }
func BadRequest(c *gin.Context, msg string) { Error(c, http.StatusBadRequest, msg) }
func Forbidden(c *gin.Context, msg string)  { Error(c, http.StatusForbidden, msg) }
func NotFound(c *gin.Context, msg string)   { Error(c, http.StatusNotFound, msg) }
func Conflict(c *gin.Context, msg string)   { Error(c, http.StatusConflict, msg) }
func Internal(c *gin.Context, msg string)   { Error(c, http.StatusInternalServerError, msg) }

// EngineError 将招聘引擎的业务错误翻译成 HTTP 状态码。
// 存储层错误一律 500，细节只进日志不出响应。
func EngineError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, recruit.ErrJobNotFound),
		errors.Is(err, recruit.ErrAccountNotFound),
		errors.Is(err, recruit.ErrQuestionNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, recruit.ErrAlreadyApplied),
		errors.Is(err, recruit.ErrQuestionAlreadyAnswered):
		Conflict(c, err.Error())
	case errors.Is(err, recruit.ErrSelfStatusSet),
		errors.Is(err, recruit.ErrJobClosed),
		errors.Is(err, recruit.ErrNotEligible),
		errors.Is(err, recruit.ErrJobStillOpen):
		Forbidden(c, err.Error())
	case errors.Is(err, recruit.ErrInvalidBranch),
		errors.Is(err, recruit.ErrInvalidRoundCount),
		errors.Is(err, recruit.ErrInvalidApprovalStatus),
		errors.Is(err, recruit.ErrNoRecipients),
		errors.Is(err, recruit.ErrCandidateProfileAbsent):
		BadRequest(c, err.Error())
	default:
		logger.Error("engine operation failed", slog.Any("error", err))
		Internal(c, "internal error")
	}
}

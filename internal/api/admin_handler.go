package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"campusRecruit/internal/api/middleware"
	"campusRecruit/internal/recruit"
)

// AdminHandler 暴露账号审批接口，仅管理员可用。
type AdminHandler struct {
	engine *recruit.Engine
	logger *slog.Logger
}

// NewAdminHandler 构造审批处理器。
func NewAdminHandler(engine *recruit.Engine, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{engine: engine, logger: logger}
}

type pendingAccountResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// ListPendingAccounts 返回等待审批的账号。
func (h *AdminHandler) ListPendingAccounts(c *gin.Context) {
	offset, limit := pagination(c)
	accounts, err := h.engine.ListPendingAccounts(c.Request.Context(), offset, limit)
	if err != nil {
		EngineError(c, h.loggerFromContext(c), err)
		return
	}

	out := make([]pendingAccountResponse, 0, len(accounts))
	for _, account := range accounts {
		out = append(out, pendingAccountResponse{
			ID:       account.ID,
			Username: account.Username,
			Email:    account.Email,
			Role:     account.Role,
		})
	}
	c.JSON(http.StatusOK, gin.H{"accounts": out})
}

type setApprovalRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetApprovalStatus 设置账号审批状态。任意已知状态之间都可以切换。
func (h *AdminHandler) SetApprovalStatus(c *gin.Context) {
	adminID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	raw := c.Param("id")
	targetID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || targetID == 0 {
		BadRequest(c, "invalid account id")
		return
	}

	var req setApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	logger := h.loggerFromContext(c).With(
		slog.Uint64("target_id", targetID),
		slog.String("status", req.Status),
	)

	result, err := h.engine.SetApprovalStatus(c.Request.Context(), adminID, uint(targetID), req.Status)
	if err != nil {
		EngineError(c, logger, err)
		return
	}

	logger.Info("approval status updated")
	c.JSON(http.StatusOK, result)
}

func (h *AdminHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}

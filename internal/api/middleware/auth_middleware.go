package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"campusRecruit/internal/auth"
	"campusRecruit/internal/database"
)

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

// AuthMiddleware 校验访问令牌并将账号身份注入上下文。
func AuthMiddleware(authService *auth.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c)
			return
		}

		parts := strings.Fields(header)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortUnauthorized(c)
			return
		}

		rawToken := parts[1]
		if strings.TrimSpace(rawToken) == "" {
			abortUnauthorized(c)
			return
		}

		claims, err := authService.ValidateToken(rawToken)
		if err != nil || claims.TokenType != "access" {
			abortUnauthorized(c)
			return
		}

		c.Set("userID", claims.UserID)
		c.Set("role", claims.Role)
		c.Set("approvalStatus", claims.ApprovalStatus)
		c.Set("mustChangePassword", claims.MustChangePassword)
		c.Next()
	}
}

// RequireRole 只放行指定角色，需在 AuthMiddleware 之后挂载。
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(c *gin.Context) {
		role, ok := c.Get("role")
		if !ok {
			abortUnauthorized(c)
			return
		}
		name, _ := role.(string)
		if _, ok := allowed[name]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// RequireApproved 阻止未通过审批的账号访问业务接口。
// 审批状态来自 access token 声明，状态变更在令牌过期后生效。
func RequireApproved() gin.HandlerFunc {
	return func(c *gin.Context) {
		value, ok := c.Get("approvalStatus")
		if !ok {
			abortUnauthorized(c)
			return
		}
		status, _ := value.(string)
		if status != database.ApprovalApproved {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account not approved"})
			return
		}
		c.Next()
	}
}

package middlewares

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"bluecrm/attribsync/pkg/ginx"
)

// 上下文键
const (
	TenantIDKey = "tenant_id"
)

// Auth 服务间鉴权中间件
// 校验 Bearer Token 与 X-Tenant-ID 头（会话体系由外部 CRM 负责）
func Auth(serviceToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == "" || token == authHeader || token != serviceToken {
			ginx.Unauthorized(c, "invalid service token")
			c.Abort()
			return
		}

		tenantID := c.GetHeader("X-Tenant-ID")
		if tenantID == "" {
			ginx.BadRequest(c, "X-Tenant-ID header is required")
			c.Abort()
			return
		}

		// 注入租户到请求上下文（gin 与 context 双写，日志与业务共用）
		c.Set(TenantIDKey, tenantID)
		ctx := context.WithValue(c.Request.Context(), TenantIDKey, tenantID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// TenantID 从 gin 上下文取租户 ID
func TenantID(c *gin.Context) string {
	return c.GetString(TenantIDKey)
}

package middlewares

import (
	"github.com/gin-gonic/gin"

	"bluecrm/attribsync/pkg/ginx"
	"bluecrm/attribsync/pkg/logger"
)

// ErrorHandler 统一错误处理中间件
// 捕获 panic 与未处理的 gin 错误，返回统一响应结构
func ErrorHandler(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Errorf(c.Request.Context(), "[HTTP] panic recovered: %v", r)
				ginx.InternalError(c, "internal server error")
				c.Abort()
			}
		}()

		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last()
			log.Errorf(c.Request.Context(), "[HTTP] unhandled error: %v", err)
			ginx.InternalError(c, err.Error())
		}
	}
}

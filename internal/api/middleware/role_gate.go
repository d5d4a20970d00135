package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireRole 限制路由只允许指定角色访问。
// 必须挂在 AuthMiddleware 之后；声明缺失按未认证处理，角色不符返回 403。
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFromContext(c)
		if !ok {
			abortUnauthorized(c, "missing credential")
			return
		}

		if claims.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
			return
		}

		c.Next()
	}
}

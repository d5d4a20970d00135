package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"shahiengineers/internal/auth"
)

const claimsContextKey = "authClaims"

// accessTokenCookieName 是 Authorization 头缺失时的备用取 token 位置。
const accessTokenCookieName = "access_token"

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}

// AuthMiddleware 校验访问令牌并将解码后的声明注入上下文。
// 优先读取 Authorization: Bearer 头，其次读取 access_token Cookie。
func AuthMiddleware(authService *auth.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawToken := extractBearerToken(c)
		if rawToken == "" {
			abortUnauthorized(c, "missing credential")
			return
		}

		claims, err := authService.ValidateToken(rawToken)
		if err != nil {
			abortUnauthorized(c, "invalid or expired credential")
			return
		}

		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

func extractBearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.Fields(header)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return ""
		}
		return strings.TrimSpace(parts[1])
	}

	if token, err := c.Cookie(accessTokenCookieName); err == nil {
		return strings.TrimSpace(token)
	}
	return ""
}

// ClaimsFromContext 返回 AuthMiddleware 注入的令牌声明。
func ClaimsFromContext(c *gin.Context) (*auth.TokenClaims, bool) {
	value, exists := c.Get(claimsContextKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*auth.TokenClaims)
	return claims, ok
}

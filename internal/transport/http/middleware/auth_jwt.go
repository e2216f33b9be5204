package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"campus-events-api/internal/core/auth"
	"campus-events-api/internal/domain"
	resp "campus-events-api/internal/transport/http/response"
)

func AuthJWT(j *auth.JWTer, requireRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "missing token"))
			return
		}
		claims, err := j.Parse(strings.TrimPrefix(ah, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "invalid token"))
			return
		}
		if requireRole != "" && claims.Role != requireRole {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeForbidden, "forbidden"))
			return
		}
		c.Set("claims", claims)
		c.Set("userId", claims.UID)
		c.Set("role", claims.Role)
		c.Next()
	}
}

// Snapshot 从 AuthJWT 写入的 claims 取出显式登录态快照。
// 未登录返回零值（Authenticated() == false）。
func Snapshot(c *gin.Context) domain.AuthSnapshot {
	v, ok := c.Get("claims")
	if !ok {
		return domain.AuthSnapshot{}
	}
	cl, ok := v.(*auth.Claims)
	if !ok {
		return domain.AuthSnapshot{}
	}
	return domain.AuthSnapshot{
		UserID:   cl.UID,
		Email:    cl.Email,
		Role:     cl.Role,
		Verified: cl.Verified,
	}
}

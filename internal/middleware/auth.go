package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/werejoel/tenancy-core/config"
	"github.com/werejoel/tenancy-core/internal/response"
	"github.com/werejoel/tenancy-core/internal/service"
)

// 上下文键
const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextRoles    = "roles"
	ContextClaims   = "user_claims"
)

// Auth JWT 认证中间件
// 解析 Authorization 头的 Bearer 令牌，把用户身份写进请求上下文
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Fail(c, 401, "未提供认证令牌")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Fail(c, 401, "认证令牌格式错误")
			c.Abort()
			return
		}

		claims, err := parseToken(parts[1])
		if err != nil {
			response.Fail(c, 401, "认证令牌无效或已过期")
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUsername, claims.Username)
		c.Set(ContextRoles, claims.Roles)
		c.Set(ContextClaims, claims.Claims)
		c.Next()
	}
}

func parseToken(tokenString string) (*service.TokenClaims, error) {
	secret := "tenancy-core-secret"
	if config.Cfg != nil && config.Cfg.JWT.Secret != "" {
		secret = config.Cfg.JWT.Secret
	}

	token, err := jwt.ParseWithClaims(tokenString, &service.TokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*service.TokenClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/werejoel/tenancy-core/internal/authz"
	"github.com/werejoel/tenancy-core/internal/logger"
	"github.com/werejoel/tenancy-core/internal/response"
	"go.uber.org/zap"
)

// RequirePolicy 策略授权中间件
// 从认证上下文还原主体，按策略名判定，未通过返回 403
func RequirePolicy(policyName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := principalFromContext(c)

		allowed, err := authz.Evaluate(policyName, principal)
		if err != nil {
			logger.Logger.Error("策略判定失败",
				zap.String("policy", policyName), zap.Error(err))
			response.Fail(c, 500, "策略配置错误")
			c.Abort()
			return
		}
		if !allowed {
			response.Fail(c, 403, "没有操作权限")
			c.Abort()
			return
		}
		c.Next()
	}
}

// principalFromContext 从认证中间件写入的上下文还原授权主体
func principalFromContext(c *gin.Context) *authz.Principal {
	var roles []string
	if v, ok := c.Get(ContextRoles); ok {
		if rs, ok := v.([]string); ok {
			roles = rs
		}
	}

	var claims []authz.Claim
	if v, ok := c.Get(ContextClaims); ok {
		if cs, ok := v.([]map[string]string); ok {
			for _, m := range cs {
				claims = append(claims, authz.Claim{Type: m["type"], Value: m["value"]})
			}
		}
	}

	return authz.NewPrincipal(roles, claims)
}

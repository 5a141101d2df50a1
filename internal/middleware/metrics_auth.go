package middleware

import (
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/werejoel/tenancy-core/config"
	"github.com/werejoel/tenancy-core/internal/logger"
	"go.uber.org/zap"
)

// MetricsAuth 指标端点访问控制
// 只放行配置白名单 CIDR 内的来源，未配置时只允许环回地址
func MetricsAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := net.ParseIP(c.ClientIP())
		if clientIP == nil {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}

		if !ipAllowed(clientIP) {
			logger.Logger.Warn("指标端点访问被拒绝",
				zap.String("ip", c.ClientIP()))
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Next()
	}
}

func ipAllowed(ip net.IP) bool {
	var cidrs []string
	if config.Cfg != nil {
		cidrs = config.Cfg.Metrics.AllowCIDRs
	}
	if len(cidrs) == 0 {
		return ip.IsLoopback()
	}

	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			continue
		}
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

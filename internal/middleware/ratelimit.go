package middleware

import (
	"net/http"

	"github.com/AquaMLOps/govgate/internal/config"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitMiddleware 全局令牌桶。治理接口没有租户维度，
// 一个进程级 limiter 足够挡住失控的仪表盘轮询。
func RateLimitMiddleware(cfg *config.Config) gin.HandlerFunc {
	rps := cfg.RateLimit.RPS
	if rps <= 0 {
		rps = 50
	}
	burst := cfg.RateLimit.Burst
	if burst <= 0 {
		burst = 100
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": "1s",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

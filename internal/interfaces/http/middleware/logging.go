package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/repogate-inc/repogate/internal/shared/logger"
)

func Logger(log logger.Interface) gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		args := []any{
			"method", param.Method,
			"path", param.Path,
			"status", param.StatusCode,
			"latency", param.Latency,
			"client_ip", param.ClientIP,
		}

		if param.ErrorMessage != "" {
			args = append(args, "error", param.ErrorMessage)
		}

		switch {
		case param.StatusCode >= 500:
			log.Errorw("request completed", args...)
		case param.StatusCode >= 400:
			log.Warnw("request completed", args...)
		default:
			log.Debugw("request completed", args...)
		}

		return ""
	})
}

package dashboard

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/multi-agent/go-genui/pkg/logger"
)

// 统一响应信封: {success, data} / {success:false, error:{code, message}}。

func success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func fail(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"success": false, "error": gin.H{"code": code, "message": message}})
}

func badRequest(c *gin.Context, code, message string) {
	fail(c, http.StatusBadRequest, code, message)
}

func notFound(c *gin.Context, message string) {
	fail(c, http.StatusNotFound, "not_found", message)
}

func badGateway(c *gin.Context, err error) {
	logger.FromContext(c.Request.Context()).Warn("upstream error", logger.Any(logger.FieldError, err))
	fail(c, http.StatusBadGateway, "upstream_error", err.Error())
}

func unavailable(c *gin.Context, message string) {
	fail(c, http.StatusServiceUnavailable, "unavailable", message)
}

// requestLogger 每个请求一行结构化日志。
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			logger.FieldMethod, c.Request.Method,
			logger.FieldPath, c.FullPath(),
			logger.FieldStatus, c.Writer.Status(),
			logger.FieldLatencyMS, time.Since(start).Milliseconds(),
		)
	}
}

// checkLocalOrigin 浏览器只允许本机来源; 无 Origin 视为非浏览器客户端。
func checkLocalOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(strings.ToLower(origin))
	if err != nil {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	logger.Warn("dashboard: rejected non-local origin", logger.FieldRemote, origin)
	return false
}

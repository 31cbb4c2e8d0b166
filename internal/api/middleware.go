package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	statusWarnThreshold  = 400
	statusErrorThreshold = 500

	authCookieName   = "np_auth"
	authCookieMaxAge = 12 * 60 * 60
)

// ZerologLogger is a Gin middleware that logs requests using zerolog.
func ZerologLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery
		method := c.Request.Method
		clientIP := c.ClientIP()
		ua := c.Request.UserAgent()

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		size := c.Writer.Size()

		evt := log.Info()
		switch {
		case status >= statusErrorThreshold:
			evt = log.Error()
		case status >= statusWarnThreshold:
			evt = log.Warn()
		}

		if raw != "" {
			path = path + "?" + raw
		}

		evt.
			Int("status", status).
			Str("method", method).
			Str("path", path).
			Dur("latency", latency).
			Str("client_ip", clientIP).
			Int("bytes", size).
			Str("user_agent", ua).
			Msg("http request completed")
	}
}

// PasswordGate guards routes with the configured shared password. Clients
// authenticate either with the X-Auth-Key header or the cookie set by the
// login form. An empty password disables the gate.
func PasswordGate(password string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if password == "" {
			c.Next()
			return
		}
		if c.GetHeader("X-Auth-Key") == password {
			c.Next()
			return
		}
		if cookie, err := c.Cookie(authCookieName); err == nil && cookie == password {
			c.Next()
			return
		}
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Redirect(http.StatusFound, "/")
		c.Abort()
	}
}

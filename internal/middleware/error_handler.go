package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"catalogo/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// withRequest tags ev with the request id and route of c.
func withRequest(ev *zerolog.Event, c *gin.Context) *zerolog.Event {
	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}
	return ev.Str("request_id", c.GetString(RequestIDKey)).
		Str("method", c.Request.Method).
		Str("route", route)
}

// ErrorHandler turns errors attached with c.Error into the standard envelope
// when the handler did not write a response itself. Internal details only go
// to the log.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status := apierror.StatusCode(err)
		if status == http.StatusInternalServerError {
			withRequest(log.Error(), c).Err(err).Msg("unhandled error")
		}
		c.AbortWithStatusJSON(status, apierror.Response(err))
	}
}

// Recovery answers a panicking handler with a generic 500 and logs the stack.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			withRequest(log.Error(), c).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")
			if !c.Writer.Written() {
				c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New("Error interno del servidor"))
				return
			}
			c.Abort()
		}()
		c.Next()
	}
}

// Logger writes one line per request. 5xx log at error level, 4xx at warn.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := zerolog.InfoLevel
		switch {
		case status >= http.StatusInternalServerError:
			level = zerolog.ErrorLevel
		case status >= http.StatusBadRequest:
			level = zerolog.WarnLevel
		}
		withRequest(log.WithLevel(level), c).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Str("client_ip", c.ClientIP()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

package middleware

import (
	types "go-checkout/internal/common/type"
	"go-checkout/internal/pkg/helper"
	"go-checkout/internal/pkg/logger"
	"time"

	"github.com/gin-gonic/gin"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const RequestIDKey = "request_id"

// RequestInit tags every request with an id and logs the access line on completion.
func RequestInit() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-Id")
		if requestID == "" {
			if gid, err := gonanoid.New(); err == nil {
				requestID = gid
			}
		}
		c.Set(RequestIDKey, requestID)
		c.Header("X-Request-Id", requestID)

		start := time.Now()
		c.Next()
		logger.HTTP.Printf("%s %s %d %s rid=%s",
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			time.Since(start),
			requestID,
		)
	}
}

// ResponseInit installs the send closure handlers use to write a normalized response.
func ResponseInit() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("send", func(r *types.Response) {
			c.JSON(r.Code, helper.ToAPI(r))
			c.Abort()
		})
		c.Next()
	}
}

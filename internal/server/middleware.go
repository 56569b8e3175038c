package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"auction-house/services/auction/helpers"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
)

const requestIDHeader = "X-Request-ID"

// RequestIDMiddleware tags every request with an id, reusing the caller's when present
func RequestIDMiddleware(c *gin.Context) {
	id := c.GetHeader(requestIDHeader)
	if id == "" {
		id = utils.GenerateID()
	}
	c.Set("request_id", id)
	c.Header(requestIDHeader, id)
	c.Next()
}

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	utils.Info("HTTP Request", map[string]any{
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"status":     c.Writer.Status(),
		"latency":    time.Since(start).String(),
		"request_id": c.GetString("request_id"),
		"user_id":    helpers.RequesterID(c),
	})
}

// IdentifyUser records the X-User-ID header, if any, as the acting user
func IdentifyUser(c *gin.Context) {
	if id := strings.TrimSpace(c.GetHeader(helpers.UserIDHeader)); id != "" {
		c.Set(helpers.UserIDKey, id)
	}
	c.Next()
}

// RequireUser rejects requests that carry no acting user
func RequireUser(c *gin.Context) {
	if helpers.RequesterID(c) == "" {
		utils.AbortWithError(c, http.StatusUnauthorized, errors.New("missing "+helpers.UserIDHeader+" header"), "authentication required")
		return
	}
	c.Next()
}

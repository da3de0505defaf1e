/*
Copyright The Volcano Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package accesslog

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"k8s.io/klog/v2"
)

const (
	// AccessLogContextKey is the key used to store AccessLogContext in gin.Context
	AccessLogContextKey = "access_log_context"

	RequestIDHeader = "x-request-id"
)

// AccessLogMiddleware returns a Gin middleware that tracks request timing and metadata
func AccessLogMiddleware(logger AccessLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.URL.Path {
		case "/healthz", "/readyz", "/metrics":
			c.Next()
			return
		}

		requestID := c.Request.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
			c.Request.Header.Set(RequestIDHeader, requestID)
		}
		c.Header(RequestIDHeader, requestID)

		ctx := NewAccessLogContext(
			requestID,
			c.Request.Method,
			c.Request.URL.Path,
			c.Request.Proto,
		)
		c.Set(AccessLogContextKey, ctx)

		c.Next()

		entry := ctx.ToAccessLogEntry(c.Writer.Status())
		if err := logger.Log(entry); err != nil {
			klog.Errorf("Failed to write access log: %v", err)
		}
	}
}

// GetAccessLogContext retrieves the AccessLogContext from gin.Context
func GetAccessLogContext(c *gin.Context) *AccessLogContext {
	if ctx, exists := c.Get(AccessLogContextKey); exists {
		if accessCtx, ok := ctx.(*AccessLogContext); ok {
			return accessCtx
		}
	}
	return nil
}

// RequestID returns the request ID assigned by the middleware, if any.
func RequestID(c *gin.Context) string {
	if ctx := GetAccessLogContext(c); ctx != nil {
		return ctx.RequestID
	}
	return c.Request.Header.Get(RequestIDHeader)
}

func SetRequest(c *gin.Context, mode, inputLength int) {
	if ctx := GetAccessLogContext(c); ctx != nil {
		ctx.SetRequest(mode, inputLength)
	}
}

func SetResult(c *gin.Context, tokens int, viterbi bool) {
	if ctx := GetAccessLogContext(c); ctx != nil {
		ctx.SetResult(tokens, viterbi)
	}
}

// SetError sets error information in the access log context
func SetError(c *gin.Context, errorType, message string) {
	if ctx := GetAccessLogContext(c); ctx != nil {
		ctx.SetError(errorType, message)
	}
}

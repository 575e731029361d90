package gateway

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Laisky/llm-router/common/ctxkey"
	"github.com/Laisky/llm-router/common/network"
	"github.com/Laisky/llm-router/internal/configmodel"
)

// requestID stamps every request with a correlation id (spec §4.1),
// echoed on the response and available to handlers/logging via
// ctxkey.RequestID.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxkey.RequestID, id)
		c.Writer.Header().Set("X-Request-Id", id)
		c.Next()
	}
}

// bodyLimit enforces spec §4.1's request-body ceiling: rejected early
// via Content-Length when declared oversized, otherwise capped during
// the incremental read via http.MaxBytesReader so an unbounded stream
// can't exhaust memory.
func bodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			writeError(c, http.StatusRequestEntityTooLarge, "invalid_request_error", "request body too large")
			c.Abort()
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// ipAllowlist rejects requests whose normalized client IP isn't in cfg's
// allowlist, unless the list is empty or the single entry "*" (spec
// §4.1 "Client IP allowlist").
func ipAllowlist(cfg *configmodel.RuntimeConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		list := cfg.IPAllowlist
		if len(list) == 0 || (len(list) == 1 && list[0] == "*") {
			c.Next()
			return
		}

		ip := network.ClientIP(
			c.GetHeader("cf-connecting-ip"),
			c.GetHeader("x-real-ip"),
			c.GetHeader("x-forwarded-for"),
			c.Request.RemoteAddr,
		)
		if !network.InAllowlist(ip, list) {
			writeError(c, http.StatusForbidden, "forbidden", "client IP not allowed")
			c.Abort()
			return
		}
		c.Next()
	}
}

// masterKeyAuth implements spec §4.1's auth gate: when ignoreAuth is
// false, masterKey must be set and the request's bearer/x-api-key token
// must match it, compared in constant time over the full length. When
// ignoreAuth is true and no masterKey is set, auth is skipped entirely.
func masterKeyAuth(cfg *configmodel.RuntimeConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.IgnoreAuth && cfg.MasterKey == "" {
			c.Next()
			return
		}

		if cfg.MasterKey == "" {
			writeError(c, http.StatusUnauthorized, "unauthorized", "Unauthorized")
			c.Abort()
			return
		}

		token := extractToken(c.Request)
		if !constantTimeEqual(token, cfg.MasterKey) {
			writeError(c, http.StatusUnauthorized, "unauthorized", "Unauthorized")
			c.Abort()
			return
		}
		c.Next()
	}
}

func extractToken(r *http.Request) string {
	if v := r.Header.Get("x-api-key"); v != "" {
		return v
	}
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	if after, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return after
	}
	return auth
}

func constantTimeEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func writeError(c *gin.Context, status int, errType, message string) {
	c.JSON(status, gin.H{"error": gin.H{"type": errType, "message": message}})
}

package gateway

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Laisky/llm-router/internal/configmodel"
)

// corsMiddleware implements spec §4.1's CORS rules via gin-contrib/cors:
// origins allowlisted by config, `*` only when CORSAllowAll is set;
// preflight advertises GET/POST/OPTIONS and the four headers the
// dialects actually use.
func corsMiddleware(cfg *configmodel.RuntimeConfig) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "x-api-key", "anthropic-version"},
		AllowCredentials: false,
		MaxAge:           600 * time.Second,
	}

	if cfg.CORSAllowAll {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.CORSAllowOrigins
	}

	return cors.New(c)
}

package gateway

import (
	gmw "github.com/Laisky/gin-middlewares/v7"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/Laisky/llm-router/common/logger"
	"github.com/Laisky/llm-router/internal/configmodel"
	"github.com/Laisky/llm-router/internal/dialect"
	"github.com/Laisky/llm-router/internal/dispatch"
	"github.com/Laisky/llm-router/internal/observability"
)

// NewEngine assembles the gin.Engine implementing spec §4.1's front
// gate: the full route table, CORS, IP allowlist, body-size limit, and
// master-key auth, wired the way the teacher's router package groups
// routes and middleware. Grounded on the teacher's router/api.go
// (gzip + group-scoped middleware, route table built as nested groups)
// generalized from the admin/channel API surface to this gateway's
// dialect-aware relay surface. `/internal/healthz` and `/internal/metrics`
// are the supplemented operability surface (distinct from the spec's
// public `GET /health`); metricsReg is nil unless internal/observability's
// Prometheus backend was enabled, in which case /internal/metrics is
// mounted unauthenticated (an operator-facing scrape endpoint, not a
// client route). `gmw.NewLoggerMiddleware` binds a per-request logger onto
// the gin.Context right after otelgin, matching the teacher's
// middleware/tracing_duplicate_traceid_test.go wiring, so every downstream
// handler's `gmw.GetLogger(c)` call carries the request's trace fields.
func NewEngine(cfg *configmodel.RuntimeConfig, tun configmodel.Tunables, deps dispatch.Deps, metricsReg *prometheus.Registry) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(otelgin.Middleware("llm-router"))
	engine.Use(gmw.NewLoggerMiddleware(
		gmw.WithLevel("info"),
		gmw.WithLogger(logger.Logger.Named("gin")),
	))
	engine.Use(gzip.Gzip(gzip.DefaultCompression))
	engine.Use(requestID())
	engine.Use(corsMiddleware(cfg))
	engine.Use(httpMetrics())

	engine.GET("/health", healthHandler(deps))
	engine.GET("/internal/healthz", healthHandler(deps))
	engine.GET("/", rootHandler())
	if metricsReg != nil {
		engine.GET("/internal/metrics", gin.WrapH(observability.Handler(metricsReg)))
	}

	protected := engine.Group("")
	protected.Use(bodyLimit(tun.MaxRequestBodyBytes))
	protected.Use(ipAllowlist(cfg))
	protected.Use(masterKeyAuth(cfg))

	registerModelRoutes(protected, deps)
	registerRelayRoutes(protected, deps)

	engine.NoRoute(notFoundHandler)
	return engine
}

func registerModelRoutes(r gin.IRoutes, deps dispatch.Deps) {
	unfiltered := modelsHandler(deps, "")
	openaiOnly := modelsHandler(deps, dialect.OpenAI)
	claudeOnly := modelsHandler(deps, dialect.Claude)

	for _, path := range []string{"/v1/models", "/models"} {
		r.GET(path, unfiltered)
	}
	for _, path := range []string{"/openai/v1/models", "/openai/models"} {
		r.GET(path, openaiOnly)
	}
	for _, path := range []string{"/anthropic/v1/models", "/anthropic/models"} {
		r.GET(path, claudeOnly)
	}
}

func registerRelayRoutes(r gin.IRoutes, deps dispatch.Deps) {
	claudeHandler := relayHandler(deps, dialect.Claude)
	openaiHandler := relayHandler(deps, dialect.OpenAI)
	autoHandler := relayHandler(deps, "")

	for _, path := range []string{"/anthropic/v1/messages", "/anthropic/messages", "/anthropic", "/messages", "/v1/messages"} {
		r.POST(path, claudeHandler)
	}
	for _, path := range []string{"/openai/v1/chat/completions", "/openai/chat/completions", "/openai", "/chat/completions", "/v1/chat/completions"} {
		r.POST(path, openaiHandler)
	}
	for _, path := range []string{"/", "/v1", "/route", "/router"} {
		r.POST(path, autoHandler)
	}
}

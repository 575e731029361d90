// Package dependency wires llm-router's core services using
// go.uber.org/dig, the same way the teacher's cmd/dependency package
// resolves its agent loop, message bus, and cron service: one
// dig.Container, one constructor per service registered with Provide,
// a single Invoke that assembles a typed Container the caller uses
// through plain getter methods and never touches dig directly.
package dependency

import (
	"context"
	"os"

	"github.com/Laisky/errors/v2"
	"github.com/fsnotify/fsnotify"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"github.com/Laisky/llm-router/common/client"
	"github.com/Laisky/llm-router/internal/breaker"
	"github.com/Laisky/llm-router/internal/configmodel"
	"github.com/Laisky/llm-router/internal/dispatch"
	"github.com/Laisky/llm-router/internal/gateway"
	"github.com/Laisky/llm-router/internal/observability"
	"github.com/Laisky/llm-router/internal/translate"
	"github.com/Laisky/llm-router/internal/translate/openaiclaude"
)

// Options are the process-lifetime flags cmd/router parses from CLI
// flags/env, distinct from configmodel.RuntimeConfig (the hot-reloadable
// document loaded from ConfigPath).
type Options struct {
	ConfigPath        string
	Debug             bool
	EnablePrometheus  bool
	TelemetryEndpoint string
	TelemetryInsecure bool
	BreakerSweepSpec  string
	ServiceVersion    string
}

// Container holds the resolved core service singletons. Callers use the
// typed getter methods; they never need to import dig directly.
type Container struct {
	store      *configmodel.Store
	tunables   configmodel.Tunables
	watcher    *fsnotify.Watcher
	janitor    *breaker.Janitor
	deps       dispatch.Deps
	engine     *gin.Engine
	metricsReg *prometheus.Registry
	telemetry  *observability.ProviderBundle
}

func (c *Container) Store() *configmodel.Store               { return c.store }
func (c *Container) Tunables() configmodel.Tunables           { return c.tunables }
func (c *Container) Watcher() *fsnotify.Watcher               { return c.watcher }
func (c *Container) Janitor() *breaker.Janitor                { return c.janitor }
func (c *Container) Engine() *gin.Engine                      { return c.engine }
func (c *Container) MetricsRegistry() *prometheus.Registry    { return c.metricsReg }
func (c *Container) Telemetry() *observability.ProviderBundle { return c.telemetry }

// monitoringResult bundles InitOpenTelemetry's provider bundle with
// InitMonitoring's registry, since a dig constructor yields one type and
// both are needed: the bundle for shutdown, the registry for the
// engine's /internal/metrics route.
type monitoringResult struct {
	Registry  *prometheus.Registry
	Telemetry *observability.ProviderBundle
}

// New builds and wires every core service from opts. ctx bounds only the
// construction-time calls that need it (OpenTelemetry exporter dialing);
// it is not retained.
func New(ctx context.Context, opts Options) (*Container, error) {
	d := dig.New()

	providers := []any{
		func() Options { return opts },
		loadConfig,
		newStore,
		newWatcher,
		newTunables,
		newMonitoring,
		newTranslator,
		newBreakerStore,
		newJanitor,
		newDispatchDeps,
		newEngine,
	}
	for _, ctor := range providers {
		if err := d.Provide(ctor); err != nil {
			return nil, errors.Wrapf(err, "register constructor %T", ctor)
		}
	}
	if err := d.Provide(func() context.Context { return ctx }); err != nil {
		return nil, errors.Wrap(err, "register context")
	}

	var result *Container
	err := d.Invoke(func(
		store *configmodel.Store,
		tun configmodel.Tunables,
		watcher *fsnotify.Watcher,
		janitor *breaker.Janitor,
		mon monitoringResult,
		deps dispatch.Deps,
		engine *gin.Engine,
	) {
		result = &Container{
			store:      store,
			tunables:   tun,
			watcher:    watcher,
			janitor:    janitor,
			deps:       deps,
			engine:     engine,
			metricsReg: mon.Registry,
			telemetry:  mon.Telemetry,
		}
	})
	if err != nil {
		return nil, errors.Wrap(err, "wire core services")
	}
	return result, nil
}

func loadConfig(opts Options) (*configmodel.RuntimeConfig, error) {
	cfg, err := configmodel.Load(opts.ConfigPath)
	if err != nil {
		return nil, errors.Wrapf(err, "load config %q", opts.ConfigPath)
	}
	return cfg, nil
}

func newStore(cfg *configmodel.RuntimeConfig) *configmodel.Store {
	return configmodel.NewStore(cfg)
}

func newWatcher(opts Options, store *configmodel.Store) (*fsnotify.Watcher, error) {
	watcher, err := configmodel.Watch(opts.ConfigPath, store)
	if err != nil {
		return nil, errors.Wrapf(err, "watch config %q", opts.ConfigPath)
	}
	return watcher, nil
}

func newTunables() configmodel.Tunables {
	return configmodel.LoadTunables()
}

// newMonitoring starts OpenTelemetry first (it sets the process-wide
// tracer/meter providers) and only then InitMonitoring, since
// observability.NewOtelRecorder reads metrics instruments off the
// global meter provider InitOpenTelemetry installs — the reverse order
// would leave the otel recorder bound to a no-op meter.
func newMonitoring(ctx context.Context, opts Options) (monitoringResult, error) {
	telemetryCfg := observability.TelemetryConfig{
		Enabled:     opts.TelemetryEndpoint != "",
		Endpoint:    opts.TelemetryEndpoint,
		Insecure:    opts.TelemetryInsecure,
		ServiceName: "llm-router",
		Environment: environmentOrDefault(),
		Version:     opts.ServiceVersion,
	}

	bundle, err := observability.InitOpenTelemetry(ctx, telemetryCfg)
	if err != nil {
		return monitoringResult{}, errors.Wrap(err, "init OpenTelemetry")
	}

	reg, err := observability.InitMonitoring(observability.MonitoringConfig{
		EnablePrometheus: opts.EnablePrometheus,
		Telemetry:        telemetryCfg,
	})
	if err != nil {
		_ = bundle.Shutdown(ctx)
		return monitoringResult{}, errors.Wrap(err, "init monitoring")
	}

	return monitoringResult{Registry: reg, Telemetry: bundle}, nil
}

func newTranslator() translate.Translator {
	return openaiclaude.New()
}

func newBreakerStore() *breaker.Store {
	return breaker.NewStore()
}

func newJanitor(store *breaker.Store, opts Options) (*breaker.Janitor, error) {
	spec := opts.BreakerSweepSpec
	if spec == "" {
		spec = "*/1 * * * *"
	}
	janitor, err := breaker.StartJanitor(store, spec)
	if err != nil {
		return nil, errors.Wrapf(err, "start breaker janitor %q", spec)
	}
	return janitor, nil
}

func newDispatchDeps(store *configmodel.Store, breakerStore *breaker.Store, translator translate.Translator, tun configmodel.Tunables) dispatch.Deps {
	return dispatch.Deps{
		Store:      breakerStore,
		Translator: translator,
		HTTPClient: client.HTTPClient,
		Tunables:   tun,
		Cfg:        store,
	}
}

func newEngine(store *configmodel.Store, tun configmodel.Tunables, deps dispatch.Deps, mon monitoringResult) *gin.Engine {
	return gateway.NewEngine(store.Get(), tun, deps, mon.Registry)
}

func environmentOrDefault() string {
	if v := os.Getenv("LLM_ROUTER_ENVIRONMENT"); v != "" {
		return v
	}
	return "production"
}

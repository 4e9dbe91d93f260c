package di

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"

	"github.com/sandeepkv93/catalog-editor/internal/app"
	"github.com/sandeepkv93/catalog-editor/internal/config"
	"github.com/sandeepkv93/catalog-editor/internal/editor"
	"github.com/sandeepkv93/catalog-editor/internal/health"
	"github.com/sandeepkv93/catalog-editor/internal/http/handler"
	"github.com/sandeepkv93/catalog-editor/internal/http/middleware"
	"github.com/sandeepkv93/catalog-editor/internal/http/router"
	"github.com/sandeepkv93/catalog-editor/internal/observability"
	"github.com/sandeepkv93/catalog-editor/internal/repository"
	"github.com/sandeepkv93/catalog-editor/internal/service"
	"github.com/sandeepkv93/catalog-editor/internal/view"
)

var ConfigSet = wire.NewSet(config.Load)

var ObservabilitySet = wire.NewSet(
	provideObservabilityRuntime,
	provideAppLogger,
)

var RuntimeInfraSet = wire.NewSet(
	provideRedisClient,
	provideSlot,
	provideReadinessProbeRunner,
)

var RepositorySet = wire.NewSet(
	provideProductRepository,
	wire.Bind(new(repository.ProductRepository), new(*repository.SlotProductRepository)),
)

var ServiceSet = wire.NewSet(
	provideViewPipeline,
	service.NewCatalogService,
	wire.Bind(new(service.ProductService), new(*service.CatalogService)),
	provideEditorController,
)

var HTTPSet = wire.NewSet(
	handler.NewProductHandler,
	providePageHandler,
	provideGlobalRateLimiter,
	provideRouterDependencies,
	router.NewRouter,
	provideHTTPServer,
)

var AppSet = wire.NewSet(provideApp)

// CatalogSet builds the catalog service over the configured store without
// the HTTP surface. Command-line tools use it.
var CatalogSet = wire.NewSet(
	provideToolLogger,
	provideToolRedisClient,
	provideSlot,
	RepositorySet,
	provideViewPipeline,
	service.NewCatalogService,
)

// Catalog is the non-HTTP runtime handed to command-line tools.
type Catalog struct {
	Config  *config.Config
	Logger  *slog.Logger
	Slot    repository.Slot
	Service *service.CatalogService
}

func NewCatalog(cfg *config.Config, logger *slog.Logger, slot repository.Slot, svc *service.CatalogService) *Catalog {
	return &Catalog{Config: cfg, Logger: logger, Slot: slot, Service: svc}
}

func (c *Catalog) Close() error {
	if c == nil || c.Slot == nil {
		return nil
	}
	return c.Slot.Close()
}

func provideObservabilityRuntime(cfg *config.Config) (*observability.Runtime, error) {
	bootstrapLogger := observability.NewBootstrapLogger(cfg)
	return observability.InitRuntime(context.Background(), cfg, bootstrapLogger)
}

func provideAppLogger(cfg *config.Config, runtime *observability.Runtime) *slog.Logger {
	return observability.InitLogger(cfg, runtime.LoggerProvider)
}

func provideToolLogger(cfg *config.Config) *slog.Logger {
	return observability.NewToolLogger(cfg, os.Stderr)
}

// provideRedisClient opens one client shared by the redis slot and the
// distributed rate limiter. It is nil when neither is configured.
func provideRedisClient(cfg *config.Config, logger *slog.Logger) redis.UniversalClient {
	if !cfg.NeedsRedis() {
		return nil
	}
	return repository.NewRedisClient(cfg, logger)
}

// Tools never rate limit, so the slot opens and owns its own client.
func provideToolRedisClient() redis.UniversalClient {
	return nil
}

func provideSlot(cfg *config.Config, redisClient redis.UniversalClient, logger *slog.Logger) (repository.Slot, error) {
	return repository.OpenSlot(context.Background(), cfg, redisClient, logger)
}

func provideProductRepository(cfg *config.Config, slot repository.Slot) *repository.SlotProductRepository {
	return repository.NewProductRepository(slot, cfg.StorageKey)
}

func provideViewPipeline(cfg *config.Config) *view.Pipeline {
	return view.NewPipeline(cfg.SortLocale)
}

func provideEditorController(svc service.ProductService, logger *slog.Logger) *editor.Controller {
	return editor.NewController(svc, nil, nil, logger)
}

func providePageHandler(cfg *config.Config, ctrl *editor.Controller, svc service.ProductService) *handler.PageHandler {
	if !cfg.HTMLUIEnabled {
		return nil
	}
	return handler.NewPageHandler(ctrl, svc)
}

func provideGlobalRateLimiter(cfg *config.Config, redisClient redis.UniversalClient) router.GlobalRateLimiterFunc {
	if cfg.RateLimitRedisEnabled && redisClient != nil {
		mode := middleware.FailClosed
		if cfg.RateLimitRedisFailOpen {
			mode = middleware.FailOpen
		}
		redisLimiter := middleware.NewRedisFixedWindowLimiter(redisClient, cfg.RateLimitRedisPrefix+":api")
		return middleware.NewDistributedRateLimiter(
			redisLimiter,
			cfg.APIRateLimitPerMin,
			time.Minute,
			mode,
			"api",
		).Middleware()
	}
	return middleware.NewRateLimiter(cfg.APIRateLimitPerMin, time.Minute).Middleware()
}

func provideRouterDependencies(
	productHandler *handler.ProductHandler,
	pageHandler *handler.PageHandler,
	globalRateLimiter router.GlobalRateLimiterFunc,
	readiness *health.ProbeRunner,
	cfg *config.Config,
) router.Dependencies {
	return router.Dependencies{
		ProductHandler:    productHandler,
		PageHandler:       pageHandler,
		CORSOrigins:       cfg.CORSAllowedOrigins,
		APIRateLimitRPM:   cfg.APIRateLimitPerMin,
		GlobalRateLimiter: globalRateLimiter,
		Readiness:         readiness,
		EnableOTelHTTP:    cfg.OTELMetricsEnabled || cfg.OTELTracingEnabled,
	}
}

func provideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// provideReadinessProbeRunner requires the store and a readable catalog. The
// rate limiter's redis is optional when it fails open.
func provideReadinessProbeRunner(cfg *config.Config, slot repository.Slot, repo repository.ProductRepository, redisClient redis.UniversalClient) *health.ProbeRunner {
	var redisChecker health.Checker
	if cfg.RateLimitRedisEnabled {
		redisChecker = health.NewRedisChecker(redisClient)
		if cfg.RateLimitRedisFailOpen {
			redisChecker = health.Optional(redisChecker)
		}
	}
	return health.NewProbeRunner(cfg.ReadinessProbeTimeout, 0,
		health.NewStoreChecker(slot.Backend(), slot),
		health.NewCatalogChecker(repo),
		redisChecker,
	)
}

func provideApp(
	cfg *config.Config,
	logger *slog.Logger,
	server *http.Server,
	runtime *observability.Runtime,
	slot repository.Slot,
	redisClient redis.UniversalClient,
	readiness *health.ProbeRunner,
) *app.App {
	return app.New(cfg, logger, server, runtime, slot, redisClient, readiness)
}

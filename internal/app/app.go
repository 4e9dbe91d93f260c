package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sandeepkv93/catalog-editor/internal/config"
	"github.com/sandeepkv93/catalog-editor/internal/health"
	"github.com/sandeepkv93/catalog-editor/internal/observability"
	"github.com/sandeepkv93/catalog-editor/internal/repository"
)

type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Server        *http.Server
	Observability *observability.Runtime
	Slot          repository.Slot
	Redis         redis.UniversalClient
	Readiness     *health.ProbeRunner

	ShutdownTimeout              time.Duration
	ShutdownHTTPDrainTimeout     time.Duration
	ShutdownObservabilityTimeout time.Duration
}

func New(
	cfg *config.Config,
	logger *slog.Logger,
	server *http.Server,
	runtime *observability.Runtime,
	slot repository.Slot,
	redisClient redis.UniversalClient,
	readiness *health.ProbeRunner,
) *App {
	return &App{
		Config:                       cfg,
		Logger:                       logger,
		Server:                       server,
		Observability:                runtime,
		Slot:                         slot,
		Redis:                        redisClient,
		Readiness:                    readiness,
		ShutdownTimeout:              cfg.ShutdownTimeout,
		ShutdownHTTPDrainTimeout:     cfg.ShutdownHTTPDrainTimeout,
		ShutdownObservabilityTimeout: cfg.ShutdownObservabilityTimeout,
	}
}

// Shutdown drains HTTP first, then flushes telemetry, then releases the
// catalog store and the shared redis client. Every step runs even when an
// earlier one fails.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error

	httpTimeout := a.ShutdownHTTPDrainTimeout
	if httpTimeout <= 0 {
		httpTimeout = 10 * time.Second
	}
	if a.Server != nil {
		httpCtx, cancel := context.WithTimeout(ctx, httpTimeout)
		if err := a.Server.Shutdown(httpCtx); err != nil {
			a.Logger.Error("failed to shutdown http server", "error", err)
			errs = append(errs, err)
		}
		cancel()
	}

	if a.Observability != nil {
		obsTimeout := a.ShutdownObservabilityTimeout
		if obsTimeout <= 0 {
			obsTimeout = 8 * time.Second
		}
		obsCtx, cancel := context.WithTimeout(ctx, obsTimeout)
		if err := a.Observability.Shutdown(obsCtx); err != nil {
			a.Logger.Error("failed to shutdown observability", "error", err)
			errs = append(errs, err)
		}
		cancel()
	}

	if a.Slot != nil {
		if err := a.Slot.Close(); err != nil {
			a.Logger.Error("failed to close catalog store", "backend", a.Slot.Backend(), "error", err)
			errs = append(errs, err)
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Error("failed to close redis client", "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

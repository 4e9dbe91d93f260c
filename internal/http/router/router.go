package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sandeepkv93/catalog-editor/internal/health"
	"github.com/sandeepkv93/catalog-editor/internal/http/handler"
	"github.com/sandeepkv93/catalog-editor/internal/http/middleware"
	"github.com/sandeepkv93/catalog-editor/internal/http/response"
)

type Dependencies struct {
	ProductHandler    *handler.ProductHandler
	PageHandler       *handler.PageHandler
	CORSOrigins       []string
	APIRateLimitRPM   int
	GlobalRateLimiter GlobalRateLimiterFunc
	Readiness         *health.ProbeRunner
	EnableOTelHTTP    bool
}

type GlobalRateLimiterFunc func(http.Handler) http.Handler

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.CORSOrigins))
	r.Use(middleware.BodyLimit(1 << 20))

	limiter := dep.GlobalRateLimiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter(dep.APIRateLimitRPM, time.Minute).Middleware()
	}

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness == nil {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": []any{}})
			return
		}
		ready, results := dep.Readiness.Ready(r.Context())
		if ready {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
			return
		}
		response.Error(w, r, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY", "dependencies are not ready", map[string]any{"checks": results})
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Use(limiter)
		r.Get("/", dep.ProductHandler.List)
		r.Get("/categories", dep.ProductHandler.Categories)
		r.Post("/", dep.ProductHandler.Create)
		r.Delete("/", dep.ProductHandler.Clear)
		r.Get("/{id}", dep.ProductHandler.GetByID)
		r.Put("/{id}", dep.ProductHandler.Update)
		r.Delete("/{id}", dep.ProductHandler.Delete)
	})

	if dep.PageHandler != nil {
		r.Get("/", dep.PageHandler.Products)
		r.Get("/products/new", dep.PageHandler.NewForm)
		r.Get("/products/{id}/edit", dep.PageHandler.EditForm)
		r.Group(func(r chi.Router) {
			r.Use(limiter)
			r.Post("/products", dep.PageHandler.Create)
			r.Post("/products/clear", dep.PageHandler.Clear)
			r.Post("/products/{id}", dep.PageHandler.Update)
			r.Post("/products/{id}/delete", dep.PageHandler.Delete)
		})
	}

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}

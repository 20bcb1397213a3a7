package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/otymus27/portal-hrg/internal/logger"
	"github.com/otymus27/portal-hrg/pkg/metrics"
	"github.com/otymus27/portal-hrg/pkg/portal/api/auth"
	"github.com/otymus27/portal-hrg/pkg/portal/api/handlers"
	apiMiddleware "github.com/otymus27/portal-hrg/pkg/portal/api/middleware"
	"github.com/otymus27/portal-hrg/pkg/portal/store"
	"github.com/otymus27/portal-hrg/pkg/portal/tree"
)

// NewRouter creates and configures the chi router with all middleware
// and routes.
//
// Routes:
//   - GET  /health - Liveness probe
//   - GET  /health/ready - Readiness probe
//   - GET  /metrics - Prometheus metrics (when enabled)
//   - POST /api/v1/auth/login - User authentication
//   - POST /api/v1/auth/refresh - Token refresh
//   - GET  /api/v1/auth/me - Current user info
//   - POST /api/v1/users/me/password - Change own password
//   - /api/v1/users/* - User management (admin only)
//   - /api/v1/folders/* - Folder tree operations
//   - /api/v1/files/* - File operations
func NewRouter(config APIConfig, engine *tree.Engine, jwtService *auth.JWTService, catalog store.Catalog) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(config.WriteTimeout))

	// Health routes - unauthenticated
	healthHandler := handlers.NewHealthHandler(catalog)
	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Live)
		r.Get("/ready", healthHandler.Ready)
	})

	if config.Metrics {
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	// Root redirect to health for convenience
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	authHandler := handlers.NewAuthHandler(catalog, jwtService)
	userHandler := handlers.NewUserHandler(catalog)
	folderHandler := handlers.NewFolderHandler(engine, catalog)
	fileHandler := handlers.NewFileHandler(engine, catalog)

	r.Route("/api/v1", func(r chi.Router) {
		// Auth routes - mostly unauthenticated
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)

			r.Group(func(r chi.Router) {
				r.Use(apiMiddleware.JWTAuth(jwtService))
				r.Get("/me", authHandler.Me)
			})
		})

		// Protected routes - require authentication
		r.Group(func(r chi.Router) {
			r.Use(apiMiddleware.JWTAuth(jwtService))

			// User management
			r.Route("/users", func(r chi.Router) {
				r.Post("/me/password", userHandler.ChangeOwnPassword)

				// Admin-only operations
				r.Group(func(r chi.Router) {
					r.Use(apiMiddleware.RequireAdmin())

					r.Post("/", userHandler.Create)
					r.Get("/", userHandler.List)
					r.Get("/{id}", userHandler.Get)
					r.Put("/{id}", userHandler.Update)
					r.Delete("/{id}", userHandler.Delete)
					r.Post("/{id}/password", userHandler.ResetPassword)
				})
			})

			// Folder tree operations; the engine enforces per-folder
			// permissions, so no role middleware here.
			r.Route("/folders", func(r chi.Router) {
				r.Post("/", folderHandler.Create)
				r.Get("/", folderHandler.ListRoots)
				r.Get("/tree", folderHandler.FullTree)
				r.Post("/delete-batch", folderHandler.DeleteBatch)

				r.Route("/{id}", func(r chi.Router) {
					r.Delete("/", folderHandler.Delete)
					r.Get("/tree", folderHandler.Subtree)
					r.Patch("/rename", folderHandler.Rename)
					r.Post("/move", folderHandler.Move)
					r.Post("/copy", folderHandler.Copy)
					r.Post("/replace", folderHandler.ReplaceContents)
					r.Patch("/permissions", folderHandler.UpdatePermissions)
					r.Get("/users", folderHandler.ListUsers)

					// Files scoped to a folder
					r.Post("/files", fileHandler.Upload)
					r.Post("/files/batch", fileHandler.UploadMultiple)
					r.Get("/files", fileHandler.List)
					r.Post("/files/delete-batch", fileHandler.DeleteBatch)
				})
			})

			// File operations
			r.Route("/files/{id}", func(r chi.Router) {
				r.Get("/", fileHandler.Get)
				r.Get("/download", fileHandler.Download)
				r.Put("/", fileHandler.Replace)
				r.Delete("/", fileHandler.Delete)
				r.Patch("/rename", fileHandler.Rename)
				r.Post("/move", fileHandler.Move)
				r.Post("/copy", fileHandler.Copy)
			})
		})
	})

	return r
}

// isHealthPath returns true if the request path is a healthcheck endpoint.
func isHealthPath(path string) bool {
	return path == "/health" || strings.HasPrefix(path, "/health/")
}

// requestLogger logs requests using the internal logger and records
// HTTP metrics. Healthcheck requests are logged at DEBUG level to
// reduce noise.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		ctx := logger.WithContext(r.Context(), logger.NewLogContext(requestID, r.RemoteAddr))
		r = r.WithContext(ctx)

		logger.Debug("API request started",
			logger.KeyRequestID, requestID,
			"method", r.Method,
			logger.KeyPath, r.URL.Path,
			logger.KeyClientIP, r.RemoteAddr,
		)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		metrics.ObserveHTTPRequest(r.Method, route, strconv.Itoa(ww.Status()), duration)

		logArgs := []any{
			logger.KeyRequestID, requestID,
			"method", r.Method,
			logger.KeyPath, r.URL.Path,
			logger.KeyStatus, ww.Status(),
			"bytes", ww.BytesWritten(),
			logger.KeyDurationMS, logger.Duration(start),
		}

		if isHealthPath(r.URL.Path) {
			logger.Debug("API request completed", logArgs...)
		} else {
			logger.Info("API request completed", logArgs...)
		}
	})
}

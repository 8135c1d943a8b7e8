// Package settlement собирает приложение движка расчётов: хранилище,
// кеш, брокер, клиент узла реестра, HTTP-сервер и маршруты.
package settlement

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/magabrotheeeer/subscription-settlement/internal/http-server/handlers/donate"
	"github.com/magabrotheeeer/subscription-settlement/internal/http-server/handlers/entitlement"
	"github.com/magabrotheeeer/subscription-settlement/internal/http-server/handlers/health"
	"github.com/magabrotheeeer/subscription-settlement/internal/http-server/handlers/promote"
	"github.com/magabrotheeeer/subscription-settlement/internal/http-server/handlers/upgrade"
	"github.com/magabrotheeeer/subscription-settlement/internal/http-server/middlewarectx"
	"github.com/magabrotheeeer/subscription-settlement/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-settlement/internal/lib/ratelimit"
	settlementservice "github.com/magabrotheeeer/subscription-settlement/internal/services/settlement"
	"github.com/magabrotheeeer/subscription-settlement/internal/storage/repository"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, service *settlementservice.Service,
	db *repository.Storage, jwtMaker jwt.Maker, limiters *ratelimit.PerUser) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(jwtMaker, logger))
			r.Use(middlewarectx.RateLimitMiddleware(limiters, logger))
			r.Post("/settlement/upgrade", upgrade.New(logger, service).ServeHTTP)
			r.Post("/settlement/donate", donate.New(logger, service).ServeHTTP)
			r.Post("/settlement/promote", promote.New(logger, service).ServeHTTP)
			r.Get("/entitlements/{platform}", entitlement.New(logger, service).ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger, db).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
}

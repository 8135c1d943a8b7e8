// Package entitlement содержит обработчик чтения текущего права пользователя.
package entitlement

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-settlement/internal/http-server/middlewarectx"
	"github.com/magabrotheeeer/subscription-settlement/internal/http-server/response"
	"github.com/magabrotheeeer/subscription-settlement/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-settlement/internal/models"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	GetEntitlement(ctx context.Context, userUID, platform string) (*models.Subscription, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.entitlement.ServeHTTP"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	platform := chi.URLParam(r, "platform")
	if platform == "" {
		log.Error("platform is missing in url")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("platform is required"))
		return
	}

	sub, err := h.service.GetEntitlement(r.Context(), userUID, platform)
	if err != nil {
		log.Error("failed to read entitlement", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read entitlement"))
		return
	}
	if sub == nil {
		log.Info("entitlement not found", slog.String("platform", platform))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("entitlement not found"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"plan":       sub.Plan.String(),
		"platform":   sub.Platform,
		"period_end": sub.PeriodEnd.Format("02-01-2006"),
		"active":     sub.Active(time.Now()),
	}))
}

// Package upgrade содержит обработчик повышения тарифного плана.
package upgrade

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/subscription-settlement/internal/http-server/middlewarectx"
	"github.com/magabrotheeeer/subscription-settlement/internal/http-server/response"
	"github.com/magabrotheeeer/subscription-settlement/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-settlement/internal/models"
	"github.com/magabrotheeeer/subscription-settlement/internal/plans"
)

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service выполняет расчёт повышения плана. Все исходы, включая сбои,
// возвращаются в Outcome.
type Service interface {
	UpgradeSubscription(ctx context.Context, userUID string, requested plans.Plan, platform string) models.Outcome
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.upgrade.ServeHTTP"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.UpgradeRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode request"))
		return
	}
	log.Info("request body decoded", slog.Any("request", req))

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	requested, ok := plans.ParsePlan(req.Plan)
	if !ok {
		log.Info("unknown plan requested", slog.String("plan", req.Plan))
		render.JSON(w, r, models.Failure(models.ReasonInvalidPlan))
		return
	}

	outcome := h.service.UpgradeSubscription(r.Context(), userUID, requested, req.Platform)
	log.Info("upgrade settled", slog.Bool("success", outcome.Success),
		slog.String("message", string(outcome.Message)))
	render.JSON(w, r, outcome)
}

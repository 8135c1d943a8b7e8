// Package promote содержит обработчик покупки промо-услуги.
package promote

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
)

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

type Service interface {
	BuyPromotion(ctx context.Context, userUID string, amount uint64, promoType models.PromotionType) models.Outcome
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.promote.ServeHTTP"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.PromoteRequest
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

	promoType, ok := models.ParsePromotionType(req.PromotionType)
	if !ok {
		log.Info("unknown promotion type", slog.String("promotion_type", req.PromotionType))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("unknown promotion type"))
		return
	}

	outcome := h.service.BuyPromotion(r.Context(), userUID, req.Amount, promoType)
	log.Info("promotion settled", slog.Bool("success", outcome.Success),
		slog.String("message", string(outcome.Message)))
	render.JSON(w, r, outcome)
}

// Package health содержит обработчик проверки готовности сервиса.
package health

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-settlement/internal/http-server/response"
	"github.com/magabrotheeeer/subscription-settlement/internal/lib/sl"
)

type Handler struct {
	log     *slog.Logger
	storage Pinger
}

// Pinger проверяет доступность хранилища прав.
type Pinger interface {
	CheckDatabaseReady(ctx context.Context) error
}

func New(log *slog.Logger, storage Pinger) *Handler {
	return &Handler{log: log, storage: storage}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.storage.CheckDatabaseReady(r.Context()); err != nil {
		h.log.Error("storage is not ready", sl.Err(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("storage is not ready"))
		return
	}
	render.JSON(w, r, response.StatusOKWithData("healthy"))
}

package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-settlement/internal/http-server/response"
	"github.com/magabrotheeeer/subscription-settlement/internal/lib/ratelimit"
)

// RateLimitMiddleware ограничивает частоту запросов отдельно для каждого
// пользователя. Ключ лимитера — UID из контекста после JWTMiddleware;
// для неаутентифицированных запросов используется адрес клиента.
func RateLimitMiddleware(limiters *ratelimit.PerUser, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := r.Context().Value(UserUID).(string)
			if !ok || key == "" {
				key = r.RemoteAddr
			}
			if !limiters.Allow(key) {
				log.Warn("too many requests", slog.String("key", key))
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, response.Error("too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

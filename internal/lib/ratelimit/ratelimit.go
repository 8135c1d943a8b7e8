// Package ratelimit реализует ограничение частоты запросов по пользователям.
// Вместо глобального лимитера на процесс реестр лимитеров внедряется
// в middleware как явная зависимость: состояние видно в сигнатурах
// и подменяется в тестах.
package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// PerUser реестр лимитеров, по одному на ключ пользователя.
type PerUser struct {
	mu    sync.Mutex
	limit rate.Limit
	burst int
	users map[string]*rate.Limiter
}

// NewPerUser создаёт реестр с заданной скоростью и размером корзины
// для каждого пользователя.
func NewPerUser(limit rate.Limit, burst int) *PerUser {
	return &PerUser{
		limit: limit,
		burst: burst,
		users: make(map[string]*rate.Limiter),
	}
}

// Allow сообщает, разрешён ли очередной запрос пользователя key.
// Лимитер для нового ключа создаётся лениво.
func (p *PerUser) Allow(key string) bool {
	p.mu.Lock()
	limiter, ok := p.users[key]
	if !ok {
		limiter = rate.NewLimiter(p.limit, p.burst)
		p.users[key] = limiter
	}
	p.mu.Unlock()
	return limiter.Allow()
}

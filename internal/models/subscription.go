package models

import (
	"time"

	"github.com/magabrotheeeer/subscription-settlement/internal/plans"
)

// Subscription подписка пользователя на одной платформе.
// Инвариант: не более одной записи на пару (пользователь, платформа).
// Записи никогда не удаляются: истечение выражается прошедшим PeriodEnd.
type Subscription struct {
	UserUID   string     // Владелец подписки
	Platform  string     // Платформа, к которой привязана подписка
	Plan      plans.Plan // Текущий тарифный план
	PeriodEnd time.Time  // Окончание оплаченного периода
	UpdatedAt time.Time  // Время последнего изменения записи
}

// Active сообщает, действует ли оплаченный период подписки в момент t.
func (s *Subscription) Active(t time.Time) bool {
	return s.PeriodEnd.After(t)
}

// UpgradeRequest тело запроса на повышение тарифного плана.
type UpgradeRequest struct {
	Plan     string `json:"plan" validate:"required"`     // Запрашиваемый план
	Platform string `json:"platform" validate:"required"` // Платформа
}

// DonateRequest тело запроса на пожертвование.
type DonateRequest struct {
	Amount uint64 `json:"amount" validate:"required,gt=0"` // Сумма в базовых единицах
}

// PromoteRequest тело запроса на покупку промо-услуги.
type PromoteRequest struct {
	Amount        uint64 `json:"amount" validate:"required,gt=0"`  // Сумма в базовых единицах
	PromotionType string `json:"promotion_type" validate:"required"` // Тип промо-услуги
}

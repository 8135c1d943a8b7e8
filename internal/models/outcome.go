package models

// ReasonCode типизированный код результата операции списания.
// Коды терминальны: за границу workflow не выходит ни одна ошибка,
// каждая из них отображается в один из кодов ниже.
type ReasonCode string

const (
	// ReasonNoUserFound пользователь не найден в хранилище прав.
	ReasonNoUserFound ReasonCode = "NO_USER_FOUND"
	// ReasonUserAlreadyPaid повышение невозможно (тот же или более низкий план)
	// либо несуммируемая промо-услуга уже куплена.
	ReasonUserAlreadyPaid ReasonCode = "USER_ALREADY_PAID"
	// ReasonInvalidPlan запрошенный план неизвестен или не имеет цены.
	ReasonInvalidPlan ReasonCode = "INVALID_PLAN"
	// ReasonInsufficientBalance баланса не хватает либо его не удалось узнать.
	// Эти два случая намеренно не различаются для вызывающей стороны.
	ReasonInsufficientBalance ReasonCode = "INSUFFICIENT_BALANCE"
	// ReasonInternalError сбой построения, подписи, отправки или
	// подтверждения перевода, а также любая неожиданная ошибка.
	ReasonInternalError ReasonCode = "INTERNAL_ERROR"
	// ReasonPlanUpgraded план повышен, перевод подтверждён.
	ReasonPlanUpgraded ReasonCode = "PLAN_UPGRADED"
	// ReasonDonationMade пожертвование принято.
	ReasonDonationMade ReasonCode = "DONATION_MADE"
	// ReasonTransactionSuccess промо-услуга куплена.
	ReasonTransactionSuccess ReasonCode = "TRANSACTION_SUCCESS"
)

// Outcome единый результат каждой операции workflow.
type Outcome struct {
	Success         bool       `json:"success"`                    // Признак успеха
	Message         ReasonCode `json:"message"`                    // Код результата
	SubscriptionEnd string     `json:"subscription_end,omitempty"` // Окончание периода после повышения плана
}

// Failure возвращает неуспешный Outcome с заданным кодом.
func Failure(code ReasonCode) Outcome {
	return Outcome{Success: false, Message: code}
}

// SuccessOutcome возвращает успешный Outcome с заданным кодом.
func SuccessOutcome(code ReasonCode) Outcome {
	return Outcome{Success: true, Message: code}
}

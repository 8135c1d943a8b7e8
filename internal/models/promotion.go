package models

import "time"

// PromotionType тип разовой промо-услуги. Закрытое перечисление:
// добавление нового типа требует правки Stackable и ParsePromotionType.
type PromotionType string

const (
	// PromotionFeatured закрепление в витрине. Не суммируется:
	// у пользователя может быть не более одной активной покупки.
	PromotionFeatured PromotionType = "featured"
	// PromotionBoost разовое продвижение. Суммируется без ограничений.
	PromotionBoost PromotionType = "boost"
)

// Stackable сообщает, допускает ли тип несколько одновременных покупок.
func (p PromotionType) Stackable() bool {
	switch p {
	case PromotionFeatured:
		return false
	case PromotionBoost:
		return true
	}
	return false
}

// ParsePromotionType разбирает строковый тип промо-услуги из запроса.
func ParsePromotionType(s string) (PromotionType, bool) {
	switch PromotionType(s) {
	case PromotionFeatured:
		return PromotionFeatured, true
	case PromotionBoost:
		return PromotionBoost, true
	}
	return "", false
}

// PromotionPurchase запись о купленной промо-услуге.
type PromotionPurchase struct {
	UserUID   string        // Покупатель
	Type      PromotionType // Тип услуги
	Stackable bool          // Снимок признака суммируемости на момент покупки
	CreatedAt time.Time     // Время покупки
}

// Package plans задаёт закрытый справочник тарифных планов: цену,
// длительность оплаченного периода и ранг для сравнения при повышении.
// Планы представлены закрытым перечислением, а не таблицей по строковому
// ключу: добавление плана — изменение, проверяемое компилятором.
package plans

import "time"

// Plan тарифный план. Порядок объявления задаёт ранг: Free всегда низший.
type Plan int

const (
	// Free бесплатный уровень, назначается без списания.
	Free Plan = iota
	// Hobby начальный платный план.
	Hobby
	// Pro расширенный платный план.
	Pro
)

// ParsePlan разбирает строковый идентификатор плана.
// Неизвестный идентификатор возвращает ok == false.
func ParsePlan(s string) (Plan, bool) {
	switch s {
	case "free":
		return Free, true
	case "hobby":
		return Hobby, true
	case "pro":
		return Pro, true
	}
	return Free, false
}

func (p Plan) String() string {
	switch p {
	case Free:
		return "free"
	case Hobby:
		return "hobby"
	case Pro:
		return "pro"
	}
	return "free"
}

// Rank возвращает ранг плана в общем порядке. Повышение допустимо только
// со строго меньшего ранга на строго больший.
func (p Plan) Rank() int {
	switch p {
	case Free:
		return 0
	case Hobby:
		return 1
	case Pro:
		return 2
	}
	return 0
}

// Price возвращает цену плана в базовых единицах реестра.
// У Free цены нет: его нельзя купить, ok == false.
func (p Plan) Price() (uint64, bool) {
	switch p {
	case Hobby:
		return 500_000, true
	case Pro:
		return 2_000_000, true
	}
	return 0, false
}

// Period возвращает длительность оплаченного периода плана.
func (p Plan) Period() time.Duration {
	switch p {
	case Hobby:
		return 30 * 24 * time.Hour
	case Pro:
		return 90 * 24 * time.Hour
	}
	return 0
}

package models

import "time"

// SettlementAlert сообщение для операторов о «грязном» расчёте:
// перевод подтверждён реестром, но запись права не применилась
// или была отклонена правилом хранилища. Публикуется в очередь
// settlements.alerts и требует внешней сверки.
type SettlementAlert struct {
	UserUID     string    `json:"user_uid"`
	Operation   string    `json:"operation"`    // upgrade, donation или promotion
	Amount      uint64    `json:"amount"`       // Сумма фактически ушедшего перевода
	TransferSig string    `json:"transfer_sig"` // Подпись подтверждённого перевода
	Reason      string    `json:"reason"`       // Почему запись права не применилась
	OccurredAt  time.Time `json:"occurred_at"`
}

// SettlementReceipt уведомление об успешном изменении права.
// Публикуется в очередь settlements.receipts для внешнего сервиса
// доставки уведомлений.
type SettlementReceipt struct {
	UserUID    string    `json:"user_uid"`
	Operation  string    `json:"operation"`
	Plan       string    `json:"plan,omitempty"`
	Platform   string    `json:"platform,omitempty"`
	Amount     uint64    `json:"amount"`
	PeriodEnd  string    `json:"period_end,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

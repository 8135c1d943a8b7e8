package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

// Exchange имя обменника для сообщений о расчётах.
const Exchange = "settlements"

const (
	// RoutingKeyAlert ключ маршрутизации алертов для операторов.
	RoutingKeyAlert = "alert"
	// RoutingKeyReceipt ключ маршрутизации квитанций об изменениях прав.
	RoutingKeyReceipt = "receipt"
)

// QueueConfig описывает очередь и её ключ маршрутизации.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// SettlementQueues возвращает очереди движка расчётов.
func SettlementQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "settlements.alerts", RoutingKey: RoutingKeyAlert},
		{QueueName: "settlements.receipts", RoutingKey: RoutingKeyReceipt},
	}
}

// SetupChannel открывает канал, объявляет обменник и привязывает очереди.
func SetupChannel(conn *amqp.Connection, queues []QueueConfig) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	err = ch.ExchangeDeclare(
		Exchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			q.QueueName,
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to declare queue %s: %w", op, q.QueueName, err)
		}

		err = ch.QueueBind(
			q.QueueName,
			q.RoutingKey,
			Exchange,
			false,
			nil,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to bind queue %s with routing key %s: %w", op, q.QueueName, q.RoutingKey, err)
		}
	}

	return ch, nil
}

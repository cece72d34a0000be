package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"coffee-salon/internal/realtime"
)

// DeclareChangesExchange makes sure the topic exchange carrying salon change
// events exists.
func DeclareChangesExchange(ch *amqp.Channel, exchange string) error {
	if err := ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("declare exchange %s failed: %w", exchange, err)
	}
	return nil
}

type ChangePublisher struct {
	conn     *Conn
	exchange string
}

func NewChangePublisher(conn *Conn, exchange string) *ChangePublisher {
	return &ChangePublisher{
		conn:     conn,
		exchange: exchange,
	}
}

func (p *ChangePublisher) Publish(ctx context.Context, evt realtime.Event) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := DeclareChangesExchange(ch, p.exchange); err != nil {
		return err
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal change event failed: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		p.exchange,
		evt.RoutingKey(),
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Transient,
		},
	); err != nil {
		return fmt.Errorf("publish change event failed: %w", err)
	}
	return nil
}

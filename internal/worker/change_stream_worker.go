package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"coffee-salon/internal/realtime"
)

// Dispatcher receives decoded change events. DropAll is called when the feed
// had a gap, so live viewers resume from their cursors.
type Dispatcher interface {
	Dispatch(evt realtime.Event)
	DropAll()
}

type ChannelOpener interface {
	Channel() (*amqp.Channel, error)
}

// ChangeStreamWorker feeds the change events of every salon into the local
// dispatcher. Each instance consumes its own exclusive queue so every
// instance sees every event. A lost consumer is re-established with backoff.
type ChangeStreamWorker struct {
	conn       ChannelOpener
	dispatcher Dispatcher
	exchange   string

	subscribe  func() (<-chan amqp.Delivery, func(), error)
	minBackoff time.Duration
	maxBackoff time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

const changesBindingKey = "salon.#"

func NewChangeStreamWorker(conn ChannelOpener, dispatcher Dispatcher, exchange string) *ChangeStreamWorker {
	w := &ChangeStreamWorker{
		conn:       conn,
		dispatcher: dispatcher,
		exchange:   exchange,
		minBackoff: 500 * time.Millisecond,
		maxBackoff: 30 * time.Second,
	}
	w.subscribe = w.openConsumer
	return w
}

func (w *ChangeStreamWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	deliveries, closeConsumer, err := w.subscribe()
	if err != nil {
		return err
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(workerCtx, deliveries, closeConsumer)
	}()

	return nil
}

func (w *ChangeStreamWorker) run(ctx context.Context, deliveries <-chan amqp.Delivery, closeConsumer func()) {
	for {
		w.consume(ctx, deliveries)
		closeConsumer()
		if ctx.Err() != nil {
			return
		}

		log.Warn().Msg("change stream consumer lost, resubscribing")
		// events published while disconnected never reach the hub
		w.dispatcher.DropAll()

		var ok bool
		deliveries, closeConsumer, ok = w.resubscribe(ctx)
		if !ok {
			return
		}
	}
}

// consume returns when ctx is done or the broker closes the delivery channel.
func (w *ChangeStreamWorker) consume(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			w.handle(d.Body)
		}
	}
}

func (w *ChangeStreamWorker) resubscribe(ctx context.Context) (<-chan amqp.Delivery, func(), bool) {
	backoff := w.minBackoff
	for {
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, nil, false
		case <-timer.C:
		}

		deliveries, closeConsumer, err := w.subscribe()
		if err == nil {
			log.Info().Msg("change stream consumer restored")
			return deliveries, closeConsumer, true
		}
		log.Error().Err(err).Dur("retry_in", backoff).Msg("resubscribe change stream failed")
		backoff = min(backoff*2, w.maxBackoff)
	}
}

func (w *ChangeStreamWorker) openConsumer() (<-chan amqp.Delivery, func(), error) {
	ch, err := w.conn.Channel()
	if err != nil {
		return nil, nil, fmt.Errorf("open worker channel failed: %w", err)
	}
	closeChannel := func() { _ = ch.Close() }

	queue, err := ch.QueueDeclare(
		"",
		false,
		true,
		true,
		false,
		nil,
	)
	if err != nil {
		closeChannel()
		return nil, nil, fmt.Errorf("declare change queue failed: %w", err)
	}

	if err := ch.QueueBind(queue.Name, changesBindingKey, w.exchange, false, nil); err != nil {
		closeChannel()
		return nil, nil, fmt.Errorf("bind change queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		queue.Name,
		"",
		true,
		true,
		false,
		false,
		nil,
	)
	if err != nil {
		closeChannel()
		return nil, nil, fmt.Errorf("consume change queue failed: %w", err)
	}
	return deliveries, closeChannel, nil
}

func (w *ChangeStreamWorker) handle(body []byte) {
	var evt realtime.Event
	if err := json.Unmarshal(body, &evt); err != nil {
		log.Error().Err(err).Msg("decode change event failed")
		return
	}
	if evt.SalonID == "" {
		log.Warn().Str("table", evt.Table).Msg("change event without salon id dropped")
		return
	}
	w.dispatcher.Dispatch(evt)
}

func (w *ChangeStreamWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

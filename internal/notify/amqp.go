package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/slicehouse/api/internal/enum"
	"github.com/slicehouse/api/internal/service"
)

// ExchangeInventoryAlerts is the fanout exchange low-stock events go to.
const ExchangeInventoryAlerts = "inventory_alerts"

const publishTimeout = 10 * time.Second

// Channel is the part of *amqp.Channel the publisher uses.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Connection owns the broker connection and the channel publishes go out on.
type Connection struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// Dial connects to the broker and declares the alerts exchange.
func Dial(url string) (*Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(
		ExchangeInventoryAlerts, // name
		"fanout",                // type
		true,                    // durable
		false,                   // auto-deleted
		false,                   // internal
		false,                   // no-wait
		nil,                     // arguments
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare %s exchange: %w", ExchangeInventoryAlerts, err)
	}
	return &Connection{conn: conn, channel: ch}, nil
}

func (c *Connection) Channel() *amqp.Channel { return c.channel }

func (c *Connection) Close() error {
	return errors.Join(c.channel.Close(), c.conn.Close())
}

// Publisher sends one persistent JSON message per low-stock signal.
type Publisher struct {
	ch       Channel
	exchange string
	log      *zap.Logger
}

func NewPublisher(ch Channel, log *zap.Logger) *Publisher {
	return &Publisher{ch: ch, exchange: ExchangeInventoryAlerts, log: log}
}

func (p *Publisher) NotifyLowStock(ctx context.Context, signals []service.LowStockSignal) error {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	var errs []error
	for _, sig := range signals {
		body, err := json.Marshal(sig)
		if err != nil {
			errs = append(errs, fmt.Errorf("marshal signal %s: %w", sig.ItemID, err))
			continue
		}
		err = p.ch.PublishWithContext(ctx, p.exchange, "", false, false, amqp.Publishing{
			ContentType:  "application/json",
			Type:         enum.EventLowStock,
			MessageId:    sig.OrderID.String() + ":" + sig.ItemID.String(),
			DeliveryMode: amqp.Persistent,
			Timestamp:    sig.At,
			Body:         body,
		})
		if err != nil {
			p.log.Error("low stock publish failed",
				zap.String("exchange", p.exchange),
				zap.Stringer("item_id", sig.ItemID),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("publish signal %s: %w", sig.ItemID, err))
			continue
		}
		p.log.Debug("low stock published",
			zap.String("exchange", p.exchange),
			zap.Stringer("item_id", sig.ItemID),
			zap.Int("message_size", len(body)),
		)
	}
	return errors.Join(errs...)
}

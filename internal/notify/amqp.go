package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fooddupe/pkg/config"
	"fooddupe/prometheus"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Broker mirrors order events onto a durable AMQP topic exchange so that
// out-of-process consumers (kitchen displays, printers, integrations) can
// subscribe without holding an HTTP stream. Publishing is fire-and-forget:
// a broker failure is logged and counted but never fails the request that
// produced the event.
type Broker struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   *zap.Logger
}

// ConnectBroker dials the broker and declares the topic exchange. Returns
// (nil, nil) when no URL is configured, which disables the bridge.
func ConnectBroker(cfg *config.AMQPConfig, logger *zap.Logger) (*Broker, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	err = channel.ExchangeDeclare(
		cfg.Exchange, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	logger.Info("Connected to AMQP broker", zap.String("exchange", cfg.Exchange))
	return &Broker{
		conn:     conn,
		channel:  channel,
		exchange: cfg.Exchange,
		logger:   logger,
	}, nil
}

// Close releases the channel and connection
func (b *Broker) Close() {
	if b == nil {
		return
	}
	if b.channel != nil {
		b.channel.Close()
	}
	if b.conn != nil {
		b.conn.Close()
	}
}

// PublishOrderCreated mirrors a new-order event with routing key
// orders.<subdomain>.created
func (b *Broker) PublishOrderCreated(subdomain string, payload interface{}) {
	b.publish(fmt.Sprintf("orders.%s.created", subdomain), payload)
}

// PublishStatusUpdated mirrors a status change with routing key
// orders.<subdomain>.status
func (b *Broker) PublishStatusUpdated(subdomain string, payload interface{}) {
	b.publish(fmt.Sprintf("orders.%s.status", subdomain), payload)
}

func (b *Broker) publish(routingKey string, payload interface{}) {
	if b == nil {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		b.logger.Error("Failed to marshal broker event", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = b.channel.PublishWithContext(ctx,
		b.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
		})
	if err != nil {
		prometheus.RecordBrokerPublishError()
		b.logger.Error("Failed to publish broker event",
			zap.String("routing_key", routingKey),
			zap.Error(err))
	}
}

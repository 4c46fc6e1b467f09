package events

import (
	"context"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	sharedBus "github.com/davicafu/backoffice/internal/shared/infra/platform/bus"
)

// MessageHandler es cualquier consumidor del change feed.
type MessageHandler interface {
	HandleMessage(ctx context.Context, key string, payload []byte)
}

// ConsumerAdapter lee de Kafka y delega en el handler.
type ConsumerAdapter struct {
	reader  *kafka.Reader
	handler MessageHandler
	log     *zap.Logger
}

func NewConsumerAdapter(reader *kafka.Reader, handler MessageHandler, log *zap.Logger) *ConsumerAdapter {
	return &ConsumerAdapter{reader: reader, handler: handler, log: log}
}

// NewChangeFeedReader arma el reader del topic de cambios con un group id
// propio por proceso consumidor.
func NewChangeFeedReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
}

// Start lanza el bucle de lectura en una goroutine.
func (c *ConsumerAdapter) Start(ctx context.Context) {
	c.log.Info("🎧 Iniciando consumidor de Kafka...",
		zap.String("topic", c.reader.Config().Topic),
		zap.Strings("brokers", c.reader.Config().Brokers),
	)

	go func() {
		defer c.reader.Close()
		for {
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					c.log.Info("Consumidor de Kafka detenido.", zap.String("topic", c.reader.Config().Topic))
					return
				}
				c.log.Error("Error al leer mensaje de Kafka", zap.Error(err))
				continue
			}
			c.handler.HandleMessage(ctx, string(msg.Key), msg.Value)
		}
	}()
}

// ConsumeChannel hace lo mismo sobre un bus en memoria.
func ConsumeChannel(ctx context.Context, sub sharedBus.Subscriber, handler MessageHandler, log *zap.Logger) {
	ch := sub.Subscribe(100)
	go func() {
		for {
			select {
			case <-ctx.Done():
				log.Info("Consumidor en memoria detenido.")
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				handler.HandleMessage(ctx, msg.Key, msg.Payload)
			}
		}
	}()
}

package events

import (
	"context"
	"encoding/json"
	"sync"

	sharedBus "github.com/davicafu/backoffice/internal/shared/infra/platform/bus"
)

// InMemoryEventBus reemplaza a Kafka cuando el change feed vive en un solo
// proceso. Maneja un único topic.
type InMemoryEventBus struct {
	subscribers []chan sharedBus.Message
	mu          sync.RWMutex
	topic       string
}

var (
	_ sharedBus.EventBus   = (*InMemoryEventBus)(nil)
	_ sharedBus.Subscriber = (*InMemoryEventBus)(nil)
)

func NewInMemoryEventBus(topic string) *InMemoryEventBus {
	return &InMemoryEventBus{topic: topic}
}

func (b *InMemoryEventBus) Topic() string { return b.topic }

// Publish serializa el evento y lo reparte sin bloquear: un suscriptor con
// el buffer lleno pierde el mensaje.
func (b *InMemoryEventBus) Publish(ctx context.Context, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := sharedBus.Message{Payload: payload}
	if keyer, ok := event.(sharedBus.Keyer); ok {
		msg.Key = keyer.PartitionKey()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- msg:
		default:
		}
	}
	return nil
}

func (b *InMemoryEventBus) Subscribe(bufferSize int) <-chan sharedBus.Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan sharedBus.Message, bufferSize)
	b.subscribers = append(b.subscribers, ch)
	return ch
}

// Close cierra los canales de todos los suscriptores.
func (b *InMemoryEventBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subscribers {
		close(ch)
	}
	b.subscribers = nil
}

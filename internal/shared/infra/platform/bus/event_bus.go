package bus

import "context"

type Keyer interface {
	PartitionKey() string
}

// EventBus publica eventos ya construidos; el topic y la codificación los
// decide cada adapter.
type EventBus interface {
	Publish(ctx context.Context, event interface{}) error
}

// Message es un evento tal como llega al consumidor.
type Message struct {
	Key     string
	Payload []byte
}

// Subscriber entrega los mensajes publicados en un canal propio.
type Subscriber interface {
	Subscribe(bufferSize int) <-chan Message
}

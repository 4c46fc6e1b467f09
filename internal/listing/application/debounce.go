package application

import (
	"sync"
	"time"

	"github.com/romdo/go-debounce"
)

// Debouncer entrega el último valor recibido después de wait sin cambios.
// Con wait 0 entrega en el mismo Set.
type Debouncer[T any] struct {
	// delivering serializa las entregas: un flush del timer no puede entregar
	// un valor viejo después de uno más nuevo.
	delivering sync.Mutex

	mu      sync.Mutex
	pending T
	has     bool
	last    T
	deliver func(T)

	trigger func()
	cancel  func()
}

func NewDebouncer[T any](wait time.Duration, deliver func(T)) *Debouncer[T] {
	d := &Debouncer[T]{deliver: deliver}
	if wait > 0 {
		d.trigger, d.cancel = debounce.New(wait, d.flush)
	}
	return d
}

func (d *Debouncer[T]) Set(v T) {
	d.mu.Lock()
	d.pending = v
	d.has = true
	d.mu.Unlock()

	if d.trigger == nil {
		d.flush()
		return
	}
	d.trigger()
}

// Flush entrega ya el valor pendiente, si hay uno.
func (d *Debouncer[T]) Flush() {
	if d.cancel != nil {
		d.cancel()
	}
	d.flush()
}

// Value es el último valor entregado.
func (d *Debouncer[T]) Value() T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

// Stop descarta el valor pendiente.
func (d *Debouncer[T]) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
	d.mu.Lock()
	d.has = false
	d.mu.Unlock()
}

func (d *Debouncer[T]) flush() {
	d.delivering.Lock()
	defer d.delivering.Unlock()

	d.mu.Lock()
	if !d.has {
		d.mu.Unlock()
		return
	}
	v := d.pending
	d.has = false
	d.last = v
	d.mu.Unlock()

	d.deliver(v)
}

package application

import (
	"time"

	"go.uber.org/zap"

	"github.com/davicafu/backoffice/internal/listing/domain"
)

// Las mutaciones optimistas solo tocan la entrada de la clave actual y no
// descargan nada. Sin entrada, o si el id no está cargado (update y delete),
// no hacen nada y devuelven false.

// AddItem inserta rec al principio de la primera página.
func (c *Controller) AddItem(rec domain.Record) bool {
	return c.mutate(domain.Mutation{Kind: domain.MutationAdd, Record: rec}, false)
}

// AddItemIfAbsent es AddItem salvo que el id ya esté en la lista. Lo usa el
// change feed, que puede entregar un alta que ya aplicamos localmente.
func (c *Controller) AddItemIfAbsent(rec domain.Record) bool {
	return c.mutate(domain.Mutation{Kind: domain.MutationAdd, Record: rec}, true)
}

// UpdateItem reemplaza en su lugar el registro con el mismo id.
func (c *Controller) UpdateItem(rec domain.Record) bool {
	return c.mutate(domain.Mutation{Kind: domain.MutationUpdate, Record: rec}, false)
}

// DeleteItem quita el id de todas las páginas; las páginas quedan aunque
// queden vacías.
func (c *Controller) DeleteItem(id string) bool {
	return c.mutate(domain.Mutation{Kind: domain.MutationDelete, ID: id}, false)
}

func (c *Controller) mutate(m domain.Mutation, skipPresent bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.key.String()
	entry, ok := c.store.Get(id)
	if !ok {
		return false
	}

	switch m.Kind {
	case domain.MutationAdd:
		if skipPresent && domain.ContainsItem(entry.Pages, m.Record.ID()) {
			return false
		}
		entry.Pages = domain.PrependItem(entry.Pages, m.Record)
	case domain.MutationUpdate, domain.MutationDelete:
		target := m.ID
		if m.Kind == domain.MutationUpdate {
			target = m.Record.ID()
		}
		if !domain.ContainsItem(entry.Pages, target) {
			// la lista no cambia, pero una descarga en vuelo puede traer el id
			st := c.state(id)
			st.record(m)
			c.release(id)
			return false
		}
		if m.Kind == domain.MutationUpdate {
			entry.Pages = domain.ReplaceItem(entry.Pages, m.Record)
		} else {
			entry.Pages = domain.RemoveItem(entry.Pages, m.ID)
		}
	}
	entry.Mutations++
	entry.UpdatedAt = time.Now().UTC()

	st := c.state(id)
	st.record(m)
	c.release(id)

	c.store.Set(id, entry)
	c.log.Debug("optimistic mutation",
		zap.String("key", id),
		zap.Int("kind", int(m.Kind)),
		zap.Uint64("mutations", entry.Mutations),
	)
	return true
}

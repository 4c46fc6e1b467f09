package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davicafu/backoffice/internal/listing/domain"
	"github.com/davicafu/backoffice/internal/mocks"
)

type fakeList struct {
	n     int
	more  bool
	busy  bool
	loads int
}

func (l *fakeList) Len() int                           { return l.n }
func (l *fakeList) HasMore() bool                      { return l.more }
func (l *fakeList) Busy() bool                         { return l.busy }
func (l *fakeList) LoadMore(ctx context.Context) error { l.loads++; return nil }

func TestSentinel_Index(t *testing.T) {
	l := &fakeList{n: 30}
	s := NewSentinel(10, l)
	assert.Equal(t, 20, s.Index())
	assert.True(t, s.IsSentinel(20))
	assert.False(t, s.IsSentinel(29))

	l.n = 3
	assert.Equal(t, 0, s.Index())

	l.n = 0
	assert.False(t, s.IsSentinel(0))

	assert.Equal(t, 5, NewSentinel(25, &fakeList{n: 30}).Index())
	assert.Equal(t, 20, NewSentinel(0, &fakeList{n: 30}).Index())
}

func TestSentinel_TriggersOncePerTransition(t *testing.T) {
	ctx := context.Background()
	l := &fakeList{n: 30, more: true}
	s := NewSentinel(10, l)

	fired, err := s.Observe(ctx, 20, true)
	require.NoError(t, err)
	assert.True(t, fired)

	fired, _ = s.Observe(ctx, 20, true)
	assert.False(t, fired)
	assert.Equal(t, 1, l.loads)

	s.Observe(ctx, 20, false)
	fired, _ = s.Observe(ctx, 20, true)
	assert.True(t, fired)
	assert.Equal(t, 2, l.loads)

	// otra fila no cuenta
	fired, _ = s.Observe(ctx, 5, true)
	assert.False(t, fired)
}

func TestSentinel_RespectsBusyAndExhausted(t *testing.T) {
	ctx := context.Background()
	l := &fakeList{n: 30, more: true, busy: true}
	s := NewSentinel(10, l)

	fired, _ := s.Observe(ctx, 20, true)
	assert.False(t, fired)

	// sigue visible: sin transición no se vuelve a pedir
	l.busy = false
	fired, _ = s.Observe(ctx, 20, true)
	assert.False(t, fired)

	l.more = false
	s.Observe(ctx, 20, false)
	fired, _ = s.Observe(ctx, 20, true)
	assert.False(t, fired)
	assert.Zero(t, l.loads)
}

func TestSentinel_DrivesController(t *testing.T) {
	f := &mocks.FakeFetcher{Respond: mocks.Paged(30, 10)}
	c := newTestController(t, "documentos", f, Options{})
	ctx := context.Background()
	require.NoError(t, c.Load(ctx))

	// primera página corta: la fila 0 es el sentinel
	assert.Equal(t, 0, c.SentinelIndex())
	fired, err := c.Observe(ctx, 0, true)
	require.NoError(t, err)
	assert.True(t, fired)
	assert.Len(t, c.Items(), 20)

	// la lista creció, la fila 0 ya no es el sentinel
	fired, _ = c.Observe(ctx, 0, true)
	assert.False(t, fired)

	assert.Equal(t, 10, c.SentinelIndex())
	fired, _ = c.Observe(ctx, 10, true)
	assert.True(t, fired)
	assert.Equal(t, domain.StateExhausted, c.State())

	fired, _ = c.Observe(ctx, 20, true)
	assert.False(t, fired)
	assert.Len(t, f.Calls(), 3)
}

func TestSentinel_RegistrosOffset(t *testing.T) {
	f := &mocks.FakeFetcher{Respond: mocks.Paged(100, 30)}
	c := newTestController(t, "registros", f, Options{})
	require.NoError(t, c.Load(context.Background()))
	assert.Equal(t, 5, c.SentinelIndex())
}

package presence

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeConn struct {
	id   string
	full bool

	mu  sync.Mutex
	got []Event
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(ev Event) bool {
	if c.full {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, ev)
	return true
}

func (c *fakeConn) events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.got...)
}

func TestDeliver(t *testing.T) {
	r := NewRegistry()
	a1 := &fakeConn{id: "a1"}
	a2 := &fakeConn{id: "a2"}
	b := &fakeConn{id: "b"}

	r.Join(1, a1)
	r.Join(1, a2)
	r.Join(2, b)

	assert.Equal(t, 2, r.Deliver(1, Event{Name: "ping"}))
	assert.Len(t, a1.events(), 1)
	assert.Len(t, a2.events(), 1)
	assert.Empty(t, b.events())

	assert.Zero(t, r.Deliver(42, Event{Name: "ping"}))
	assert.False(t, r.Online(42))
}

func TestDeliverSkipsFullConnections(t *testing.T) {
	r := NewRegistry()
	r.Join(1, &fakeConn{id: "ok"})
	r.Join(1, &fakeConn{id: "slow", full: true})

	assert.Equal(t, 1, r.Deliver(1, Event{Name: "x"}))
}

func TestJoinLeave(t *testing.T) {
	r := NewRegistry()
	c := &fakeConn{id: "c"}

	r.Leave(c)
	assert.Zero(t, r.Count())

	r.Join(1, c)
	assert.True(t, r.Online(1))
	uid, ok := r.UserOf(c)
	require.True(t, ok)
	assert.Equal(t, int64(1), uid)

	// Rejoining as another user moves the connection.
	r.Join(2, c)
	assert.False(t, r.Online(1))
	assert.Equal(t, 1, r.Connections(2))
	assert.Equal(t, 1, r.Count())

	r.Leave(c)
	assert.False(t, r.Online(2))
	assert.Zero(t, r.Count())
	_, ok = r.UserOf(c)
	assert.False(t, ok)
}

func TestConcurrentUse(t *testing.T) {
	r := NewRegistry()

	var g errgroup.Group
	for i := 0; i < 50; i++ {
		g.Go(func() error {
			c := &fakeConn{id: fmt.Sprintf("c%d", i)}
			user := int64(i % 5)
			r.Join(user, c)
			r.Deliver(user, Event{Name: "tick"})
			r.Online(user)
			r.Leave(c)
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Zero(t, r.Count())
}

// Package bus carries live events from the node that produced them to the
// node holding the recipient's connections.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/Alijeyrad/internhub_backend/internal/presence"
)

// Local delivers straight into this node's registry. Used when NATS is
// disabled and the process is the only relay node.
type Local struct {
	reg *presence.Registry
}

func NewLocal(reg *presence.Registry) *Local {
	return &Local{reg: reg}
}

func (l *Local) Publish(_ context.Context, userID int64, ev presence.Event) error {
	l.reg.Deliver(userID, ev)
	return nil
}

// NATS publishes every event on <prefix>.user.<id>; each node subscribes to
// the wildcard and delivers to the connections it holds.
type NATS struct {
	nc     *nats.Conn
	reg    *presence.Registry
	prefix string

	mu  sync.Mutex
	sub *nats.Subscription
}

func NewNATS(nc *nats.Conn, reg *presence.Registry, prefix string) *NATS {
	if prefix == "" {
		prefix = "internhub"
	}
	return &NATS{nc: nc, reg: reg, prefix: prefix}
}

func (b *NATS) Subject(userID int64) string {
	return b.prefix + ".user." + strconv.FormatInt(userID, 10)
}

func (b *NATS) Publish(_ context.Context, userID int64, ev presence.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event %q: %w", ev.Name, err)
	}
	if err := b.nc.Publish(b.Subject(userID), data); err != nil {
		return fmt.Errorf("publish %s: %w", b.Subject(userID), err)
	}
	return nil
}

// Start subscribes this node to the fan-out subject.
func (b *NATS) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sub != nil {
		return nil
	}

	sub, err := b.nc.Subscribe(b.prefix+".user.*", b.handle)
	if err != nil {
		return fmt.Errorf("subscribe %s.user.*: %w", b.prefix, err)
	}
	b.sub = sub
	slog.Info("relay_fanout: started", "subject", sub.Subject)
	return nil
}

func (b *NATS) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sub == nil {
		return nil
	}
	err := b.sub.Unsubscribe()
	b.sub = nil
	return err
}

type wireEvent struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data"`
}

func (b *NATS) handle(msg *nats.Msg) {
	idx := strings.LastIndexByte(msg.Subject, '.')
	if idx < 0 {
		return
	}
	userID, err := strconv.ParseInt(msg.Subject[idx+1:], 10, 64)
	if err != nil {
		slog.Warn("relay_fanout: bad subject", "subject", msg.Subject)
		return
	}

	var w wireEvent
	if err := json.Unmarshal(msg.Data, &w); err != nil {
		slog.Warn("relay_fanout: bad payload", "subject", msg.Subject, "err", err)
		return
	}

	ev := presence.Event{Name: w.Name}
	if len(w.Data) > 0 && string(w.Data) != "null" {
		ev.Data = w.Data
	}
	b.reg.Deliver(userID, ev)
}

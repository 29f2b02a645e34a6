// Package presence tracks which live connections belong to which user on
// this node and fans events out to them.
package presence

import (
	"sync"
)

// Event is one frame on the live channel.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data,omitempty"`
}

// Conn is a live connection owned by the transport. Send must not block; it
// reports false when the event could not be queued.
type Conn interface {
	ID() string
	Send(Event) bool
}

type Registry struct {
	mu     sync.RWMutex
	byUser map[int64]map[string]Conn
	byConn map[string]int64
}

func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[int64]map[string]Conn),
		byConn: make(map[string]int64),
	}
}

// Join binds c to userID. A connection that already joined as another user
// is moved.
func (r *Registry) Join(userID int64, c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.byConn[c.ID()]; ok && prev != userID {
		r.removeLocked(prev, c.ID())
	}
	conns := r.byUser[userID]
	if conns == nil {
		conns = make(map[string]Conn)
		r.byUser[userID] = conns
	}
	conns[c.ID()] = c
	r.byConn[c.ID()] = userID
}

// Leave unbinds c. It is a no-op for connections that never joined.
func (r *Registry) Leave(c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if userID, ok := r.byConn[c.ID()]; ok {
		r.removeLocked(userID, c.ID())
	}
}

func (r *Registry) removeLocked(userID int64, connID string) {
	delete(r.byConn, connID)
	if conns := r.byUser[userID]; conns != nil {
		delete(conns, connID)
		if len(conns) == 0 {
			delete(r.byUser, userID)
		}
	}
}

// Deliver sends ev to every connection of userID and returns how many
// accepted it. Offline users get nothing; there is no queueing.
func (r *Registry) Deliver(userID int64, ev Event) int {
	r.mu.RLock()
	targets := make([]Conn, 0, len(r.byUser[userID]))
	for _, c := range r.byUser[userID] {
		targets = append(targets, c)
	}
	r.mu.RUnlock()

	n := 0
	for _, c := range targets {
		if c.Send(ev) {
			n++
		}
	}
	return n
}

func (r *Registry) Online(userID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID]) > 0
}

// Connections returns how many live connections userID has on this node.
func (r *Registry) Connections(userID int64) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID])
}

// UserOf returns the user c joined as.
func (r *Registry) UserOf(c Conn) (int64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byConn[c.ID()]
	return id, ok
}

// Count returns the number of joined connections across all users.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byConn)
}

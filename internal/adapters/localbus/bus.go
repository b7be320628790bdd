// Package localbus is an in-process SessionNotifier. It serves single-instance
// deployments and tests, and provides the local fan-out behind the Redis notifier.
package localbus

import (
	"context"
	"errors"
	"sync"

	domainauth "github.com/besf/portal/internal/domain/auth"
	"github.com/besf/portal/internal/ports"
)

// ErrClosed is returned by Publish and Subscribe after Close.
var ErrClosed = errors.New("session bus closed")

type handler func(domainauth.SessionChange)

// Bus delivers session changes to the subscribers of the change's client.
// Handlers run synchronously on the publishing goroutine, in subscription order.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string]map[uint64]handler
	order  map[string][]uint64
	nextID uint64
	closed bool
}

var _ ports.SessionNotifier = (*Bus)(nil)

// New creates an empty Bus.
func New() *Bus {
	return &Bus{
		subs:  make(map[string]map[uint64]handler),
		order: make(map[string][]uint64),
	}
}

// Publish delivers change to the subscribers of change.ClientID.
func (b *Bus) Publish(_ context.Context, change domainauth.SessionChange) error {
	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return ErrClosed
	}
	b.Deliver(change)
	return nil
}

// Deliver runs the handlers registered for change.ClientID. It returns the number of
// handlers invoked.
func (b *Bus) Deliver(change domainauth.SessionChange) int {
	b.mu.RLock()
	ids := b.order[change.ClientID]
	fns := make([]handler, 0, len(ids))
	for _, id := range ids {
		if fn, ok := b.subs[change.ClientID][id]; ok {
			fns = append(fns, fn)
		}
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(change)
	}
	return len(fns)
}

// Subscribe registers fn for the changes of clientID.
func (b *Bus) Subscribe(clientID string, fn func(domainauth.SessionChange)) (ports.Subscription, error) {
	if clientID == "" {
		return nil, errors.New("client id is required")
	}
	if fn == nil {
		return nil, errors.New("handler is required")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	b.nextID++
	id := b.nextID
	if b.subs[clientID] == nil {
		b.subs[clientID] = make(map[uint64]handler)
	}
	b.subs[clientID][id] = fn
	b.order[clientID] = append(b.order[clientID], id)
	return &subscription{bus: b, clientID: clientID, id: id}, nil
}

// Subscribers reports how many handlers are registered for clientID.
func (b *Bus) Subscribers(clientID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[clientID])
}

// Close drops every subscription. Later Publish and Subscribe calls fail.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = make(map[string]map[uint64]handler)
	b.order = make(map[string][]uint64)
	return nil
}

func (b *Bus) remove(clientID string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	set, ok := b.subs[clientID]
	if !ok {
		return
	}
	delete(set, id)
	ids := b.order[clientID]
	for i, v := range ids {
		if v == id {
			b.order[clientID] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if len(set) == 0 {
		delete(b.subs, clientID)
		delete(b.order, clientID)
	}
}

type subscription struct {
	bus      *Bus
	clientID string
	id       uint64
	once     sync.Once
}

// Unsubscribe is idempotent.
func (s *subscription) Unsubscribe() error {
	s.once.Do(func() { s.bus.remove(s.clientID, s.id) })
	return nil
}

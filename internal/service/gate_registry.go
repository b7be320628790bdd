package service

import (
	"container/list"
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/besf/portal/internal/observability/statsd"
)

var (
	// ErrRegistryClosed is returned by Acquire after Close.
	ErrRegistryClosed = errors.New("gate registry closed")
	errEmptyClientID  = errors.New("client ID is required")
)

// GateRegistryOptions groups constructor options for NewGateRegistry.
type GateRegistryOptions struct {
	Capacity int
	// IdleTTL closes Gates not acquired for this long. Zero disables idle expiry.
	IdleTTL time.Duration
	// NewGate builds an inactive Gate for a client.
	NewGate func(clientID string) *Gate
	Logger  *slog.Logger
	Metrics statsd.Sink
	Now     func() time.Time
}

// GateRegistry holds one Gate per browser client in a bounded LRU with idle expiry.
// Gates that fall out of the registry are closed. Safe for concurrent use.
type GateRegistry struct {
	mu     sync.Mutex
	cap    int
	idle   time.Duration
	ll     *list.List // front = most recently acquired
	items  map[string]*list.Element
	build  func(clientID string) *Gate
	now    func() time.Time
	closed bool

	logger  *slog.Logger
	metrics statsd.Sink

	hits   atomic.Uint64
	misses atomic.Uint64
	evicts atomic.Uint64
}

type gateEntry struct {
	clientID string
	gate     *Gate
	lastUsed time.Time
}

// NewGateRegistry constructs a registry. Capacity defaults to 10000.
func NewGateRegistry(opts GateRegistryOptions) *GateRegistry {
	capacity := opts.Capacity
	if capacity <= 0 {
		capacity = 10000
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = statsd.Nop{}
	}
	return &GateRegistry{
		cap:     capacity,
		idle:    opts.IdleTTL,
		ll:      list.New(),
		items:   make(map[string]*list.Element),
		build:   opts.NewGate,
		now:     now,
		logger:  logger.With("component", "gate_registry"),
		metrics: metrics,
	}
}

// Acquire returns the client's Gate, building and activating a new one on a miss.
// A Gate whose subscription could not be established is returned for the current
// request but not retained, so the next request tries again.
func (r *GateRegistry) Acquire(ctx context.Context, clientID string) (*Gate, error) {
	if clientID == "" {
		return nil, errEmptyClientID
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrRegistryClosed
	}
	var stale []*Gate
	if el, ok := r.items[clientID]; ok {
		ent := el.Value.(*gateEntry)
		if !r.expired(ent) {
			ent.lastUsed = r.now()
			r.ll.MoveToFront(el)
			r.mu.Unlock()
			r.hits.Add(1)
			return ent.gate, nil
		}
		r.remove(el)
		stale = append(stale, ent.gate)
	}
	r.misses.Add(1)
	g := r.build(clientID)
	el := r.ll.PushFront(&gateEntry{clientID: clientID, gate: g, lastUsed: r.now()})
	r.items[clientID] = el
	stale = append(stale, r.evictOverflow()...)
	size := r.ll.Len()
	r.mu.Unlock()

	r.closeAll(stale)
	r.metrics.Gauge("gate.registry.size", float64(size), nil)

	if err := g.Activate(ctx); err != nil {
		r.logger.WarnContext(ctx, "gate activation incomplete; not retaining", "client_id", clientID, "error", err)
		r.forget(clientID, g)
		if errors.Is(err, ErrGateClosed) {
			return nil, err
		}
	}
	return g, nil
}

// Forget drops and closes the client's Gate, if any.
func (r *GateRegistry) Forget(clientID string) {
	r.mu.Lock()
	el, ok := r.items[clientID]
	if !ok {
		r.mu.Unlock()
		return
	}
	r.remove(el)
	r.mu.Unlock()
	r.closeAll([]*Gate{el.Value.(*gateEntry).gate})
}

func (r *GateRegistry) forget(clientID string, g *Gate) {
	r.mu.Lock()
	if el, ok := r.items[clientID]; ok && el.Value.(*gateEntry).gate == g {
		r.remove(el)
	}
	r.mu.Unlock()
	r.closeAll([]*Gate{g})
}

// Sweep closes every Gate idle past IdleTTL and returns how many were removed.
func (r *GateRegistry) Sweep() int {
	r.mu.Lock()
	var stale []*Gate
	for el := r.ll.Back(); el != nil; {
		prev := el.Prev()
		ent := el.Value.(*gateEntry)
		if r.expired(ent) {
			r.remove(el)
			stale = append(stale, ent.gate)
		}
		el = prev
	}
	r.mu.Unlock()

	r.closeAll(stale)
	if n := len(stale); n > 0 {
		r.metrics.Count("gate.registry.expired", int64(n), nil)
	}
	return len(stale)
}

// RunJanitor sweeps every interval until ctx is done.
func (r *GateRegistry) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.DebugContext(ctx, "swept idle gates", "count", n)
			}
		}
	}
}

// Close closes every Gate and rejects later Acquire calls.
func (r *GateRegistry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	gates := make([]*Gate, 0, r.ll.Len())
	for el := r.ll.Front(); el != nil; el = el.Next() {
		gates = append(gates, el.Value.(*gateEntry).gate)
	}
	r.ll.Init()
	clear(r.items)
	r.mu.Unlock()

	var errs []error
	for _, g := range gates {
		if err := g.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of retained Gates.
func (r *GateRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ll.Len()
}

// GateRegistryStats are counters for observability.
type GateRegistryStats struct {
	Hits, Misses, Evictions uint64
	Size, Capacity          int
}

// Stats returns a snapshot of counters and sizes.
func (r *GateRegistry) Stats() GateRegistryStats {
	return GateRegistryStats{
		Hits:      r.hits.Load(),
		Misses:    r.misses.Load(),
		Evictions: r.evicts.Load(),
		Size:      r.Len(),
		Capacity:  r.cap,
	}
}

// Helpers below require r.mu.

func (r *GateRegistry) expired(e *gateEntry) bool {
	if r.idle <= 0 {
		return false
	}
	return r.now().Sub(e.lastUsed) >= r.idle
}

func (r *GateRegistry) remove(el *list.Element) {
	r.ll.Remove(el)
	delete(r.items, el.Value.(*gateEntry).clientID)
}

func (r *GateRegistry) evictOverflow() []*Gate {
	var out []*Gate
	for r.ll.Len() > r.cap {
		el := r.ll.Back()
		r.remove(el)
		out = append(out, el.Value.(*gateEntry).gate)
		r.evicts.Add(1)
	}
	return out
}

func (r *GateRegistry) closeAll(gates []*Gate) {
	for _, g := range gates {
		if err := g.Close(); err != nil {
			r.logger.Warn("close gate", "client_id", g.ClientID(), "error", err)
		}
	}
}

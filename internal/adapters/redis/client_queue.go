package redis

import (
	"log/slog"
	"sync"

	domainauth "github.com/besf/portal/internal/domain/auth"
)

const defaultQueueDepth = 32

// clientQueues delivers changes in arrival order per client, each client on its own
// goroutine. A subscriber that blocks delays only the changes of its own client.
// A worker exits once its queue drains.
type clientQueues struct {
	deliver func(domainauth.SessionChange)
	depth   int
	logger  *slog.Logger

	mu      sync.Mutex
	pending map[string][]domainauth.SessionChange
	wg      sync.WaitGroup
}

func newClientQueues(depth int, deliver func(domainauth.SessionChange), logger *slog.Logger) *clientQueues {
	if depth <= 0 {
		depth = defaultQueueDepth
	}
	return &clientQueues{
		deliver: deliver,
		depth:   depth,
		logger:  logger,
		pending: make(map[string][]domainauth.SessionChange),
	}
}

// enqueue never blocks. When a client's queue is full its oldest change is dropped;
// every change carries the complete session, so the newest one still decides the state.
func (q *clientQueues) enqueue(change domainauth.SessionChange) {
	q.mu.Lock()
	defer q.mu.Unlock()

	queue, running := q.pending[change.ClientID]
	if len(queue) >= q.depth {
		q.logger.Warn("session change queue full; dropping oldest",
			"client_id", change.ClientID, "dropped_kind", string(queue[0].Kind))
		queue = queue[1:]
	}
	q.pending[change.ClientID] = append(queue, change)
	if !running {
		q.wg.Add(1)
		go q.run(change.ClientID)
	}
}

func (q *clientQueues) run(clientID string) {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		queue := q.pending[clientID]
		if len(queue) == 0 {
			delete(q.pending, clientID)
			q.mu.Unlock()
			return
		}
		next := queue[0]
		q.pending[clientID] = queue[1:]
		q.mu.Unlock()

		q.deliver(next)
	}
}

// wait blocks until every queued change has been delivered.
func (q *clientQueues) wait() { q.wg.Wait() }

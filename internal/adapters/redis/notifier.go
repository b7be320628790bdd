package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/besf/portal/internal/adapters/localbus"
	domainauth "github.com/besf/portal/internal/domain/auth"
	"github.com/besf/portal/internal/ports"
)

const defaultChannelPrefix = "session-events:"

// NotifierOptions configures a Notifier.
type NotifierOptions struct {
	Client        redis.UniversalClient
	ChannelPrefix string // default "session-events:"
	// QueueDepth bounds the undelivered changes held per client. Default 32.
	QueueDepth int
	Logger     *slog.Logger
}

// Notifier publishes session changes on one Redis channel per client and fans
// received messages out to local subscribers, so a sign-out handled by one
// instance reaches the Gates held by every instance. Received changes are queued
// per client; a slow subscriber never holds up the changes of other clients.
type Notifier struct {
	client redis.UniversalClient
	prefix string
	logger *slog.Logger
	local  *localbus.Bus
	queues *clientQueues

	mu     sync.Mutex
	pubsub *redis.PubSub
	done   chan struct{}
}

var _ ports.SessionNotifier = (*Notifier)(nil)

// NewNotifier creates a Notifier. Call Start before expecting deliveries.
func NewNotifier(opts NotifierOptions) *Notifier {
	prefix := opts.ChannelPrefix
	if prefix == "" {
		prefix = defaultChannelPrefix
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "session_notifier")
	local := localbus.New()
	return &Notifier{
		client: opts.Client,
		prefix: prefix,
		logger: logger,
		local:  local,
		queues: newClientQueues(opts.QueueDepth, func(c domainauth.SessionChange) { local.Deliver(c) }, logger),
	}
}

// Start pattern-subscribes to every client channel and begins dispatching.
// It returns once Redis confirmed the subscription.
func (n *Notifier) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.pubsub != nil {
		return nil
	}
	ps := n.client.PSubscribe(ctx, n.prefix+"*")
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return fmt.Errorf("psubscribe %s*: %w", n.prefix, err)
	}
	n.pubsub = ps
	n.done = make(chan struct{})
	go n.dispatch(ps.Channel(), n.done)
	return nil
}

func (n *Notifier) dispatch(ch <-chan *redis.Message, done chan struct{}) {
	defer close(done)
	for msg := range ch {
		var change domainauth.SessionChange
		if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
			n.logger.Warn("drop malformed session change", "channel", msg.Channel, "error", err)
			continue
		}
		if change.ClientID == "" {
			change.ClientID = strings.TrimPrefix(msg.Channel, n.prefix)
		}
		n.queues.enqueue(change)
	}
}

// Publish announces change on the channel of change.ClientID.
func (n *Notifier) Publish(ctx context.Context, change domainauth.SessionChange) error {
	if change.ClientID == "" {
		return errors.New("session change without client id")
	}
	data, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal session change: %w", err)
	}
	if err := n.client.Publish(ctx, n.prefix+change.ClientID, data).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Subscribe registers fn for changes of clientID received from Redis.
func (n *Notifier) Subscribe(clientID string, fn func(domainauth.SessionChange)) (ports.Subscription, error) {
	return n.local.Subscribe(clientID, fn)
}

// Close stops dispatching and drops local subscribers.
func (n *Notifier) Close() error {
	n.mu.Lock()
	ps, done := n.pubsub, n.done
	n.pubsub = nil
	n.mu.Unlock()

	var err error
	if ps != nil {
		err = ps.Close()
		<-done
	}
	n.queues.wait()
	return errors.Join(err, n.local.Close())
}

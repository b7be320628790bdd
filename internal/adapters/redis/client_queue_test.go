package redis

import (
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	domainauth "github.com/besf/portal/internal/domain/auth"
)

func TestClientQueues_DropsOldestWhenFull(t *testing.T) {
	release := make(chan struct{})
	var (
		mu        sync.Mutex
		delivered []domainauth.ChangeKind
	)
	first := true
	q := newClientQueues(2, func(c domainauth.SessionChange) {
		if first {
			first = false
			<-release
		}
		mu.Lock()
		delivered = append(delivered, c.Kind)
		mu.Unlock()
	}, slog.New(slog.DiscardHandler))

	// The first change is taken by the worker, which then blocks; the other three
	// compete for two slots.
	q.enqueue(domainauth.SessionChange{ClientID: "c1", Kind: domainauth.ChangeSignedIn})
	assert.Eventually(t, func() bool {
		q.mu.Lock()
		defer q.mu.Unlock()
		return len(q.pending["c1"]) == 0
	}, time.Second, 5*time.Millisecond)
	q.enqueue(domainauth.SessionChange{ClientID: "c1", Kind: domainauth.ChangeTokenRefreshed})
	q.enqueue(domainauth.SessionChange{ClientID: "c1", Kind: domainauth.ChangeUserUpdated})
	q.enqueue(domainauth.SessionChange{ClientID: "c1", Kind: domainauth.ChangeSignedOut})

	close(release)
	q.wait()

	assert.Equal(t, []domainauth.ChangeKind{
		domainauth.ChangeSignedIn, domainauth.ChangeUserUpdated, domainauth.ChangeSignedOut,
	}, delivered)
	assert.Empty(t, q.pending, "drained queues are removed")
}

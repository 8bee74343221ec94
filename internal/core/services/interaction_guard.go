package services

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"tempvoice/internal/core/domain"
)

type activeFlow struct {
	id        string
	startedAt time.Time
	timer     *time.Timer
}

// InteractionGuard allows one in-flight interactive flow (modal, select menu)
// per user at a time. A flow that is never ended expires after the timeout so
// an abandoned modal cannot wedge the user. It also deduplicates component
// interactions by interaction id, since the gateway can deliver the same
// submission twice.
type InteractionGuard struct {
	timeout time.Duration

	mu    sync.Mutex
	flows map[domain.UserID]activeFlow
	seen  map[string]time.Time

	onExpire func(domain.UserID)
}

func NewInteractionGuard(timeout time.Duration) *InteractionGuard {
	return &InteractionGuard{
		timeout: timeout,
		flows:   make(map[domain.UserID]activeFlow),
		seen:    make(map[string]time.Time),
	}
}

// SetExpiryNotifier installs a callback invoked when a flow times out without
// being ended. Set it before the guard is in use.
func (g *InteractionGuard) SetExpiryNotifier(fn func(domain.UserID)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onExpire = fn
}

// Begin claims the user's flow slot, returning a token the caller hands back
// to End. Returns domain.ErrFlowActive while a live flow exists.
func (g *InteractionGuard) Begin(user domain.UserID) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if flow, ok := g.flows[user]; ok && time.Since(flow.startedAt) < g.timeout {
		return "", domain.ErrFlowActive
	}

	id := uuid.NewString()
	timer := time.AfterFunc(g.timeout, func() {
		g.expire(user, id)
	})
	g.flows[user] = activeFlow{id: id, startedAt: time.Now(), timer: timer}
	return id, nil
}

// End releases the slot. A stale token (from an expired flow that was
// replaced) is ignored.
func (g *InteractionGuard) End(user domain.UserID, flowID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if flow, ok := g.flows[user]; ok && flow.id == flowID {
		flow.timer.Stop()
		delete(g.flows, user)
	}
}

// expire cancels a timed-out flow and notifies the user.
func (g *InteractionGuard) expire(user domain.UserID, flowID string) {
	g.mu.Lock()
	flow, ok := g.flows[user]
	if !ok || flow.id != flowID {
		g.mu.Unlock()
		return
	}
	delete(g.flows, user)
	notify := g.onExpire
	g.mu.Unlock()

	if notify != nil {
		notify(user)
	}
}

// Once reports whether this interaction id is seen for the first time.
// Repeated deliveries of the same id within the guard's timeout return false.
func (g *InteractionGuard) Once(interactionID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if at, ok := g.seen[interactionID]; ok && time.Since(at) < g.timeout {
		return false
	}
	g.seen[interactionID] = time.Now()
	return true
}

// GC drops expired flow records and stale dedup entries. Flows normally
// expire through their own timer; this catches whatever is left behind.
func (g *InteractionGuard) GC() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	removed := 0
	for user, flow := range g.flows {
		if time.Since(flow.startedAt) >= g.timeout {
			flow.timer.Stop()
			delete(g.flows, user)
			removed++
		}
	}
	for id, at := range g.seen {
		if time.Since(at) >= g.timeout {
			delete(g.seen, id)
			removed++
		}
	}
	return removed
}

package relay

import (
	"sync"

	"go.uber.org/zap"

	"github.com/nostrforge/relay/internal/logger"
	"github.com/nostrforge/relay/internal/metrics"
	"github.com/nostrforge/relay/internal/nostr"
	"github.com/nostrforge/relay/internal/storage"
)

// Registry is the process-wide directory of live sessions and their
// subscriptions, and the fan-out point for newly accepted events. It is
// the only place that ties a session key to the filters it has asked
// for, so match dispatch never has to reach into a Session's internals.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*registryEntry
	store    *storage.Store
	log      *zap.Logger
}

type registryEntry struct {
	session *Session
	subs    map[string]nostr.Subscription
}

// NewRegistry builds a registry backed by store for the Publish path.
func NewRegistry(store *storage.Store) *Registry {
	return &Registry{
		sessions: make(map[string]*registryEntry),
		store:    store,
		log:      logger.New("registry"),
	}
}

// Register makes a session visible to Publish. Call once per session,
// before its receive loop starts reading frames.
func (r *Registry) Register(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.key] = &registryEntry{session: s, subs: make(map[string]nostr.Subscription)}
}

// Unregister removes a session and every subscription it held.
func (r *Registry) Unregister(sessionKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[sessionKey]; ok {
		metrics.ActiveSubscriptions.Sub(float64(len(e.subs)))
	}
	delete(r.sessions, sessionKey)
}

// AddSubscription records filters for (sessionKey, subID), replacing
// any previous filters registered under the same id.
func (r *Registry) AddSubscription(sessionKey, subID string, filters []nostr.Filter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sessionKey]
	if !ok {
		return
	}
	if _, existed := e.subs[subID]; !existed {
		metrics.ActiveSubscriptions.Inc()
	}
	e.subs[subID] = nostr.Subscription{ID: subID, Filters: filters}
}

// RemoveSubscription drops (sessionKey, subID). Removing an id that was
// never added, or was already removed, is a no-op.
func (r *Registry) RemoveSubscription(sessionKey, subID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sessionKey]
	if !ok {
		return
	}
	if _, existed := e.subs[subID]; existed {
		delete(e.subs, subID)
		metrics.ActiveSubscriptions.Dec()
	}
}

// Publish persists event and, only if the store reports it newly
// Added, fans it out to every (session, subscription) whose filters
// match it in a single snapshot of the registry taken at this moment.
// The originating session is not special-cased: if one of its own
// subscriptions matches, it receives the echo like anyone else.
func (r *Registry) Publish(event nostr.Event) (storage.PutResult, error) {
	result, err := r.store.Put(event)
	if err != nil {
		return result, err
	}
	if result != storage.Added {
		return result, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.sessions {
		for subID, sub := range e.subs {
			if sub.Matches(event) {
				e.session.deliver(subID, event)
			}
		}
	}
	return result, nil
}

// SessionCount reports the number of registered sessions, for metrics
// and health reporting.
func (r *Registry) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

package store

import (
	"container/list"
	"fmt"
	"sync"
	"time"

	"github.com/Jampi276/pymescore-ai/internal/rag/pipeline"
	"github.com/Jampi276/pymescore-ai/pkg/logger"
)

// SessionRegistry keeps live chat sessions in memory with a bounded
// footprint: when the cap is exceeded the least-recently-used session is
// evicted, and sessions idle beyond the TTL are swept on every insert.
type SessionRegistry struct {
	mu          sync.Mutex
	sessions    map[string]*list.Element
	order       *list.List // front = most recently used
	maxSessions int
	idleTTL     time.Duration
	log         *logger.Logger
}

type registryEntry struct {
	id      string
	session *pipeline.Session
}

// NewSessionRegistry creates a registry with the given cap and idle TTL.
func NewSessionRegistry(maxSessions int, idleTTL time.Duration, log *logger.Logger) *SessionRegistry {
	if maxSessions <= 0 {
		maxSessions = 256
	}
	return &SessionRegistry{
		sessions:    make(map[string]*list.Element),
		order:       list.New(),
		maxSessions: maxSessions,
		idleTTL:     idleTTL,
		log:         log,
	}
}

// Get returns the session for the ID, marking it as recently used.
func (r *SessionRegistry) Get(id string) (*pipeline.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	elem, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	r.order.MoveToFront(elem)
	return elem.Value.(*registryEntry).session, true
}

// Put registers a session under the ID, evicting stale and excess sessions.
func (r *SessionRegistry) Put(id string, session *pipeline.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if elem, ok := r.sessions[id]; ok {
		elem.Value.(*registryEntry).session = session
		r.order.MoveToFront(elem)
		return
	}

	r.sessions[id] = r.order.PushFront(&registryEntry{id: id, session: session})
	r.sweepLocked()
	for len(r.sessions) > r.maxSessions {
		r.evictLocked(r.order.Back())
	}
}

// Delete removes the session for the ID if present.
func (r *SessionRegistry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if elem, ok := r.sessions[id]; ok {
		r.evictLocked(elem)
	}
}

// Len reports the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// sweepLocked evicts sessions idle beyond the TTL. Callers hold the mutex.
func (r *SessionRegistry) sweepLocked() {
	if r.idleTTL <= 0 {
		return
	}
	cutoff := time.Now().Add(-r.idleTTL)
	for elem := r.order.Back(); elem != nil; {
		prev := elem.Prev()
		if elem.Value.(*registryEntry).session.LastActive().Before(cutoff) {
			r.evictLocked(elem)
		}
		elem = prev
	}
}

func (r *SessionRegistry) evictLocked(elem *list.Element) {
	if elem == nil {
		return
	}
	entry := elem.Value.(*registryEntry)
	r.order.Remove(elem)
	delete(r.sessions, entry.id)
	r.log.Info(fmt.Sprintf("chat session %s evicted from registry", entry.id))
}

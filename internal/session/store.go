package session

import (
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dgellow/invite-front/internal/log"
)

const (
	// DefaultTTL is how long idle sessions remain alive.
	DefaultTTL = 30 * time.Minute

	// DefaultCleanupInterval is how often to sweep for expired sessions.
	DefaultCleanupInterval = 5 * time.Minute

	// DefaultMaxSessions caps concurrent sessions in memory.
	DefaultMaxSessions = 1000
)

// ErrStoreFull is returned when the session cap is reached.
var ErrStoreFull = errors.New("session store is full")

// Store holds live sessions in memory, keyed by opaque ID. A background
// sweeper reclaims sessions idle past the TTL.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	ttl             time.Duration
	cleanupInterval time.Duration
	maxSessions     int

	stopCleanup chan struct{}
	wg          sync.WaitGroup
	group       singleflight.Group // Deduplicates concurrent session creation
}

// StoreOption configures the store.
type StoreOption func(*Store)

// WithTTL sets the idle expiry for sessions.
func WithTTL(ttl time.Duration) StoreOption {
	return func(st *Store) {
		st.ttl = ttl
	}
}

// WithCleanupInterval sets how often the sweeper runs.
func WithCleanupInterval(interval time.Duration) StoreOption {
	return func(st *Store) {
		st.cleanupInterval = interval
	}
}

// WithMaxSessions caps the number of live sessions. Zero means unlimited.
func WithMaxSessions(max int) StoreOption {
	return func(st *Store) {
		st.maxSessions = max
	}
}

// NewStore creates a session store and starts its sweeper goroutine.
func NewStore(opts ...StoreOption) *Store {
	st := &Store{
		sessions:        make(map[string]*Session),
		ttl:             DefaultTTL,
		cleanupInterval: DefaultCleanupInterval,
		maxSessions:     DefaultMaxSessions,
		stopCleanup:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(st)
	}

	st.wg.Add(1)
	go st.startCleanupRoutine()

	return st
}

// GetOrCreate returns the session for id, creating it if needed. singleflight
// ensures concurrent first requests with the same cookie mint exactly one
// session.
func (st *Store) GetOrCreate(id string) (*Session, error) {
	v, err, _ := st.group.Do(id, func() (any, error) {
		st.mu.RLock()
		sess, ok := st.sessions[id]
		st.mu.RUnlock()

		if ok {
			sess.touch()
			return sess, nil
		}

		st.mu.Lock()
		defer st.mu.Unlock()

		if st.maxSessions > 0 && len(st.sessions) >= st.maxSessions {
			log.LogWarnWithFields("session", "Session store full", map[string]any{
				"limit": st.maxSessions,
			})
			return nil, ErrStoreFull
		}

		sess = newSession(id)
		st.sessions[id] = sess

		log.LogDebugWithFields("session", "Created session", map[string]any{
			"sessionID": id,
			"total":     len(st.sessions),
		})
		return sess, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

// Get retrieves an existing session without creating one.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	sess, ok := st.sessions[id]
	st.mu.RUnlock()

	if ok {
		sess.touch()
	}
	return sess, ok
}

// Remove drops a session.
func (st *Store) Remove(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// Len reports how many sessions are live.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Shutdown stops the sweeper and drops all sessions.
func (st *Store) Shutdown() {
	close(st.stopCleanup)
	st.wg.Wait()

	st.mu.Lock()
	st.sessions = make(map[string]*Session)
	st.mu.Unlock()
}

func (st *Store) startCleanupRoutine() {
	defer st.wg.Done()

	ticker := time.NewTicker(st.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			st.cleanupExpired()
		case <-st.stopCleanup:
			return
		}
	}
}

func (st *Store) cleanupExpired() {
	now := time.Now()

	st.mu.RLock()
	expired := make([]string, 0)
	for id, sess := range st.sessions {
		lastAccessed := sess.lastAccessed.Load()
		if lastAccessed != nil && now.Sub(*lastAccessed) > st.ttl {
			expired = append(expired, id)
		}
	}
	remaining := len(st.sessions) - len(expired)
	st.mu.RUnlock()

	if len(expired) == 0 {
		return
	}

	st.mu.Lock()
	for _, id := range expired {
		delete(st.sessions, id)
	}
	st.mu.Unlock()

	log.LogInfoWithFields("session", "Reclaimed expired sessions", map[string]any{
		"expired":   len(expired),
		"remaining": remaining,
		"ttl":       st.ttl.String(),
	})
}

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/lshigami/voicequiz/internal/model"
)

var (
	// ErrSessionNotFound covers both unknown ids and entries that were
	// evicted before lookup.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired is returned when the entry existed but was past its
	// TTL at access time; the entry is evicted as a side effect.
	ErrSessionExpired = errors.New("session expired")
	// ErrSessionBusy is returned when the per-session mutation permit could
	// not be acquired within the bounded wait.
	ErrSessionBusy = errors.New("session busy")
)

// SessionStore is a concurrency-safe, TTL-bounded table of sessions with
// per-id mutation serialization.
type SessionStore interface {
	Get(id string) (*model.Session, error)
	Put(session *model.Session)
	Delete(id string)
	// WithLock runs fn while holding the session's exclusive mutation permit.
	// fn receives a private copy; if fn returns nil the copy is published
	// atomically for subsequent Get calls. Two concurrent WithLock calls for
	// the same id never interleave; calls for different ids never block each
	// other.
	WithLock(ctx context.Context, id string, fn func(s *model.Session) error) (*model.Session, error)
	Len() int
}

type entry struct {
	permit *semaphore.Weighted

	mu   sync.Mutex
	sess *model.Session
}

// MemoryStore holds sessions in process memory. Expiry is checked lazily on
// every access; the background sweep only reclaims memory earlier.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*entry

	lockWait time.Duration
	sliding  bool

	stopSweep chan struct{}
	sweepOnce sync.Once
	now       func() time.Time
}

type Options struct {
	// LockWait bounds how long WithLock waits for a busy session before
	// failing with ErrSessionBusy.
	LockWait time.Duration
	// Sliding extends ExpiresAt on every successful mutation so active
	// sessions are not cut off mid-quiz.
	Sliding bool
}

func NewMemoryStore(opts Options) *MemoryStore {
	if opts.LockWait <= 0 {
		opts.LockWait = 2 * time.Second
	}
	return &MemoryStore{
		entries:   make(map[string]*entry),
		lockWait:  opts.LockWait,
		sliding:   opts.Sliding,
		stopSweep: make(chan struct{}),
		now:       time.Now,
	}
}

func (st *MemoryStore) Put(session *model.Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	e, ok := st.entries[session.ID]
	if !ok {
		e = &entry{permit: semaphore.NewWeighted(1)}
		st.entries[session.ID] = e
	}
	e.mu.Lock()
	e.sess = session.Clone()
	e.mu.Unlock()
}

func (st *MemoryStore) Get(id string) (*model.Session, error) {
	e, err := st.lookup(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	sess := e.sess
	e.mu.Unlock()
	if sess.Expired(st.now()) {
		st.evict(id)
		return nil, ErrSessionExpired
	}
	return sess.Clone(), nil
}

func (st *MemoryStore) Delete(id string) {
	st.mu.Lock()
	delete(st.entries, id)
	st.mu.Unlock()
}

func (st *MemoryStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.entries)
}

func (st *MemoryStore) WithLock(ctx context.Context, id string, fn func(s *model.Session) error) (*model.Session, error) {
	e, err := st.lookup(id)
	if err != nil {
		return nil, err
	}

	acquireCtx, cancel := context.WithTimeout(ctx, st.lockWait)
	defer cancel()
	if err := e.permit.Acquire(acquireCtx, 1); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ErrSessionBusy
	}
	defer e.permit.Release(1)

	// Re-check under the permit: the session may have expired or been
	// replaced while we waited.
	e.mu.Lock()
	sess := e.sess
	e.mu.Unlock()
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	if sess.Expired(st.now()) {
		st.evict(id)
		return nil, ErrSessionExpired
	}

	working := sess.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}

	now := st.now()
	working.UpdatedAt = now
	if st.sliding && working.TTL > 0 {
		working.ExpiresAt = now.Add(working.TTL)
	}

	e.mu.Lock()
	e.sess = working
	e.mu.Unlock()
	return working.Clone(), nil
}

func (st *MemoryStore) lookup(id string) (*entry, error) {
	st.mu.RLock()
	e, ok := st.entries[id]
	st.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return e, nil
}

func (st *MemoryStore) evict(id string) {
	st.mu.Lock()
	delete(st.entries, id)
	st.mu.Unlock()
}

// StartSweeper launches the background cleanup loop. Lazy expiry on access is
// the correctness baseline; the sweep just keeps the map from accumulating
// abandoned sessions.
func (st *MemoryStore) StartSweeper(interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := st.sweep(); n > 0 {
					log.Info().Int("count", n).Msg("Swept expired sessions")
				}
			case <-st.stopSweep:
				return
			}
		}
	}()
}

func (st *MemoryStore) StopSweeper() {
	st.sweepOnce.Do(func() { close(st.stopSweep) })
}

func (st *MemoryStore) sweep() int {
	now := st.now()
	st.mu.Lock()
	defer st.mu.Unlock()
	var removed int
	for id, e := range st.entries {
		e.mu.Lock()
		expired := e.sess == nil || e.sess.Expired(now)
		e.mu.Unlock()
		if expired {
			delete(st.entries, id)
			removed++
		}
	}
	return removed
}

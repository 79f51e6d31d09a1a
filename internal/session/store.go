package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/zulandar/segdash/internal/logger"
)

// Store is the single source of truth for "who is signed in". Reads are
// served from an immutable snapshot; writes persist first and then swap the
// snapshot under the lock, so no reader ever observes a partial session.
type Store struct {
	backend Backend
	log     *zap.Logger

	mu       sync.RWMutex
	current  Session
	revision uint64

	subMu   sync.Mutex
	subs    map[int]chan Change
	nextSub int
}

// Open creates a Store and loads the persisted session. A partially
// persisted session is cleared.
func Open(backend Backend, log *zap.Logger) (*Store, error) {
	if backend == nil {
		return nil, fmt.Errorf("session: backend is required")
	}
	s := &Store{
		backend: backend,
		log:     logger.OrNop(log).Named("session"),
		subs:    make(map[int]chan Change),
	}
	sess, rev, err := backend.Load()
	if err != nil {
		return nil, err
	}
	if !sess.Authenticated() && !sess.Empty() {
		s.log.Warn("discarding partially persisted session")
		if rev, err = backend.Clear(); err != nil {
			return nil, err
		}
		sess = Session{}
	}
	s.current = sess
	s.revision = rev
	return s, nil
}

// Current returns a copy of the session snapshot.
func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// AccessToken returns the access token, or "" when anonymous.
func (s *Store) AccessToken() string {
	return s.Current().AccessToken
}

// IsAuthenticated reports whether an access token is present.
func (s *Store) IsAuthenticated() bool {
	return s.Current().AccessToken != ""
}

// Token returns the session as an oauth2 bearer token, or nil when anonymous.
func (s *Store) Token() *oauth2.Token {
	return s.Current().Token()
}

// Set stores a complete session after a successful login.
func (s *Store) Set(sess Session) error {
	if !sess.Authenticated() {
		return ErrPartialSession
	}
	return s.write(ReasonLogin, func(Session) (Session, error) { return sess, nil })
}

// Rotate replaces both tokens after a successful refresh, keeping the user id.
func (s *Store) Rotate(accessToken, refreshToken string) error {
	return s.write(ReasonRefresh, func(cur Session) (Session, error) {
		if !cur.Authenticated() {
			return Session{}, ErrNoSession
		}
		next := Session{AccessToken: accessToken, RefreshToken: refreshToken, UserID: cur.UserID}
		if !next.Authenticated() {
			return Session{}, ErrPartialSession
		}
		return next, nil
	})
}

// Clear removes the session on logout.
func (s *Store) Clear() error {
	return s.write(ReasonLogout, func(Session) (Session, error) { return Session{}, nil })
}

// Expire removes the session after the backend rejected its credentials.
func (s *Store) Expire() error {
	return s.write(ReasonExpired, func(Session) (Session, error) { return Session{}, nil })
}

// write computes the next session from the current one, persists it and
// swaps the snapshot, all under the write lock. A failed clear still drops
// the in-memory credentials so they are not sent again.
func (s *Store) write(reason Reason, next func(cur Session) (Session, error)) error {
	s.mu.Lock()
	sess, err := next(s.current)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	var rev uint64
	if sess.Empty() {
		rev, err = s.backend.Clear()
	} else {
		rev, err = s.backend.Save(sess)
	}
	if err != nil && !sess.Empty() {
		s.mu.Unlock()
		return err
	}
	if err == nil {
		s.revision = rev
	}
	changed := s.current != sess
	s.current = sess
	// Publishing under the lock keeps notifications in write order.
	if changed || !sess.Empty() {
		s.log.Debug("session changed", zap.String("reason", string(reason)), zap.Int("user_id", sess.UserID))
		s.publish(Change{Session: sess, Reason: reason})
	}
	s.mu.Unlock()
	return err
}

// Sync reloads the snapshot when another process changed the persisted
// session. It reports whether a change was applied. The reload runs under
// the write lock so a concurrent local write cannot be overwritten by an
// older persisted state.
func (s *Store) Sync() (bool, error) {
	rev, err := s.backend.Revision()
	if err != nil {
		return false, err
	}
	s.mu.RLock()
	same := rev == s.revision
	s.mu.RUnlock()
	if same {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, rev, err := s.backend.Load()
	if err != nil {
		return false, err
	}
	if rev == s.revision {
		return false, nil
	}
	if !sess.Authenticated() {
		sess = Session{}
	}
	s.revision = rev
	changed := s.current != sess
	s.current = sess
	if changed {
		s.publish(Change{Session: sess, Reason: ReasonExternal})
	}
	return changed, nil
}

// Watch polls the backend every interval until ctx is cancelled, applying
// changes written by other processes.
func (s *Store) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sync(); err != nil {
				s.log.Warn("session sync failed", zap.Error(err))
			}
		}
	}
}

// Subscribe returns a channel receiving every subsequent Change and a
// function that unsubscribes. The channel holds only the latest undelivered
// change, so a slow subscriber never blocks writers.
func (s *Store) Subscribe() (<-chan Change, func()) {
	ch := make(chan Change, 1)
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
}

func (s *Store) publish(c Change) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- c:
			continue
		default:
		}
		// Drop the stale change and deliver the latest one.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- c:
		default:
		}
	}
}

package api

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session — авторизованный пользователь на время смены. Никакого
// глобального состояния: всё, что раньше жило в session_state UI,
// теперь привязано к токену.
type Session struct {
	Token     string
	Username  string
	Admin     bool
	ExpiresAt time.Time
}

type SessionStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	byToken map[string]Session
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{ttl: ttl, byToken: make(map[string]Session)}
}

func (s *SessionStore) Create(username string, admin bool) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := Session{
		Token:     uuid.NewString(),
		Username:  username,
		Admin:     admin,
		ExpiresAt: time.Now().Add(s.ttl),
	}
	s.byToken[sess.Token] = sess
	return sess
}

func (s *SessionStore) Get(token string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.byToken[token]
	if !ok {
		return Session{}, false
	}
	if time.Now().After(sess.ExpiresAt) {
		delete(s.byToken, token)
		return Session{}, false
	}
	return sess, true
}

func (s *SessionStore) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byToken, token)
}

package fiberauth

import (
	"github.com/gofiber/fiber/v2/middleware/session"
	auth "github.com/goliatone/go-login"
)

// Store adapts a fiber session to auth.SessionStore. Values are gob
// encoded by fiber, so stored types must be registered on the session store.
type Store struct {
	sess      *session.Session
	destroyed bool
}

var _ auth.SessionStore = (*Store)(nil)

func NewStore(sess *session.Session) *Store {
	return &Store{sess: sess}
}

func (s *Store) ID() string {
	return s.sess.ID()
}

func (s *Store) Get(key string) (any, bool) {
	v := s.sess.Get(key)
	return v, v != nil
}

func (s *Store) Set(key string, value any) error {
	s.sess.Set(key, value)
	s.destroyed = false
	return nil
}

func (s *Store) Delete(key string) error {
	s.sess.Delete(key)
	return nil
}

func (s *Store) Destroy() error {
	if err := s.sess.Destroy(); err != nil {
		return err
	}
	s.destroyed = true
	return nil
}

func (s *Store) Regenerate() error {
	return s.sess.Regenerate()
}

// Save persists the session unless it was destroyed during the request.
// The fiber session must not be used afterwards.
func (s *Store) Save() error {
	if s.destroyed {
		return nil
	}
	return s.sess.Save()
}

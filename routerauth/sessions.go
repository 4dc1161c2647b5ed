package routerauth

import (
	"time"

	auth "github.com/goliatone/go-login"
	gocache "github.com/patrickmn/go-cache"
)

// DefaultSessionTTL is used when the auth config has no session lifetime
const DefaultSessionTTL = 12 * time.Hour

// Sessions keeps server side session stores keyed by the session cookie.
// go-router has no session middleware of its own.
type Sessions struct {
	stores *gocache.Cache
	ttl    time.Duration
}

func NewSessions(ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Sessions{
		stores: gocache.New(ttl, 2*ttl),
		ttl:    ttl,
	}
}

// TTL is the idle lifetime of a stored session
func (s *Sessions) TTL() time.Duration {
	return s.ttl
}

// Load returns the store saved under id, or a fresh one
func (s *Sessions) Load(id string) *auth.MemorySessionStore {
	if id != "" {
		if raw, ok := s.stores.Get(id); ok {
			if store, ok := raw.(*auth.MemorySessionStore); ok {
				return store
			}
		}
	}
	return auth.NewMemorySessionStore()
}

// Save persists store after a request that loaded it under previous and
// returns the identifier the client must present next. Empty and destroyed
// stores are dropped and yield "".
func (s *Sessions) Save(previous string, store *auth.MemorySessionStore) string {
	id := store.ID()
	if previous != "" && previous != id {
		s.stores.Delete(previous)
	}

	if store.Destroyed() || store.Len() == 0 {
		s.stores.Delete(id)
		return ""
	}

	s.stores.Set(id, store, gocache.DefaultExpiration)
	return id
}

// Len is the number of live sessions
func (s *Sessions) Len() int {
	return s.stores.ItemCount()
}

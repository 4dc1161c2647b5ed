package auth

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Decision is the outcome of a throttle check
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
	Failures   int
}

// Locked reports whether the identity is currently jailed
func (d Decision) Locked() bool {
	return !d.Allowed
}

// Throttle tracks failed logins per identity and enforces the login jail.
// Implementations must make RecordFailure linearizable per identity.
type Throttle interface {
	Check(ctx context.Context, identity string) (Decision, error)
	RecordFailure(ctx context.Context, identity string) (int, error)
	RecordSuccess(ctx context.Context, identity string) error
}

// NewThrottle returns the in memory throttle, or a noop throttle when
// maxFailures is zero.
func NewThrottle(maxFailures int, jail time.Duration) Throttle {
	if maxFailures <= 0 {
		return noopThrottle{}
	}
	return NewMemoryThrottle(maxFailures, jail)
}

type noopThrottle struct{}

func (noopThrottle) Check(context.Context, string) (Decision, error) {
	return Decision{Allowed: true}, nil
}

func (noopThrottle) RecordFailure(context.Context, string) (int, error) {
	return 0, nil
}

func (noopThrottle) RecordSuccess(context.Context, string) error {
	return nil
}

const throttleStripes = 64

type throttleEntry struct {
	Count  int
	Anchor time.Time
}

// MemoryThrottle keeps counters in process memory. The go-cache TTL only
// garbage collects idle entries; lockout decisions use the stored anchor
// and the throttle clock.
type MemoryThrottle struct {
	max     int
	jail    time.Duration
	entries *gocache.Cache
	locks   [throttleStripes]sync.Mutex
	now     func() time.Time
}

// NewMemoryThrottle creates a throttle that jails an identity for jail
// after maxFailures consecutive failures.
func NewMemoryThrottle(maxFailures int, jail time.Duration) *MemoryThrottle {
	cleanup := jail
	if cleanup < time.Minute {
		cleanup = time.Minute
	}

	return &MemoryThrottle{
		max:     maxFailures,
		jail:    jail,
		entries: gocache.New(jail, cleanup),
		now:     time.Now,
	}
}

// WithClock overrides the time source used for lockout decisions
func (t *MemoryThrottle) WithClock(now func() time.Time) *MemoryThrottle {
	if now != nil {
		t.now = now
	}
	return t
}

func (t *MemoryThrottle) lock(identity string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(identity))
	return &t.locks[h.Sum32()%throttleStripes]
}

func (t *MemoryThrottle) load(identity string) throttleEntry {
	raw, ok := t.entries.Get(identity)
	if !ok {
		return throttleEntry{}
	}
	entry, _ := raw.(throttleEntry)
	return entry
}

func (t *MemoryThrottle) Check(_ context.Context, identity string) (Decision, error) {
	if t.max <= 0 {
		return Decision{Allowed: true}, nil
	}

	mu := t.lock(identity)
	mu.Lock()
	defer mu.Unlock()

	entry := t.load(identity)
	if entry.Count == 0 {
		return Decision{Allowed: true}, nil
	}

	now := t.now()
	release := entry.Anchor.Add(t.jail)
	if !now.Before(release) {
		t.entries.Delete(identity)
		return Decision{Allowed: true}, nil
	}

	if entry.Count >= t.max {
		return Decision{
			Allowed:    false,
			RetryAfter: release.Sub(now),
			Failures:   entry.Count,
		}, nil
	}

	return Decision{Allowed: true, Failures: entry.Count}, nil
}

func (t *MemoryThrottle) RecordFailure(_ context.Context, identity string) (int, error) {
	if t.max <= 0 {
		return 0, nil
	}

	mu := t.lock(identity)
	mu.Lock()
	defer mu.Unlock()

	now := t.now()
	entry := t.load(identity)
	if entry.Count > 0 && !now.Before(entry.Anchor.Add(t.jail)) {
		entry = throttleEntry{}
	}

	entry.Count++
	entry.Anchor = now
	t.entries.Set(identity, entry, gocache.DefaultExpiration)

	return entry.Count, nil
}

func (t *MemoryThrottle) RecordSuccess(_ context.Context, identity string) error {
	if t.max <= 0 {
		return nil
	}

	mu := t.lock(identity)
	mu.Lock()
	defer mu.Unlock()

	t.entries.Delete(identity)
	return nil
}

// Failures returns the current counter for identity without side effects
func (t *MemoryThrottle) Failures(identity string) int {
	mu := t.lock(identity)
	mu.Lock()
	defer mu.Unlock()

	return t.load(identity).Count
}

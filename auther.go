package auth

import (
	"time"
)

// Auther is the long lived authentication service. It owns the driver,
// hasher, throttle and provider registry and hands out request scoped
// Sessions. Build one per configuration and share it between requests.
type Auther struct {
	cfg         Config
	hasher      *Hasher
	driver      Driver
	throttle    Throttle
	providers   *ProviderRegistry
	urlBuilder  URLBuilder
	logger      Logger
	activity    ActivitySink
	metrics     *Metrics
	autologin   AutologinTokens
	throttleKey func(username, source string) string
	now         func() time.Time
}

// AutherOption configures an Auther
type AutherOption func(*Auther)

// WithDriver skips registry resolution and uses d
func WithDriver(d Driver) AutherOption {
	return func(a *Auther) {
		a.driver = d
	}
}

// WithThrottle replaces the in memory throttle, e.g. with a RedisThrottle
func WithThrottle(t Throttle) AutherOption {
	return func(a *Auther) {
		a.throttle = t
	}
}

func WithLogger(l Logger) AutherOption {
	return func(a *Auther) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func WithActivitySink(sink ActivitySink) AutherOption {
	return func(a *Auther) {
		a.activity = normalizeActivitySink(sink)
	}
}

func WithMetrics(m *Metrics) AutherOption {
	return func(a *Auther) {
		a.metrics = m
	}
}

// WithAutologin enables remember me tokens
func WithAutologin(tokens AutologinTokens) AutherOption {
	return func(a *Auther) {
		a.autologin = tokens
	}
}

// WithProviderURLBuilder overrides the callback URL template
func WithProviderURLBuilder(build URLBuilder) AutherOption {
	return func(a *Auther) {
		a.urlBuilder = build
	}
}

// WithClock sets the time source for events and the default throttle
func WithClock(now func() time.Time) AutherOption {
	return func(a *Auther) {
		if now != nil {
			a.now = now
		}
	}
}

// WithThrottleKey derives the throttle identity from the username and the
// request source. The default uses the username alone.
func WithThrottleKey(fn func(username, source string) string) AutherOption {
	return func(a *Auther) {
		a.throttleKey = fn
	}
}

// NewAuther validates cfg and resolves every collaborator once. Unknown
// drivers and hash methods fail here. Autologin tokens are built from
// AutologinKey when WithAutologin is not given.
func NewAuther(cfg Config, opts ...AutherOption) (*Auther, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	hasher, err := NewHasher(cfg.Hash.Method, cfg.Hash.Key)
	if err != nil {
		return nil, err
	}

	a := &Auther{
		cfg:      cfg,
		hasher:   hasher,
		logger:   defLogger{},
		activity: noopActivitySink{},
		now:      time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	if a.driver == nil {
		if a.driver, err = NewDriver(cfg, hasher); err != nil {
			return nil, err
		}
	}

	if a.throttle == nil {
		a.throttle = NewThrottle(cfg.MaxFailedLogins, cfg.LoginJailTime.Duration())
		if mt, ok := a.throttle.(*MemoryThrottle); ok {
			mt.WithClock(a.now)
		}
	}

	if a.autologin == nil && cfg.AutologinKey != "" {
		a.autologin = NewJWTAutologin([]byte(cfg.AutologinKey), cfg.AutologinLifetime()).
			WithClock(a.now)
	}

	if a.throttleKey == nil {
		a.throttleKey = func(username, _ string) string { return username }
	}

	a.providers = NewProviderRegistry(cfg.OAuth2, a.urlBuilder)

	a.logger.Debug("auth initialized",
		"driver", normalizeDriverName(cfg.Driver),
		"hash", hasher.Method(),
		"max_failed_logins", cfg.MaxFailedLogins,
		"providers", len(a.providers.Providers()),
	)

	return a, nil
}

func (a *Auther) Config() Config {
	return a.cfg
}

func (a *Auther) Hasher() *Hasher {
	return a.hasher
}

func (a *Auther) Driver() Driver {
	return a.driver
}

func (a *Auther) Throttle() Throttle {
	return a.throttle
}

func (a *Auther) Logger() Logger {
	return a.logger
}

// Providers returns the enabled OAuth2 providers in configuration order
func (a *Auther) Providers() []ProviderDescriptor {
	return a.providers.Providers()
}

func (a *Auther) ProviderRegistry() *ProviderRegistry {
	return a.providers
}

// Autologin returns the configured token service, or nil
func (a *Auther) Autologin() AutologinTokens {
	return a.autologin
}

// Hash hashes secret with the configured method and key
func (a *Auther) Hash(secret string) (string, error) {
	return a.hasher.Hash(secret)
}

// SessionOption configures a request scoped Session
type SessionOption func(*Session)

// WithRouteUsername sets the vanity username taken from the request route
func WithRouteUsername(username string) SessionOption {
	return func(s *Session) {
		s.routeUsername = username
	}
}

// WithSource sets the request origin, typically the client IP
func WithSource(source string) SessionOption {
	return func(s *Session) {
		s.source = source
	}
}

// Session binds the service to one client's SessionStore
func (a *Auther) Session(store SessionStore, opts ...SessionOption) *Session {
	s := &Session{
		auther: a,
		store:  store,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

package routerauth

import (
	"math"
	"net/http"
	"strconv"
	"time"

	auth "github.com/goliatone/go-login"
	"github.com/goliatone/go-router"
)

const (
	DefaultSessionCookie   = "session_id"
	DefaultAutologinCookie = "autologin"
	DefaultContextKey      = "auth_session"
	DefaultRouteParam      = "username"
)

// Config wires the middleware to an Auther and a session registry
type Config struct {
	Auther   *auth.Auther
	Sessions *Sessions
	// RouteParam names the vanity username route parameter
	RouteParam      string
	SessionCookie   string
	AutologinCookie string
	ContextKey      string
	CookieSecure    bool
	// Source resolves the client address used for throttling and activity
	Source       func(router.Context) string
	ErrorHandler func(router.Context, error) error
}

func (cfg Config) withDefaults() Config {
	if cfg.RouteParam == "" {
		cfg.RouteParam = DefaultRouteParam
	}
	if cfg.SessionCookie == "" {
		cfg.SessionCookie = DefaultSessionCookie
	}
	if cfg.AutologinCookie == "" {
		cfg.AutologinCookie = DefaultAutologinCookie
	}
	if cfg.ContextKey == "" {
		cfg.ContextKey = DefaultContextKey
	}
	if cfg.Sessions == nil {
		cfg.Sessions = NewSessions(cfg.Auther.Config().Lifetime.Duration())
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = RespondError
	}
	return cfg
}

// New builds the request scoped auth.Session, restores autologin cookies
// and saves the session once the wrapped handler returns.
func New(config Config) router.MiddlewareFunc {
	cfg := config.withDefaults()
	logger := cfg.Auther.Logger()

	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			previous := ctx.Cookies(cfg.SessionCookie)
			store := cfg.Sessions.Load(previous)

			source := ""
			if cfg.Source != nil {
				source = cfg.Source(ctx)
			}

			s := cfg.Auther.Session(store,
				auth.WithRouteUsername(ctx.Param(cfg.RouteParam, "")),
				auth.WithSource(source),
			)

			stdCtx := ctx.Context()
			if token := ctx.Cookies(cfg.AutologinCookie); token != "" && !s.LoggedIn(stdCtx) {
				ok, err := s.AutoLogin(stdCtx, token)
				if err != nil {
					logger.Error("autologin failed", "error", err)
				}
				if !ok {
					clearAutologin(ctx, cfg)
				}
			}

			ctx.Locals(cfg.ContextKey, s)
			ctx.SetContext(auth.WithSession(stdCtx, s))

			herr := next(ctx)

			switch id := cfg.Sessions.Save(previous, store); {
			case id != "":
				setCookie(ctx, cfg, cfg.SessionCookie, id, time.Now().Add(cfg.Sessions.TTL()))
			case previous != "":
				setCookie(ctx, cfg, cfg.SessionCookie, "", time.Unix(0, 0))
			}

			return herr
		}
	}
}

// FromCtx returns the auth.Session installed by the middleware
func FromCtx(ctx router.Context, key ...string) (*auth.Session, bool) {
	k := DefaultContextKey
	if len(key) > 0 && key[0] != "" {
		k = key[0]
	}
	s, ok := ctx.Locals(k).(*auth.Session)
	return s, ok && s != nil
}

// RespondError maps auth error kinds to HTTP responses. Details of store
// and configuration failures are never sent to the client.
func RespondError(ctx router.Context, err error) error {
	if retry, ok := auth.IsThrottleError(err); ok {
		ctx.SetHeader("Retry-After", retryAfterSeconds(retry))
		return ctx.JSON(http.StatusTooManyRequests, map[string]any{
			"error": auth.ErrTooManyLoginAttempts.Message,
		})
	}

	if auth.IsValidationError(err) {
		return ctx.JSON(http.StatusBadRequest, map[string]any{
			"error": "invalid request",
			"field": auth.InvalidField(err),
		})
	}

	return ctx.JSON(http.StatusInternalServerError, map[string]any{
		"error": "internal error",
	})
}

func setCookie(ctx router.Context, cfg Config, name, value string, expires time.Time) {
	ctx.Cookie(&router.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: "Lax",
	})
}

func clearAutologin(ctx router.Context, cfg Config) {
	setCookie(ctx, cfg, cfg.AutologinCookie, "", time.Unix(0, 0))
}

func retryAfterSeconds(d time.Duration) string {
	secs := int64(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}

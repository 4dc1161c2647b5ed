package fiberauth

import (
	"math"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/fiber/v2/utils"
	auth "github.com/goliatone/go-login"
)

const (
	DefaultRouteParam      = "username"
	DefaultAutologinCookie = "autologin"
	DefaultContextKey      = "auth_session"
)

// Config wires the middleware to an Auther and a fiber session store
type Config struct {
	Auther   *auth.Auther
	Sessions *session.Store
	// RouteParam names the vanity username route parameter. Route params are
	// only visible when the middleware is mounted on the route itself.
	RouteParam      string
	AutologinCookie string
	ContextKey      string
	CookieSecure    bool
	ErrorHandler    func(c *fiber.Ctx, err error) error
}

func (cfg Config) withDefaults() Config {
	if cfg.RouteParam == "" {
		cfg.RouteParam = DefaultRouteParam
	}
	if cfg.AutologinCookie == "" {
		cfg.AutologinCookie = DefaultAutologinCookie
	}
	if cfg.ContextKey == "" {
		cfg.ContextKey = DefaultContextKey
	}
	if cfg.Sessions == nil {
		cfg.Sessions = session.New()
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = RespondError
	}
	return cfg
}

// New builds the request scoped auth.Session, restores autologin cookies
// and saves the fiber session once the handler chain returns.
func New(config Config) fiber.Handler {
	cfg := config.withDefaults()
	cfg.Sessions.RegisterType(auth.Principal{})
	logger := cfg.Auther.Logger()

	return func(c *fiber.Ctx) error {
		sess, err := cfg.Sessions.Get(c)
		if err != nil {
			logger.Error("fiber session load failed", "error", err)
			return cfg.ErrorHandler(c, auth.WrapStoreError(err, "session load"))
		}

		// fasthttp strings are only valid during the request, the session
		// and activity sinks may keep these longer
		store := NewStore(sess)
		s := cfg.Auther.Session(store,
			auth.WithRouteUsername(utils.CopyString(c.Params(cfg.RouteParam))),
			auth.WithSource(utils.CopyString(c.IP())),
		)

		ctx := c.UserContext()
		if token := c.Cookies(cfg.AutologinCookie); token != "" && !s.LoggedIn(ctx) {
			ok, err := s.AutoLogin(ctx, token)
			if err != nil {
				logger.Error("autologin failed", "error", err)
			}
			if !ok {
				clearAutologin(c, cfg)
			}
		}

		c.Locals(cfg.ContextKey, s)
		c.SetUserContext(auth.WithSession(ctx, s))

		herr := c.Next()

		if err := store.Save(); err != nil {
			logger.Error("fiber session save failed", "error", err)
			if herr == nil {
				return cfg.ErrorHandler(c, auth.WrapStoreError(err, "session save"))
			}
		}

		return herr
	}
}

// FromCtx returns the auth.Session installed by the middleware
func FromCtx(c *fiber.Ctx, key ...string) (*auth.Session, bool) {
	k := DefaultContextKey
	if len(key) > 0 && key[0] != "" {
		k = key[0]
	}
	s, ok := c.Locals(k).(*auth.Session)
	return s, ok && s != nil
}

// RespondError maps auth error kinds to HTTP responses. Details of store
// and configuration failures are never sent to the client.
func RespondError(c *fiber.Ctx, err error) error {
	if retry, ok := auth.IsThrottleError(err); ok {
		c.Set(fiber.HeaderRetryAfter, retryAfterSeconds(retry))
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": auth.ErrTooManyLoginAttempts.Message,
		})
	}

	if auth.IsValidationError(err) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request",
			"field": auth.InvalidField(err),
		})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "internal error",
	})
}

func retryAfterSeconds(d time.Duration) string {
	secs := int64(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}

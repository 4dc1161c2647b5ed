package routerauth

import (
	"net/http"
	"time"

	auth "github.com/goliatone/go-login"
	"github.com/goliatone/go-router"
)

// RouteRegistrar captures the router methods used by Register
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// Handlers exposes HTTP endpoints over the session installed by New
type Handlers struct {
	cfg Config
}

func NewHandlers(config Config) *Handlers {
	return &Handlers{cfg: config.withDefaults()}
}

func (h *Handlers) session(ctx router.Context) (*auth.Session, error) {
	s, ok := FromCtx(ctx, h.cfg.ContextKey)
	if !ok {
		return nil, auth.WrapStoreError(auth.ErrInvalidConfig, "auth middleware lookup")
	}
	return s, nil
}

// Login verifies the posted credentials
func (h *Handlers) Login(ctx router.Context) error {
	s, err := h.session(ctx)
	if err != nil {
		return h.cfg.ErrorHandler(ctx, err)
	}

	req := new(auth.LoginRequest)
	if err := ctx.Bind(req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]any{
			"error": "failed to parse body",
		})
	}

	if err := req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]any{
			"error":      "invalid request",
			"validation": err,
		})
	}

	res, err := s.Login(ctx.Context(), req.Username, req.Password, req.Remember)
	if err != nil {
		return h.cfg.ErrorHandler(ctx, err)
	}

	if !res.Valid {
		return ctx.JSON(http.StatusUnauthorized, map[string]any{
			"error": res.Message,
		})
	}

	if res.Token != "" {
		lifetime := h.cfg.Auther.Config().AutologinLifetime()
		setCookie(ctx, h.cfg, h.cfg.AutologinCookie, res.Token, time.Now().Add(lifetime))
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"user": res.Principal,
	})
}

// Logout ends the session. The body carries the destroy and all flags.
func (h *Handlers) Logout(ctx router.Context) error {
	s, err := h.session(ctx)
	if err != nil {
		return h.cfg.ErrorHandler(ctx, err)
	}

	req := new(auth.LogoutRequest)
	if err := ctx.Bind(req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]any{
			"error": "failed to parse body",
		})
	}

	ok, err := s.Logout(ctx.Context(), req.Destroy, req.All)
	clearAutologin(ctx, h.cfg)
	if err != nil {
		return h.cfg.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"logged_out": ok,
	})
}

// Me returns the current principal
func (h *Handlers) Me(ctx router.Context) error {
	s, err := h.session(ctx)
	if err != nil {
		return h.cfg.ErrorHandler(ctx, err)
	}

	user, ok := s.User()
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, map[string]any{
			"error": "not logged in",
		})
	}

	provider, _ := s.Provider()
	return ctx.JSON(http.StatusOK, map[string]any{
		"user":     user,
		"name":     s.FullName(" "),
		"provider": provider,
		"username": s.Username(true),
	})
}

// Providers lists the enabled OAuth2 providers
func (h *Handlers) Providers(ctx router.Context) error {
	return ctx.JSON(http.StatusOK, map[string]any{
		"providers": h.cfg.Auther.Providers(),
	})
}

// RequireLogin rejects anonymous requests. With roles, every role must be
// granted by the driver.
func (h *Handlers) RequireLogin(roles ...string) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			s, ok := FromCtx(ctx, h.cfg.ContextKey)
			if !ok || !s.LoggedIn(ctx.Context(), roles...) {
				return ctx.JSON(http.StatusUnauthorized, map[string]any{
					"error": "authentication required",
				})
			}
			return next(ctx)
		}
	}
}

// Register mounts the handlers on r behind mw
func (h *Handlers) Register(r RouteRegistrar, mw router.MiddlewareFunc) {
	r.Post("/login", h.Login, mw)
	r.Post("/logout", h.Logout, mw)
	r.Get("/me", h.Me, mw)
	r.Get("/providers", h.Providers)
}

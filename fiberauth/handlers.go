package fiberauth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	auth "github.com/goliatone/go-login"
)

// LoginRequest is the login form or JSON payload
type LoginRequest = auth.LoginRequest

// Handlers exposes HTTP endpoints over the session installed by New
type Handlers struct {
	cfg Config
}

func NewHandlers(config Config) *Handlers {
	return &Handlers{cfg: config.withDefaults()}
}

func (h *Handlers) session(c *fiber.Ctx) (*auth.Session, error) {
	s, ok := FromCtx(c, h.cfg.ContextKey)
	if !ok {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "auth middleware not installed")
	}
	return s, nil
}

// Login verifies the posted credentials
func (h *Handlers) Login(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}

	req := new(LoginRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to parse body",
		})
	}

	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":      "invalid request",
			"validation": err,
		})
	}

	username := utils.CopyString(req.Username)
	res, err := s.Login(c.UserContext(), username, req.Password, req.Remember)
	if err != nil {
		return h.cfg.ErrorHandler(c, err)
	}

	if !res.Valid {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": res.Message,
		})
	}

	if res.Token != "" {
		lifetime := h.cfg.Auther.Config().AutologinLifetime()
		c.Cookie(&fiber.Cookie{
			Name:     h.cfg.AutologinCookie,
			Value:    res.Token,
			Path:     "/",
			Expires:  time.Now().Add(lifetime),
			HTTPOnly: true,
			Secure:   h.cfg.CookieSecure,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}

	return c.JSON(fiber.Map{
		"user": res.Principal,
	})
}

// Logout ends the session. Query flags: destroy=true and all=true.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}

	destroy := c.QueryBool("destroy", false)
	all := c.QueryBool("all", false)

	ok, err := s.Logout(c.UserContext(), destroy, all)
	clearAutologin(c, h.cfg)
	if err != nil {
		return h.cfg.ErrorHandler(c, err)
	}

	return c.JSON(fiber.Map{
		"logged_out": ok,
	})
}

// Me returns the current principal
func (h *Handlers) Me(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}

	user, ok := s.User()
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "not logged in",
		})
	}

	provider, _ := s.Provider()
	return c.JSON(fiber.Map{
		"user":     user,
		"name":     s.FullName(" "),
		"provider": provider,
		"username": s.Username(true),
	})
}

// Providers lists the enabled OAuth2 providers
func (h *Handlers) Providers(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"providers": h.cfg.Auther.Providers(),
	})
}

// RequireLogin rejects anonymous requests. With roles, every role must be
// granted by the driver.
func (h *Handlers) RequireLogin(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, ok := FromCtx(c, h.cfg.ContextKey)
		if !ok || !s.LoggedIn(c.UserContext(), roles...) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "authentication required",
			})
		}
		return c.Next()
	}
}

// Register mounts the handlers on router under the given middleware
func (h *Handlers) Register(router fiber.Router, mw fiber.Handler) {
	router.Post("/login", mw, h.Login)
	router.Post("/logout", mw, h.Logout)
	router.Get("/me", mw, h.Me)
	router.Get("/providers", h.Providers)
}

func clearAutologin(c *fiber.Ctx, cfg Config) {
	c.Cookie(&fiber.Cookie{
		Name:     cfg.AutologinCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   cfg.CookieSecure,
	})
}

package routerauth_test

import (
	"context"
	"encoding/json"
	"time"

	"github.com/goliatone/go-router"
)

// routerContext aliases router.Context so the embedded field does not
// collide with the Context method below.
type routerContext = router.Context

// testContext implements the router.Context methods used by the package.
// Calling any other method panics on the nil embedded interface.
type testContext struct {
	routerContext

	ctx     context.Context
	body    string
	params  map[string]string
	cookies map[string]string
	locals  map[any]any
	headers map[string]string

	status     int
	response   map[string]any
	setCookies []*router.Cookie
}

func newTestContext(body string, cookies ...*router.Cookie) *testContext {
	c := &testContext{
		ctx:     context.Background(),
		body:    body,
		params:  map[string]string{},
		cookies: map[string]string{},
		locals:  map[any]any{},
		headers: map[string]string{},
	}
	for _, ck := range cookies {
		if ck != nil {
			c.cookies[ck.Name] = ck.Value
		}
	}
	return c
}

func (c *testContext) Context() context.Context {
	return c.ctx
}

func (c *testContext) SetContext(ctx context.Context) {
	c.ctx = ctx
}

func (c *testContext) Cookies(key string, defaultValue ...string) string {
	if v, ok := c.cookies[key]; ok {
		return v
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (c *testContext) Cookie(cookie *router.Cookie) {
	c.setCookies = append(c.setCookies, cookie)
}

func (c *testContext) Param(key string, defaultValue ...string) string {
	if v, ok := c.params[key]; ok {
		return v
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (c *testContext) Locals(key any, value ...any) any {
	if len(value) > 0 {
		c.locals[key] = value[0]
		return value[0]
	}
	return c.locals[key]
}

func (c *testContext) Bind(v any) error {
	if c.body == "" {
		return nil
	}
	return json.Unmarshal([]byte(c.body), v)
}

func (c *testContext) SetHeader(key, val string) router.Context {
	c.headers[key] = val
	return c
}

func (c *testContext) JSON(code int, val any) error {
	c.status = code
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}
	c.response = map[string]any{}
	return json.Unmarshal(raw, &c.response)
}

// cookie returns the last cookie named name written by the handler chain
func (c *testContext) cookie(name string) *router.Cookie {
	var found *router.Cookie
	for _, ck := range c.setCookies {
		if ck.Name == name {
			found = ck
		}
	}
	return found
}

func expired(ck *router.Cookie) bool {
	return ck != nil && ck.Value == "" && ck.Expires.Before(time.Now())
}

type route struct {
	handler router.HandlerFunc
	mw      []router.MiddlewareFunc
}

// testRouter records routes and runs them with the middleware applied
// outermost first
type testRouter struct {
	routes map[string]route
}

func newTestRouter() *testRouter {
	return &testRouter{routes: map[string]route{}}
}

func (r *testRouter) Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo {
	r.routes["GET "+path] = route{handler: handler, mw: mw}
	var info router.RouteInfo
	return info
}

func (r *testRouter) Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo {
	r.routes["POST "+path] = route{handler: handler, mw: mw}
	var info router.RouteInfo
	return info
}

func (r *testRouter) serve(key string, ctx router.Context) error {
	rt, ok := r.routes[key]
	if !ok {
		panic("no route " + key)
	}
	return chain(rt.handler, rt.mw...)(ctx)
}

func chain(h router.HandlerFunc, mw ...router.MiddlewareFunc) router.HandlerFunc {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}

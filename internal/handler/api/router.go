package api

import (
	xhttp "FinTrack/pkg/http"

	"github.com/labstack/echo/v4"
)

// GroupHandler registers routes on the /api group.
type GroupHandler interface {
	Register(g *echo.Group)
}

// Router mounts every API handler under /api behind the shared middleware.
type Router struct {
	handlers   []GroupHandler
	middleware []echo.MiddlewareFunc
}

var _ xhttp.Handler = (*Router)(nil)

func NewRouter(handlers []GroupHandler, mw ...echo.MiddlewareFunc) *Router {
	return &Router{handlers: handlers, middleware: mw}
}

func (r *Router) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api", r.middleware...)
	for _, h := range r.handlers {
		if h != nil {
			h.Register(g)
		}
	}
}

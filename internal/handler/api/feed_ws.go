package api

import (
	"errors"
	"net/http"

	"FinTrack/internal/service/feed"
	xhttp "FinTrack/pkg/http"
	xlogger "FinTrack/pkg/logger"

	"github.com/labstack/echo/v4"
)

// FeedHandler serves the live transaction event stream over websocket.
type FeedHandler struct {
	logger *xlogger.Logger
	hub    *feed.Hub
}

func NewFeedHandler(logger *xlogger.Logger, hub *feed.Hub) *FeedHandler {
	return &FeedHandler{logger: logger, hub: hub}
}

func (h *FeedHandler) Register(g *echo.Group) {
	g.GET("/feed", h.Stream)
}

func (h *FeedHandler) Stream(c echo.Context) error {
	err := h.hub.ServeWS(c.Response(), c.Request())
	switch {
	case err == nil:
		return nil
	case errors.Is(err, feed.ErrClosed):
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, "feed is shutting down")
	default:
		// the upgrader has already answered the client
		h.logger.Warn("feed upgrade failed", xlogger.Error(err))
		return nil
	}
}

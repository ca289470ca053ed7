package server

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"roster/pkg/store"
	"roster/pkg/utils"
	"roster/pkg/view"
)

// GET /
func (s *Server) handleGetRoot(c echo.Context) error {
	return c.Render(http.StatusOK, "page", view.Build(s.Catalog, s.Store.Snapshot()))
}

// GET /events streams the rendered page fragment on every state change.
func (s *Server) handleGetEvents(c echo.Context) error {
	w, err := utils.NewSSEWriter(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	defer w.Close()

	updates := make(chan store.State, s.sseBuffer)
	cancel := s.Store.Subscribe(func(st store.State) {
		offerLatest(updates, st)
	})
	defer cancel()

	send := func(st store.State) error {
		html, err := s.fragment(st)
		if err != nil {
			return err
		}
		return w.Event("state", html)
	}

	if err := send(s.Store.Snapshot()); err != nil {
		log.Warn("sse initial send failed", "error", err)
		return nil
	}

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.Ctx.Done():
			return nil
		case st := <-updates:
			if err := send(st); err != nil {
				log.Debug("sse client gone", "error", err)
				return nil
			}
		}
	}
}

// offerLatest queues st without blocking. When the queue is full the
// oldest pending state is dropped, so a slow client still ends on the
// newest state.
func offerLatest(ch chan store.State, st store.State) {
	for {
		select {
		case ch <- st:
			return
		default:
		}
		select {
		case <-ch:
			log.Debug("sse client lagging, dropped a state update")
		default:
		}
	}
}

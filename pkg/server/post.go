package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"roster/pkg/store"
	"roster/pkg/view"
)

// POST /select
func (s *Server) handlePostSelect(c echo.Context) error {
	name := strings.TrimSpace(c.FormValue(view.Label))
	st, err := s.Store.Select(name)
	if errors.Is(err, store.ErrUnknownCharacter) {
		log.Warn("rejected selection", "name", name)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		return err
	}

	log.Info("character selected", "name", st.Character.Name, "sequence", st.Sequence)
	return c.Redirect(http.StatusSeeOther, "/")
}

// POST /dismiss
func (s *Server) handlePostDismiss(c echo.Context) error {
	st := s.Store.Dismiss()
	log.Info("notification dismissed", "name", st.Character.Name)
	return c.Redirect(http.StatusSeeOther, "/")
}

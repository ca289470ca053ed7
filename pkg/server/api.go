package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"roster/pkg/catalog"
	"roster/pkg/diff"
	"roster/pkg/schema"
	"roster/pkg/store"
	"roster/pkg/story"
	"roster/pkg/utils"
)

// Suggestions below this similarity are not offered.
const suggestThreshold = 0.5

type selectReq struct {
	Name string `json:"name"`
}

type stateResponse struct {
	store.State
	Message             string `json:"message"`
	NotificationVisible bool   `json:"notification_visible"`
}

type storyResponse struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Known   bool   `json:"known"`
}

type duplicateResponse struct {
	catalog.Duplicate
	Diff diff.CharacterDiff `json:"diff"`
}

func newStateResponse(st store.State) stateResponse {
	return stateResponse{
		State:               st,
		Message:             story.Resolve(st.Character.Name),
		NotificationVisible: st.NotificationVisible(),
	}
}

// unknownName builds the error envelope for a name outside the catalog,
// with the closest catalog name when one is close enough.
func (s *Server) unknownName(name string) map[string]any {
	body := utils.ErrJSON("unknown character: " + name)
	if guess, ok := utils.Closest(name, suggestThreshold, s.Catalog.Names()...); ok {
		body["suggestion"] = guess
	}
	return body
}

// GET /api/characters
func (s *Server) handleGetCharacters(c echo.Context) error {
	return c.JSON(http.StatusOK, s.Catalog.Characters())
}

// GET /api/characters/:name
func (s *Server) handleGetCharacter(c echo.Context) error {
	name := c.Param("name")
	ch, ok := s.Catalog.Get(name)
	if !ok {
		return c.JSON(http.StatusNotFound, s.unknownName(name))
	}
	return c.JSON(http.StatusOK, ch)
}

// GET /api/state
func (s *Server) handleGetState(c echo.Context) error {
	return c.JSON(http.StatusOK, newStateResponse(s.Store.Snapshot()))
}

// POST /api/select
func (s *Server) handleAPISelect(c echo.Context) error {
	var req selectReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, utils.ErrJSON("invalid json"))
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, utils.ErrJSON("name is required"))
	}

	st, err := s.Store.Select(req.Name)
	if errors.Is(err, store.ErrUnknownCharacter) {
		log.Warn("rejected selection", "name", req.Name)
		return c.JSON(http.StatusBadRequest, s.unknownName(req.Name))
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON(err.Error()))
	}

	log.Info("character selected", "name", st.Character.Name, "sequence", st.Sequence)
	return c.JSON(http.StatusOK, newStateResponse(st))
}

// POST /api/dismiss
func (s *Server) handleAPIDismiss(c echo.Context) error {
	st := s.Store.Dismiss()
	log.Info("notification dismissed", "name", st.Character.Name)
	return c.JSON(http.StatusOK, newStateResponse(st))
}

// GET /api/story/:name
func (s *Server) handleGetStory(c echo.Context) error {
	name := c.Param("name")
	return c.JSON(http.StatusOK, storyResponse{
		Name:    name,
		Message: story.Resolve(name),
		Known:   story.Known(name),
	})
}

// GET /api/schema
func (s *Server) handleGetSchema(c echo.Context) error {
	return c.JSON(http.StatusOK, schema.CatalogSchema)
}

// GET /api/duplicates
func (s *Server) handleGetDuplicates(c echo.Context) error {
	dups := s.Catalog.Duplicates()
	out := make([]duplicateResponse, 0, len(dups))
	for _, d := range dups {
		out = append(out, duplicateResponse{
			Duplicate: d,
			Diff:      diff.Characters(d.Overwritten, d.Kept),
		})
	}
	return c.JSON(http.StatusOK, out)
}

package server

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"roster/pkg/catalog"
	"roster/pkg/flight"
	"roster/pkg/store"
)

type Options struct {
	// AssetsDir is searched for portrait files.
	AssetsDir string
	// SSEBuffer is the per-client queue of pending state updates.
	SSEBuffer int
}

type Server struct {
	Echo    *echo.Echo
	Store   *store.Store
	Catalog *catalog.Catalog
	Ctx     context.Context

	Portraits *flight.Cache[string, []byte]

	assetsDir string
	sseBuffer int
}

func NewServer(ctx context.Context, st *store.Store, opts Options) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = newRenderer()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	if opts.SSEBuffer < 1 {
		opts.SSEBuffer = 1
	}

	s := &Server{
		Echo:      e,
		Store:     st,
		Catalog:   st.Catalog(),
		Ctx:       ctx,
		assetsDir: opts.AssetsDir,
		sseBuffer: opts.SSEBuffer,
	}
	s.Portraits = flight.NewCache(s.loadPortrait)
	s.Portraits.Expiry(0)

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.Echo.GET("/", s.handleGetRoot)
	s.Echo.POST("/select", s.handlePostSelect)
	s.Echo.POST("/dismiss", s.handlePostDismiss)
	s.Echo.GET("/events", s.handleGetEvents)
	s.Echo.GET("/images/*", s.handleGetImage)

	api := s.Echo.Group("/api")
	api.GET("/characters", s.handleGetCharacters)
	api.GET("/characters/:name", s.handleGetCharacter)
	api.GET("/state", s.handleGetState)
	api.POST("/select", s.handleAPISelect)
	api.POST("/dismiss", s.handleAPIDismiss)
	api.GET("/story/:name", s.handleGetStory)
	api.GET("/schema", s.handleGetSchema)
	api.GET("/duplicates", s.handleGetDuplicates)
}

func (s *Server) Start(addr string) error {
	log.Info("server listening", "addr", addr, "characters", s.Catalog.Len())
	return s.Echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.Echo.Shutdown(ctx)
}

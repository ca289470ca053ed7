package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	_ "github.com/joho/godotenv/autoload"
	gommonlog "github.com/labstack/gommon/log"

	"roster/pkg/catalog"
	"roster/pkg/config"
	"roster/pkg/server"
	"roster/pkg/store"
	"roster/pkg/utils"
)

func main() {
	ctx, done := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer done()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration", "error", err)
	}
	lvl, _ := cfg.Level()
	log.SetLevel(lvl)

	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		log.Fatal("failed to load catalog", "error", err)
	}
	diagnose(os.Stderr, cat)

	srv := server.NewServer(ctx, store.New(cat), server.Options{
		AssetsDir: cfg.AssetsDir,
		SSEBuffer: cfg.SSEBuffer,
	})
	if cfg.Debug {
		srv.Echo.Logger.SetLevel(gommonlog.DEBUG)
	}

	finishedShutDown := make(chan struct{})
	go func() {
		<-ctx.Done()
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error("shutdown failed", "error", err)
		}
		close(finishedShutDown)
	}()

	if err := srv.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server stopped", "error", err)
		done()
	}
	<-finishedShutDown
}

var errCatalogMissing = errors.New("catalog file does not exist")

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	if !utils.Exists(path) {
		return nil, fmt.Errorf("%w: %s", errCatalogMissing, path)
	}
	cat, err := catalog.Load(path)
	if err != nil {
		return nil, err
	}
	log.Info("loaded catalog", "path", path, "records", len(cat.Records()), "characters", cat.Len())
	return cat, nil
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mbolis/opinio/app"
	"github.com/mbolis/opinio/config"
	"github.com/mbolis/opinio/database"
	"github.com/mbolis/opinio/httpx"
	"github.com/mbolis/opinio/log"
	"github.com/mbolis/opinio/routes"
	"github.com/mbolis/opinio/survey"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	db, err := database.Open(cfg.DBUrl)
	if err != nil {
		log.Fatal("main.db.open:", err)
	}
	defer db.Close()

	store := database.NewStore(db)
	app := app.App{
		Store:        store,
		Service:      survey.NewService(store),
		BearerServer: httpx.NewBearerServer(store, cfg.TokenSecret, cfg.TokenTTL, cfg.RefreshTTL),
		Config:       cfg,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = runServer(ctx, cfg, routes.Wire(app))
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("main.server:", err)
	}
}

// runServer serves until ctx is done, then drains open requests.
func runServer(ctx context.Context, cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("Listening on " + cfg.Url())
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

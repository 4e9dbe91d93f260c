package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sandeepkv93/catalog-editor/internal/di"
)

func main() {
	a, err := di.InitializeApp()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Logger.Info("server starting", "addr", a.Server.Addr, "store", a.Slot.Backend(), "storage_key", a.Config.StorageKey)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		totalTimeout := a.ShutdownTimeout
		if totalTimeout <= 0 {
			totalTimeout = 20 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), totalTimeout)
		defer cancel()
		return a.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		a.Logger.Error("server stopped with error", "error", err)
		log.Fatal(err)
	}
	a.Logger.Info("server stopped")
}

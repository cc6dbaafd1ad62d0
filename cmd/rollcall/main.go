package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sicko7947/rollcall"
	"github.com/sicko7947/rollcall/api"
	"github.com/sicko7947/rollcall/store"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	})

	cfg, err := LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	log.Logger = log.Logger.Level(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	backend, err := store.NewBackend(ctx, cfg.Store, log.Logger)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Str("backend", string(cfg.Store.Kind)).Msg("Failed to open store backend")
	}
	log.Info().Str("backend", string(cfg.Store.Kind)).Msg("Store backend ready")

	opts := []rollcall.Option{
		rollcall.WithLogger(log.Logger),
		rollcall.WithConfig(cfg.Records),
	}
	meetings := rollcall.NewMeetingStore(backend, opts...)
	attendance := rollcall.NewAttendanceStore(backend, meetings, opts...)

	app := api.NewApp(api.NewHandler(meetings, attendance, log.Logger))

	// Start server in a goroutine
	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("address", addr).Msg("Starting HTTP server")
		if err := app.Listen(addr); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := backend.Close(closeCtx); err != nil {
		log.Error().Err(err).Msg("Failed to close store backend")
	}

	log.Info().Msg("Server stopped")
}

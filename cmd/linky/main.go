package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/raterudder/linky/pkg/enedis"
	"github.com/raterudder/linky/pkg/export"
	"github.com/raterudder/linky/pkg/log"
	"github.com/raterudder/linky/pkg/server"
	"github.com/raterudder/linky/pkg/storage"

	"github.com/levenlabs/go-lflag"
	"github.com/levenlabs/go-llog"
)

func main() {
	// credentials usually live in a .env next to the session files
	_ = godotenv.Load()

	// init packages
	s := storage.Configured()
	c := enedis.Configured(s)
	e := export.Configured(c)
	srv := server.Configured(c)

	serve := lflag.Bool("serve", false, "Serve the consumption feeds over HTTP instead of exporting once")

	// parse flags
	lflag.Configure()

	var level slog.Level
	// lflag automatically sets llog's level, but we need to set the slog level
	switch llog.GetLevel() {
	case llog.DebugLevel:
		level = slog.LevelDebug
	case llog.InfoLevel:
		level = slog.LevelInfo
	case llog.WarnLevel:
		level = slog.LevelWarn
	case llog.ErrorLevel:
		level = slog.LevelError
	default:
		panic(fmt.Errorf("unknown log level: %s", llog.GetLevel().String()))
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	if !*serve {
		// stdout carries the exported document
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}))
	}
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx, _ = log.WithID(log.With(ctx, logger), "runID")
	log.Ctx(ctx).DebugContext(ctx, "logger configured", slog.String("level", level.String()))

	os.Exit(run(ctx, s, e, srv, *serve))
}

func run(ctx context.Context, s storage.SessionStore, e *export.Exporter, srv *server.Server, serve bool) int {
	defer func() {
		if err := s.Close(); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to close session store", "error", err)
		}
	}()

	if serve {
		// Run will block until context is canceled or error happens
		if err := srv.Run(ctx); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "server failed", "error", err)
			return 1
		}
		log.Ctx(ctx).InfoContext(ctx, "server exited cleanly")
		return 0
	}

	if err := e.Run(ctx); err != nil {
		if errors.Is(err, export.ErrSessionInvalidated) {
			log.Ctx(ctx).WarnContext(ctx, "export aborted", "error", err)
		} else {
			log.Ctx(ctx).ErrorContext(ctx, "export failed", "error", err)
		}
		return 1
	}
	return 0
}

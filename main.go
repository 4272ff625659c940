package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/spf13/pflag"

	"zawamis/admin"
	"zawamis/config"
	"zawamis/handlers"
	"zawamis/middleware"
	"zawamis/password"
)

const usage = `usage: zawamis [--config file] [serve]
       zawamis [--config file] admin <command> [args]`

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, admin.ErrUsage) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flagSet := pflag.NewFlagSet("zawamis", pflag.ContinueOnError)
	flagSet.SetInterspersed(false)
	configPath := flagSet.String("config", "", "path to a YAML config file (default $"+config.EnvConfigFile+")")
	flagSet.Usage = func() {
		fmt.Fprintln(os.Stderr, usage)
		flagSet.PrintDefaults()
	}
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)

	command, rest := "serve", flagSet.Args()
	if len(rest) > 0 {
		command, rest = rest[0], rest[1:]
	}
	if command != "serve" && command != "admin" {
		fmt.Fprintln(os.Stderr, usage)
		return admin.ErrUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			logger.Error("close store", "error", err)
		}
	}()

	storage, media, err := openFiles(ctx, cfg)
	if err != nil {
		return err
	}

	if command == "admin" {
		return admin.New(st, storage, os.Stdout, logger).Run(ctx, rest)
	}

	hasher, err := password.New(cfg.PasswordScheme)
	if err != nil {
		return err
	}
	limiter, err := openLimiter(ctx, cfg, logger)
	if err != nil {
		return err
	}

	h := handlers.New(handlers.Dependencies{
		Store:   st,
		Files:   storage,
		Hasher:  hasher,
		Limiter: limiter,
		Logger:  logger,
		Options: handlers.Options{
			MaxUploadSize: cfg.MaxUploadSize,
			LoginLimit:    cfg.LoginRateLimit,
			LoginWindow:   cfg.LoginRateWindow,
			MediaURL:      cfg.MediaURL,

			TrustProxyHeaders: cfg.TrustProxyHeaders,
		},
		Media: media,
	})
	mux := http.NewServeMux()
	h.SetupRoutes(mux)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
	})
	handler := corsHandler.Handler(middleware.Chain(mux,
		middleware.RequestID,
		middleware.Logging(logger),
		middleware.Recover(logger),
		middleware.BodyLimit(h.MaxBodySize()),
	))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.RequestTimeout,
		WriteTimeout:      cfg.RequestTimeout,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.HTTPAddr, "store", cfg.StoreDriver, "files", cfg.FileStorage)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

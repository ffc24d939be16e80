package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/panpapadopoulos/subtrack/auth"
	"github.com/panpapadopoulos/subtrack/config"
	"github.com/panpapadopoulos/subtrack/gateway"
	"github.com/panpapadopoulos/subtrack/proxy"
	bboltstorage "github.com/panpapadopoulos/subtrack/storage/bbolt"
)

var overridePort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the sync gateway server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if overridePort != 0 {
			cfg.Server.Port = overridePort
		}

		if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o700); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
		store, err := bboltstorage.NewStoreFromFile(cfg.Store.Path, nil)
		if err != nil {
			return fmt.Errorf("failed to open dataset storage: %w", err)
		}
		defer store.Close()

		authn, err := auth.New(cfg.Auth.Secret)
		if err != nil {
			return fmt.Errorf("failed to build authenticator: %w", err)
		}

		logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
		upstream := proxy.New(cfg.Upstream.Origin, cfg.Upstream.Prefix,
			proxy.WithLogger(logger.With("component", "proxy")))
		g := gateway.New(authn, store, upstream, gateway.WithLogger(logger))

		r := chi.NewRouter()
		r.Use(middleware.Logger)
		r.Use(middleware.Recoverer)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		r.Mount("/", g.Router())

		server := &http.Server{
			Addr:              cfg.Server.Addr(),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		// Graceful shutdown on SIGINT/SIGTERM.
		done := make(chan error, 1)
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				done <- fmt.Errorf("server failed: %w", err)
				return
			}
			done <- nil
		}()

		fmt.Printf("Starting gateway on %s (store: %s, upstream: %s)...\n",
			cfg.Server.Addr(), cfg.Store.Path, cfg.Upstream.Origin)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			fmt.Printf("\nReceived %s, shutting down...\n", sig)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("server shutdown failed: %w", err)
			}
			return nil
		case err := <-done:
			return err
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.Flags().IntVarP(&overridePort, "port", "p", 0, "Override the configured listen port")
}

package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/greenpoints/internal/email"
	"github.com/dukerupert/greenpoints/internal/server"
)

const cleanupInterval = time.Hour

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the admin API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		emailClient := email.NewClient(cfg.PostmarkToken, cfg.FromEmail, cfg.BaseURL)
		if !emailClient.Configured() {
			logger.Warn("postmark token not set, redemption emails disabled")
		}

		srv := server.New(db, cfg, emailClient, logger)

		httpServer := &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           srv.Router(),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		}

		go runCleanup(ctx, srv)

		errCh := make(chan error, 1)
		go func() {
			logger.Info("greenpoints running", "addr", httpServer.Addr, "base_url", cfg.BaseURL)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err = httpServer.Shutdown(shutdownCtx)
		srv.WaitForEmails()
		return err
	},
}

// runCleanup drops expired sessions and stale rate limit windows until ctx
// is cancelled.
func runCleanup(ctx context.Context, srv *server.Server) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := srv.SessionStore().DeleteExpired()
			if err != nil {
				logger.Error("delete expired sessions", "error", err)
			} else if n > 0 {
				logger.Info("expired sessions removed", "count", n)
			}
			srv.RateLimiter().Cleanup()
		}
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

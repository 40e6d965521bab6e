package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"supplier-catalog/internal/database"
	"supplier-catalog/internal/server"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run migrations and start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, db, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()

		log.Info("Starting supplier catalog API",
			zap.String("env", cfg.Server.Env),
			zap.String("port", cfg.Server.Port),
		)

		if err := database.RunMigrations(db.DB(), log); err != nil {
			db.Close()
			return err
		}

		services, err := server.NewServices(cfg, db.DB(), log)
		if err != nil {
			db.Close()
			return err
		}

		srv, err := server.NewServer(cfg, log, db, services)
		if err != nil {
			db.Close()
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()
		if err := srv.Ping(ctx); err != nil {
			log.Warn("Redis is unreachable, rate limiting fails open", zap.Error(err))
		}

		srv.StartBackground()

		done := make(chan bool, 1)
		go gracefulShutdown(srv, log, done)

		log.Info("Server listening", zap.String("addr", srv.Addr))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}

		<-done
		log.Info("Graceful shutdown complete")
		return nil
	},
}

func gracefulShutdown(apiServer *server.Server, logger *zap.Logger, done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	logger.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := apiServer.Close(); err != nil {
		logger.Error("Error closing server resources", zap.Error(err))
	}

	logger.Info("Server exiting")
	done <- true
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

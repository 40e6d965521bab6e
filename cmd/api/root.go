package main

import (
	"fmt"
	"os"

	"supplier-catalog/internal/config"
	"supplier-catalog/internal/database"
	"supplier-catalog/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "supplier-catalog",
	Short: "Supplier catalog API",
	Long: `Supplier catalog serves the B2B product catalog and reconciles
seller price lists into it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		l, logErr := logger.New("development")
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}

// bootstrap loads configuration, builds the logger and opens the database
func bootstrap() (*config.Config, *zap.Logger, database.Service, error) {
	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		return nil, nil, nil, err
	}

	return cfg, log, db, nil
}

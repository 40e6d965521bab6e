package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"supplier-catalog/internal/metrics"
	"supplier-catalog/internal/scheduler"
	"supplier-catalog/internal/server"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var importEmail string

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a price list file on behalf of a seller",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		document, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read price list: %w", err)
		}

		cfg, log, db, err := bootstrap()
		if err != nil {
			return err
		}
		defer db.Close()
		defer log.Sync()

		services, err := server.NewServices(cfg, db.DB(), log)
		if err != nil {
			return err
		}

		seller, err := services.Users.FindByEmail(cmd.Context(), strings.ToLower(strings.TrimSpace(importEmail)))
		if err != nil {
			return fmt.Errorf("failed to find seller %s: %w", importEmail, err)
		}

		_, summary, err := services.Catalog.ImportDocument(cmd.Context(), seller, document, metrics.SourceCLI)
		if err != nil {
			return err
		}

		log.Info("Import finished",
			zap.Int64("shop_id", summary.ShopID),
			zap.Int("categories", summary.Categories),
			zap.Int("products", summary.Products),
			zap.Int("listings", summary.Listings),
		)
		return nil
	},
}

var reimportCmd = &cobra.Command{
	Use:   "reimport",
	Short: "Re-import every active shop from its price list URL once",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, db, err := bootstrap()
		if err != nil {
			return err
		}
		defer db.Close()
		defer log.Sync()

		services, err := server.NewServices(cfg, db.DB(), log)
		if err != nil {
			return err
		}

		// the schedule is irrelevant, the job is never started
		reimporter, err := scheduler.NewReimporter("@hourly", services.Repos.Shops, services.Users, services.Catalog, log)
		if err != nil {
			return err
		}

		result, err := reimporter.RunOnce(cmd.Context())
		if err != nil {
			return err
		}
		if result.Failed > 0 {
			return fmt.Errorf("%d of %d shops failed to re-import", result.Failed, result.Shops)
		}
		return nil
	},
}

var archiveCmd = &cobra.Command{
	Use:   "archive <shop-id>",
	Short: "List the archived price lists of a shop",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		shopID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid shop id %q", args[0])
		}

		cfg, log, db, err := bootstrap()
		if err != nil {
			return err
		}
		defer db.Close()

		services, err := server.NewServices(cfg, db.DB(), log)
		if err != nil {
			return err
		}
		if services.Archiver == nil {
			return fmt.Errorf("price list archive is not configured, set STORAGE_ENDPOINT")
		}

		keys, err := services.Archiver.List(cmd.Context(), shopID)
		if err != nil {
			return err
		}
		for _, key := range keys {
			fmt.Fprintln(cmd.OutOrStdout(), key)
		}
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importEmail, "email", "", "email of the seller the price list belongs to")
	_ = importCmd.MarkFlagRequired("email")

	rootCmd.AddCommand(importCmd, reimportCmd, archiveCmd)
}

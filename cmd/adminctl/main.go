package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ariefcatur/go-admin-orders/internal/admins"
	"github.com/ariefcatur/go-admin-orders/internal/config"
	kafkax "github.com/ariefcatur/go-admin-orders/internal/kafka"
	"github.com/ariefcatur/go-admin-orders/internal/logging"
	"github.com/ariefcatur/go-admin-orders/internal/orders"
	"github.com/ariefcatur/go-admin-orders/internal/postgres"
	"github.com/ariefcatur/go-admin-orders/internal/redisx"
	"github.com/ariefcatur/go-admin-orders/internal/shipping"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "adminctl",
		Short:         "Operations tooling for the order admin backend",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(migrateCmd(), exportCmd())
	return root
}

func setup(cmd *cobra.Command) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, nil, err
	}
	logger, err := logging.New(cfg.ServiceName+"-adminctl", cfg.LogLevel)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, logger.Named(cmd.Name()), nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			db, err := postgres.Connect(ctx, cfg.PostgresDSN)
			if err != nil {
				return fmt.Errorf("db connect: %w", err)
			}
			defer db.Close()

			if err := postgres.Migrate(ctx, db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			logger.Info("schema applied")
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	var (
		ids     []string
		out     string
		advance bool
		adminID string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a shipping manifest for the given orders",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if advance && adminID == "" {
				return fmt.Errorf("--admin is required with --advance")
			}
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			db, err := postgres.Connect(ctx, cfg.PostgresDSN)
			if err != nil {
				return fmt.Errorf("db connect: %w", err)
			}
			defer db.Close()
			rdb := redisx.New(cfg.RedisAddr)
			defer rdb.Close()

			events := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicStatusChanged, 1024, logger)
			events.Start(ctx)
			defer events.WaitClosed()
			defer events.Close()

			store := &orders.Repo{DB: db}
			adminStore := &admins.Repo{DB: db}
			svc := &orders.Service{
				Store:       store,
				Admins:      adminStore,
				Cache:       redisx.NewListCache(rdb, cfg.ListCacheTTL),
				Events:      events,
				Log:         logger,
				ServiceName: cfg.ServiceName + "-adminctl",
			}
			ex := &shipping.Exporter{Orders: store, Workflow: svc, Log: logger}

			var res shipping.Export
			if advance {
				actor, err := adminStore.GetAdmin(ctx, adminID)
				if err != nil {
					return fmt.Errorf("admin %s: %w", adminID, err)
				}
				res, err = ex.ExportAndAdvance(ctx, actor, ids)
				if err != nil {
					return err
				}
			} else {
				if res, err = ex.ExportOnly(ctx, ids); err != nil {
					return err
				}
			}

			path := out
			if path == "" || strings.HasSuffix(path, string(os.PathSeparator)) {
				path = filepath.Join(path, res.Filename)
			}
			if err := os.WriteFile(path, res.File, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d orders to %s\n", res.Count, path)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&ids, "ids", nil, "order ids, comma separated")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file or directory (default: generated name in cwd)")
	cmd.Flags().BoolVar(&advance, "advance", false, "move exported orders to shipped")
	cmd.Flags().StringVar(&adminID, "admin", "", "acting admin id, required with --advance")
	_ = cmd.MarkFlagRequired("ids")
	return cmd
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmehdipour/teams-notify/internal/app"
	"github.com/jmehdipour/teams-notify/internal/db"
	httpSrv "github.com/jmehdipour/teams-notify/internal/http"
	"github.com/jmehdipour/teams-notify/internal/repository"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP ingest API",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.Bootstrap(cfgPath, "http")
		if err != nil {
			return err
		}
		defer a.Close()
		cfg := a.Config

		deps := httpSrv.Deps{
			Processor: a.Processor,
			RateRPS:   cfg.RateLimit.RPS,
			Log:       a.Log.Named("http"),
		}

		if cfg.Redis.Addr != "" {
			redisClient, err := db.NewRedisClient(cfg.Redis)
			if err != nil {
				return fmt.Errorf("redis connect: %w", err)
			}
			defer func() { _ = redisClient.Close() }()
			deps.Redis = redisClient
		}

		if cfg.ClickHouse.DSN != "" {
			chDB, err := db.NewClickHouseConnection(cfg.ClickHouse)
			if err != nil {
				return fmt.Errorf("clickhouse connect: %w", err)
			}
			defer func() { _ = chDB.Close() }()
			deps.Reports = repository.NewCHDeliveriesRepository(chDB)
		}

		a.Start(context.Background())
		server := httpSrv.NewServer(deps)

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start(cfg.HTTP.Addr)
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-sigCh:
			a.Log.Info("signal received, shutting down", zap.String("signal", sig.String()))
		case err := <-errCh:
			if err != nil {
				a.Log.Error("http server exited", zap.Error(err))
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)

		return nil
	},
}

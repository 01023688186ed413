package worker

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmehdipour/teams-notify/internal/app"
	"github.com/jmehdipour/teams-notify/internal/processor"
	"github.com/jmehdipour/teams-notify/internal/worker"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func bootstrap(cmd *cobra.Command, source string) (*app.App, error) {
	cfgPath, _ := cmd.Root().PersistentFlags().GetString("config")
	return app.Bootstrap(cfgPath, source)
}

// run drives the processor against src/sink until SIGINT/SIGTERM.
func run(a *app.App, src processor.Source, sink processor.Sink, workers int) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.Start(ctx)

	if addr := a.Config.Worker.MetricsAddr; addr != "" {
		e := echo.New()
		e.HideBanner = true
		e.HidePort = true
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
		e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
		go func() {
			if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.Log.Error("metrics server exited", zap.Error(err))
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = e.Shutdown(sctx)
		}()
	}

	r := worker.NewRunner(a.Processor, src, sink, workers, a.Log.Named("runner"))
	a.Log.Info(">> worker started", zap.Int("workers", r.Workers))

	return r.Run(ctx)
}

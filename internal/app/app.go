// Package app wires configuration, logging, metrics, the delivery audit and
// the processor shared by every command.
package app

import (
	"context"
	"fmt"

	"github.com/jmehdipour/teams-notify/internal/config"
	"github.com/jmehdipour/teams-notify/internal/db"
	"github.com/jmehdipour/teams-notify/internal/logger"
	"github.com/jmehdipour/teams-notify/internal/metrics"
	"github.com/jmehdipour/teams-notify/internal/model"
	"github.com/jmehdipour/teams-notify/internal/processor"
	"github.com/jmehdipour/teams-notify/internal/repository"
	"github.com/jmehdipour/teams-notify/internal/worker"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type App struct {
	Config    config.Config
	Log       *zap.Logger
	Processor *processor.Processor
	Audit     *worker.Recorder // nil when mysql.dsn is empty

	mysql  *sqlx.DB
	cancel context.CancelFunc
}

// Bootstrap loads config, builds the logger and the processor labelled with
// source. A configuration error is returned before anything is started.
func Bootstrap(cfgPath, source string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	lg, err := logger.Init(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	lg = lg.With(zap.String("source", source))

	metrics.MustRegister(prometheus.DefaultRegisterer)

	a := &App{Config: cfg, Log: lg}

	if cfg.MySQL.DSN != "" {
		a.mysql, err = db.NewMySQLConnection(cfg.MySQL)
		if err != nil {
			return nil, fmt.Errorf("mysql connect: %w", err)
		}
		a.Audit = worker.NewRecorder(
			repository.NewDeliveriesRepository(a.mysql),
			cfg.Worker.AuditBatchSize,
			cfg.Worker.AuditBatchWait,
			lg.Named("audit"),
		)
	} else {
		lg.Info("mysql.dsn empty, delivery audit disabled")
	}

	var proc *processor.Processor
	opts := []processor.Option{
		processor.WithLogger(lg.Named("processor")),
		processor.WithSource(source),
	}
	if a.Audit != nil {
		opts = append(opts, processor.WithObserver(func(rec *model.Record, res processor.Result) {
			a.Audit.Record(proc.Delivery(rec, res))
		}))
	}
	proc, err = processor.New(cfg.Teams, opts...)
	if err != nil {
		a.closeDB()
		return nil, err
	}
	a.Processor = proc

	return a, nil
}

// Start launches background components (the audit flusher).
func (a *App) Start(ctx context.Context) {
	if a.Audit == nil {
		return
	}
	ctx, a.cancel = context.WithCancel(ctx)
	go a.Audit.Run(ctx)
}

// Close flushes the audit trail and releases connections.
func (a *App) Close() error {
	if a.cancel != nil {
		a.cancel()
		a.Audit.Wait()
	}
	err := a.closeDB()
	_ = a.Log.Sync()
	return err
}

func (a *App) closeDB() error {
	if a.mysql == nil {
		return nil
	}
	err := a.mysql.Close()
	a.mysql = nil
	return err
}

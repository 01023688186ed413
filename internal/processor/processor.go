// Package processor composes the resolver and the dispatcher into the per
// record unit of work and routes each record to exactly one outcome channel.
package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/jmehdipour/teams-notify/internal/config"
	"github.com/jmehdipour/teams-notify/internal/dispatcher"
	"github.com/jmehdipour/teams-notify/internal/metrics"
	"github.com/jmehdipour/teams-notify/internal/model"
	"github.com/jmehdipour/teams-notify/internal/resolver"
	"go.uber.org/zap"
)

// Source hands out records. Acquire returns (nil, nil) when nothing is
// available for this cycle.
type Source interface {
	Acquire(ctx context.Context) (*model.Record, error)
}

// Sink routes a processed record onward to its outcome channel.
type Sink interface {
	Transfer(ctx context.Context, rec *model.Record, outcome model.Outcome) error
}

// Observer is notified once per processed record, after the transfer.
type Observer func(rec *model.Record, res Result)

// Result is the diagnostic view of one processed record.
type Result struct {
	Outcome    model.Outcome
	Message    model.Message
	StatusCode int
	Err        error
	Duration   time.Duration
}

type Processor struct {
	webhook  string
	source   string
	resolver *resolver.Resolver
	dispatch *dispatcher.Dispatcher
	observer Observer
	log      *zap.Logger
}

type Option func(*Processor)

func WithLogger(l *zap.Logger) Option {
	return func(p *Processor) {
		if l != nil {
			p.log = l
		}
	}
}

// WithDispatcher replaces the default dispatcher built from cfg.Timeout.
func WithDispatcher(d *dispatcher.Dispatcher) Option {
	return func(p *Processor) {
		if d != nil {
			p.dispatch = d
		}
	}
}

func WithObserver(o Observer) Option {
	return func(p *Processor) { p.observer = o }
}

// WithSource labels metrics and audit rows (http, kafka, redis, cli).
func WithSource(name string) Option {
	return func(p *Processor) { p.source = name }
}

// New validates the configuration once and returns a ready processor.
// A configuration error means the component must not start.
func New(cfg config.TeamsConfig, opts ...Option) (*Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid teams config: %w", err)
	}
	res, err := resolver.New(cfg.Title, cfg.Body)
	if err != nil {
		return nil, fmt.Errorf("invalid teams config: %w", err)
	}

	p := &Processor{
		webhook:  cfg.Webhook,
		source:   "unknown",
		resolver: res,
		log:      zap.NewNop(),
	}
	for _, o := range opts {
		o(p)
	}
	if p.dispatch == nil {
		p.dispatch = dispatcher.New(cfg.Timeout, p.log)
	}

	p.log.Info("teams processor configured",
		zap.String("webhook_host", dispatcher.WebhookHost(cfg.Webhook)),
		zap.Strings("title_attributes", resolver.References(cfg.Title)),
		zap.Strings("body_attributes", resolver.References(cfg.Body)),
		zap.String("source", p.source),
	)
	return p, nil
}

// Webhook returns the configured webhook URL.
func (p *Processor) Webhook() string { return p.webhook }

// Handle resolves and dispatches one record and returns its outcome.
func (p *Processor) Handle(ctx context.Context, rec *model.Record) model.Outcome {
	return p.Process(ctx, rec).Outcome
}

// Process is Handle with diagnostics attached. The record is only read.
func (p *Processor) Process(ctx context.Context, rec *model.Record) Result {
	msg := p.resolver.Resolve(rec)
	dr := p.dispatch.Dispatch(ctx, p.webhook, msg, zap.String("record_id", rec.ID))

	metrics.DispatchDuration.WithLabelValues(dr.Outcome.String()).Observe(dr.Duration.Seconds())
	if k := dr.Kind(); k != "" {
		metrics.DispatchErrorsTotal.WithLabelValues(k.String()).Inc()
	}

	return Result{
		Outcome:    dr.Outcome,
		Message:    msg,
		StatusCode: dr.StatusCode,
		Err:        dr.Err,
		Duration:   dr.Duration,
	}
}

// Trigger runs one cycle: acquire a record, process it and transfer it to
// exactly one outcome channel. It returns (nil, nil) when the source had
// nothing to offer; no dispatch and no transfer happen in that case.
func (p *Processor) Trigger(ctx context.Context, src Source, sink Sink) (*Result, error) {
	rec, err := src.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire record: %w", err)
	}
	if rec == nil {
		return nil, nil
	}

	res := p.Process(ctx, rec)
	if err := sink.Transfer(ctx, rec, res.Outcome); err != nil {
		return &res, fmt.Errorf("transfer record %s to %s: %w", rec.ID, res.Outcome.DisplayName(), err)
	}
	p.Observe(rec, res)

	p.log.Debug("record routed",
		zap.String("record_id", rec.ID),
		zap.String("outcome", res.Outcome.DisplayName()),
		zap.Int("status", res.StatusCode),
	)
	return &res, nil
}

// Observe records metrics and notifies the observer for a record handled
// outside Trigger (the HTTP ingest path).
func (p *Processor) Observe(rec *model.Record, res Result) {
	metrics.RecordsTotal.WithLabelValues(res.Outcome.String(), p.source).Inc()
	if p.observer != nil {
		p.observer(rec, res)
	}
}

// Delivery builds the audit row for a processed record.
func (p *Processor) Delivery(rec *model.Record, res Result) model.Delivery {
	d := model.Delivery{
		RecordID:    rec.ID,
		Outcome:     res.Outcome,
		Title:       res.Message.Title,
		WebhookHost: dispatcher.WebhookHost(p.webhook),
		StatusCode:  res.StatusCode,
		DurationMs:  res.Duration.Milliseconds(),
		Source:      p.source,
		CreatedAt:   time.Now().UTC(),
	}
	if res.Err != nil {
		d.ErrorKind = dispatcher.KindOf(res.Err).String()
		d.Error = res.Err.Error()
	}
	return d
}

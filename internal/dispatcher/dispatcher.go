package dispatcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/jmehdipour/teams-notify/internal/model"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// maxDrain bounds how much of a response body is read so the connection can
// be reused. The body itself is never inspected.
const maxDrain = 64 << 10

// Result is the classification of a single webhook POST.
type Result struct {
	Outcome    model.Outcome
	StatusCode int // 0 when no response was received
	Err        error
	Duration   time.Duration
}

// Kind is the failure kind, or "" on success.
func (r Result) Kind() Kind { return KindOf(r.Err) }

// Dispatcher posts resolved messages to a Teams incoming webhook. It is safe
// for concurrent use; the underlying http.Client pools connections.
type Dispatcher struct {
	client *http.Client
	log    *zap.Logger
}

// New builds a Dispatcher. timeout <= 0 means no client-side timeout.
func New(timeout time.Duration, log *zap.Logger) *Dispatcher {
	if timeout < 0 {
		timeout = 0
	}
	return NewWithClient(&http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}, log)
}

func NewWithClient(client *http.Client, log *zap.Logger) *Dispatcher {
	if client == nil {
		client = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{client: client, log: log}
}

// Dispatch performs exactly one POST. Any received response is a success
// whatever its status code; only encoding and transport errors fail.
// fields are attached to every log line (e.g. the record id).
func (d *Dispatcher) Dispatch(ctx context.Context, webhookURL string, msg model.Message, fields ...zap.Field) Result {
	start := time.Now()
	status, err := d.post(ctx, webhookURL, msg)
	res := Result{StatusCode: status, Duration: time.Since(start)}

	log := d.log.With(fields...)
	host := WebhookHost(webhookURL)
	if err != nil {
		res.Outcome = model.OutcomeFailure
		res.Err = err
		log.Error("teams webhook dispatch failed",
			zap.String("webhook_host", host),
			zap.String("kind", KindOf(err).String()),
			zap.Duration("duration", res.Duration),
			zap.Error(err),
		)
		return res
	}

	res.Outcome = model.OutcomeSuccess
	if status/100 != 2 {
		log.Warn("teams webhook answered with non-2xx status",
			zap.String("webhook_host", host),
			zap.Int("status", status),
		)
	}
	return res
}

func (d *Dispatcher) post(ctx context.Context, webhookURL string, msg model.Message) (int, error) {
	b, err := encode(msg)
	if err != nil {
		return 0, &Error{Kind: KindEncoding, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(b))
	if err != nil {
		return 0, &Error{Kind: KindProtocol, Err: err}
	}

	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	res, err := d.client.Do(req)
	if err != nil {
		return 0, &Error{Kind: classify(err), Err: err}
	}

	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, maxDrain))

	return res.StatusCode, nil
}

func encode(msg model.Message) ([]byte, error) {
	if !utf8.ValidString(msg.Title) {
		return nil, errors.New("title is not valid UTF-8")
	}
	if !utf8.ValidString(msg.Body) {
		return nil, errors.New("body is not valid UTF-8")
	}
	return json.Marshal(msg)
}

// WebhookHost keeps the secret path of a Teams webhook URL out of logs and
// audit rows.
func WebhookHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "invalid"
	}
	return u.Host
}

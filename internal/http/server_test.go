package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jmehdipour/teams-notify/internal/config"
	"github.com/jmehdipour/teams-notify/internal/model"
	"github.com/jmehdipour/teams-notify/internal/processor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProcessor(t *testing.T, webhook string, observe processor.Observer) *processor.Processor {
	t.Helper()
	p, err := processor.New(
		config.TeamsConfig{Title: "${title}", Body: "${body}", Webhook: webhook},
		processor.WithSource("http"),
		processor.WithObserver(observe),
	)
	require.NoError(t, err)
	return p
}

func do(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestNotifyEndToEnd(t *testing.T) {
	posted := make(chan string, 1)
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		posted <- string(b)
	}))
	t.Cleanup(webhook.Close)

	var observed int
	srv := NewServer(Deps{Processor: newProcessor(t, webhook.URL, func(*model.Record, processor.Result) { observed++ })})

	rec, out := do(t, srv.Handler(), http.MethodPost, "/v1/notify",
		`{"id":"r1","attributes":{"title":"Alert","body":"Disk full"}}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "r1", out["id"])
	assert.Equal(t, "Success", out["outcome"])
	assert.JSONEq(t, `{"title":"Alert","body":"Disk full"}`, <-posted)
	assert.Equal(t, 1, observed)
}

func TestNotifyUnreachableWebhook(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	url := dead.URL
	dead.Close()

	srv := NewServer(Deps{Processor: newProcessor(t, url, nil)})
	rec, out := do(t, srv.Handler(), http.MethodPost, "/v1/notify", `{"attributes":{"title":"t"}}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Failure", out["outcome"])
	assert.Equal(t, "connection", out["error_kind"])
	assert.NotEmpty(t, out["id"])
}

func TestNotifyBadRequest(t *testing.T) {
	srv := NewServer(Deps{Processor: newProcessor(t, "http://127.0.0.1:1", nil)})
	rec, _ := do(t, srv.Handler(), http.MethodPost, "/v1/notify", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	long := strings.Repeat("x", model.MaxRecordIDLen+1)
	rec, out := do(t, srv.Handler(), http.MethodPost, "/v1/notify", `{"id":"`+long+`","attributes":{}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, model.ErrRecordIDTooLong.Error(), out["error"])
}

type fakeReports struct {
	rows []model.Delivery
	err  error
	got  struct {
		outcome model.Outcome
		source  string
		limit   int
		offset  int
	}
}

func (f *fakeReports) List(_ context.Context, o model.Outcome, source string, limit, offset int) ([]model.Delivery, error) {
	f.got.outcome, f.got.source, f.got.limit, f.got.offset = o, source, limit, offset
	return f.rows, f.err
}

func TestReports(t *testing.T) {
	p := newProcessor(t, "http://127.0.0.1:1", nil)

	rec, _ := do(t, NewServer(Deps{Processor: p}).Handler(), http.MethodGet, "/v1/reports/deliveries", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	reports := &fakeReports{rows: []model.Delivery{{RecordID: "a", Outcome: model.OutcomeFailure}}}
	h := NewServer(Deps{Processor: p, Reports: reports}).Handler()

	rec, out := do(t, h, http.MethodGet, "/v1/reports/deliveries?outcome=Failure&source=kafka&limit=5&offset=10", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, out["count"])
	assert.Equal(t, model.OutcomeFailure, reports.got.outcome)
	assert.Equal(t, "kafka", reports.got.source)
	assert.Equal(t, 5, reports.got.limit)
	assert.Equal(t, 10, reports.got.offset)

	rec, _ = do(t, h, http.MethodGet, "/v1/reports/deliveries?outcome=maybe", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	reports.err = errors.New("clickhouse down")
	rec, _ = do(t, h, http.MethodGet, "/v1/reports/deliveries", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealthz(t *testing.T) {
	srv := NewServer(Deps{Processor: newProcessor(t, "http://127.0.0.1:1", nil)})
	rec, _ := do(t, srv.Handler(), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
